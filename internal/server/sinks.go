// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is the instrumented demo HTTP service. Every request it
// handles produces a validated log record fanned out to the configured
// exporters.
package server

import (
	"context"
	"log"

	"github.com/elkhound-dev/elkhound/internal/es"
	"github.com/elkhound-dev/elkhound/internal/kafkaout"
	"github.com/elkhound-dev/elkhound/internal/logattr"
	"github.com/elkhound-dev/elkhound/internal/otlp"
)

// Sink receives validated log records.
type Sink interface {
	Emit(ctx context.Context, rec logattr.Record) error
}

// OTLPSink adapts the OTLP client to the Sink interface.
type OTLPSink struct {
	Client *otlp.Client
}

func (s OTLPSink) Emit(ctx context.Context, rec logattr.Record) error {
	s.Client.Send(ctx, rec)
	return nil
}

// KafkaSink adapts the Kafka producer to the Sink interface.
type KafkaSink struct {
	Producer *kafkaout.Producer
}

func (s KafkaSink) Emit(ctx context.Context, rec logattr.Record) error {
	_, _, err := s.Producer.Publish(rec)
	return err
}

// ShipperSink adapts the Elasticsearch bulk shipper to the Sink interface.
type ShipperSink struct {
	Shipper *es.Shipper
}

func (s ShipperSink) Emit(ctx context.Context, rec logattr.Record) error {
	return s.Shipper.Ship(ctx, rec)
}

// Fanout delivers each record to every sink. A failing sink is logged and
// skipped; it never blocks the others.
type Fanout struct {
	sinks []Sink
}

// NewFanout builds a fanout over the given sinks. Nil sinks are dropped.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Emit sends the record to all sinks.
func (f *Fanout) Emit(ctx context.Context, rec logattr.Record) {
	for _, s := range f.sinks {
		if err := s.Emit(ctx, rec); err != nil {
			log.Printf("log export failed: %v", err)
		}
	}
}
