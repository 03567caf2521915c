// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package loadgen

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// Sink consumes generated records.
type Sink interface {
	Write(ctx context.Context, rec logattr.Record) error
	Close() error
}

// Runner drives one or more generator workers against a sink.
type Runner struct {
	Count       int           // total records to produce
	Concurrency int           // parallel workers (default 1)
	Interval    time.Duration // optional pacing between records per worker
	Options     Options       // generator options; worker i uses Seed+i
}

// Run produces Count records and writes them to the sink. Workers stop on
// the first sink error or context cancellation.
func (r Runner) Run(ctx context.Context, sink Sink) error {
	workers := r.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if r.Count <= 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)

	per := r.Count / workers
	extra := r.Count % workers
	for i := 0; i < workers; i++ {
		n := per
		if i < extra {
			n++
		}
		if n == 0 {
			continue
		}

		opts := r.Options
		if opts.Seed != 0 {
			opts.Seed += int64(i)
		}
		gen := New(opts)

		g.Go(func() error {
			for j := 0; j < n; j++ {
				rec, err := gen.Next()
				if err != nil {
					return fmt.Errorf("generate record: %w", err)
				}
				if err := sink.Write(ctx, rec); err != nil {
					return err
				}
				if r.Interval > 0 {
					select {
					case <-time.After(r.Interval):
					case <-ctx.Done():
						return ctx.Err()
					}
				} else if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// FileSink writes records as NDJSON.
type FileSink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	c   io.Closer
	enc *json.Encoder
}

// NewFileSink creates (truncating) the output file. "-" means stdout.
func NewFileSink(path string) (*FileSink, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdout
	} else {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create output file: %w", err)
		}
	}

	w := bufio.NewWriter(f)
	s := &FileSink{w: w, enc: json.NewEncoder(w)}
	if f != os.Stdout {
		s.c = f
	}
	return s, nil
}

func (s *FileSink) Write(ctx context.Context, rec logattr.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec.Document())
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

// RecordEmitter is any exporter that emits without a result, like the OTLP
// client.
type RecordEmitter interface {
	Send(ctx context.Context, rec logattr.Record)
}

// EmitterSink adapts a RecordEmitter to the Sink interface.
type EmitterSink struct {
	Emitter RecordEmitter
	Closer  func(ctx context.Context) error
}

func (s EmitterSink) Write(ctx context.Context, rec logattr.Record) error {
	s.Emitter.Send(ctx, rec)
	return nil
}

func (s EmitterSink) Close() error {
	if s.Closer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Closer(ctx)
}

// RecordShipper is any exporter that ships with an error result, like the
// Elasticsearch bulk shipper.
type RecordShipper interface {
	Ship(ctx context.Context, rec logattr.Record) error
}

// ShipperSink adapts a RecordShipper to the Sink interface.
type ShipperSink struct {
	Shipper RecordShipper
	Closer  func(ctx context.Context) error
}

func (s ShipperSink) Write(ctx context.Context, rec logattr.Record) error {
	return s.Shipper.Ship(ctx, rec)
}

func (s ShipperSink) Close() error {
	if s.Closer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Closer(ctx)
}

// HTTPSink sweeps the demo service's GET /api/logs endpoint, turning each
// generated record into message/level/domain query parameters.
type HTTPSink struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSink creates a sweep sink against the demo service.
func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) Write(ctx context.Context, rec logattr.Record) error {
	params := url.Values{}
	params.Set("message", rec.Body)
	params.Set("level", string(rec.Severity))
	if domain, ok := rec.Attributes[logattr.KeyEventDomain].(string); ok {
		params.Set("domain", domain)
	}

	endpoint := s.BaseURL + "/api/logs?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create sweep request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sweep request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sweep request returned %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPSink) Close() error {
	return nil
}
