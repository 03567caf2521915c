// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package otlp exports validated log records over OTLP/HTTP.
package otlp

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// Client sends log records to an OTLP endpoint.
type Client struct {
	provider *sdklog.LoggerProvider
	logger   log.Logger
	endpoint string
}

// Config holds OTLP client configuration.
type Config struct {
	Endpoint    string // OTLP HTTP endpoint (default: localhost:4318)
	ServiceName string // Resource-level service name (optional)
	Insecure    bool   // Use HTTP instead of HTTPS
}

// New creates a new OTLP client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4318"
	}

	ctx := context.Background()

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// The per-record service.name travels as a log attribute; the resource
	// only carries a service name when one is configured explicitly.
	var attrs []attribute.KeyValue
	if cfg.ServiceName != "" {
		attrs = append(attrs, semconv.ServiceName(cfg.ServiceName))
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, attrs...)

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return &Client{
		provider: provider,
		logger:   provider.Logger("elkhound"),
		endpoint: cfg.Endpoint,
	}, nil
}

// Send emits one validated record to the OTLP endpoint.
func (c *Client) Send(ctx context.Context, rec logattr.Record) {
	var out log.Record

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	out.SetTimestamp(ts)
	out.SetObservedTimestamp(time.Now())

	out.SetSeverity(severityNumber(rec.Severity))
	out.SetSeverityText(string(rec.Severity))
	out.SetBody(log.StringValue(rec.Body))

	for k, v := range rec.Attributes {
		switch val := v.(type) {
		case string:
			out.AddAttributes(log.String(k, val))
		case float64:
			out.AddAttributes(log.Float64(k, val))
		case bool:
			out.AddAttributes(log.Bool(k, val))
		case int:
			out.AddAttributes(log.Int(k, val))
		case int64:
			out.AddAttributes(log.Int64(k, val))
		default:
			out.AddAttributes(log.String(k, fmt.Sprint(val)))
		}
	}
	if rec.TraceID != "" {
		out.AddAttributes(log.String("trace_id", rec.TraceID))
	}
	if rec.SpanID != "" {
		out.AddAttributes(log.String("span_id", rec.SpanID))
	}

	c.logger.Emit(ctx, out)
}

// Close flushes pending records and shuts down the exporter.
func (c *Client) Close(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

// severityNumber maps the contract severity to the OTel severity number.
func severityNumber(s logattr.Severity) log.Severity {
	switch s {
	case logattr.SeverityTrace:
		return log.SeverityTrace
	case logattr.SeverityDebug:
		return log.SeverityDebug
	case logattr.SeverityInfo:
		return log.SeverityInfo
	case logattr.SeverityWarn:
		return log.SeverityWarn
	case logattr.SeverityError:
		return log.SeverityError
	case logattr.SeverityFatal:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}
