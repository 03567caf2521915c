// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// CorrelationIDHeader is the header the demo service reads and echoes.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID returns the correlation ID stored in the context, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// WithCorrelationID propagates an incoming X-Correlation-ID header, minting
// a fresh UUID when the client sent none, and echoes it on the response.
func WithCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationIDKey, id)))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogging emits one validated access log record per request through
// the server's fanout.
func (s *Server) RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		level := logattr.SeverityInfo
		eventType := logattr.TypeAccess
		switch {
		case wrapped.statusCode >= 500:
			level = logattr.SeverityError
			eventType = logattr.TypeError
		case wrapped.statusCode >= 400:
			level = logattr.SeverityWarn
		}

		attrs := map[string]any{
			logattr.KeyLogLevel:         string(level),
			logattr.KeyEventType:        string(eventType),
			"http.request.method":       r.Method,
			"url.path":                  r.URL.Path,
			"http.response.status_code": wrapped.statusCode,
			"event.duration":            duration.Nanoseconds(),
			"client.address":            r.RemoteAddr,
			"user_agent.original":       r.UserAgent(),
		}
		if id := CorrelationID(r.Context()); id != "" {
			attrs["correlation_id"] = id
		}

		body := fmt.Sprintf("%s %s completed with %d", r.Method, r.URL.Path, wrapped.statusCode)
		s.emit(r.Context(), body, attrs)
	})
}

// emit runs the contract pipeline on the body/attrs pair with the server's
// identity filled in, then fans the record out. Rejected records are dropped
// after logging, never served back to the client.
func (s *Server) emit(ctx context.Context, body string, attrs map[string]any) {
	attrs[logattr.KeyServiceName] = s.cfg.ServiceName
	attrs[logattr.KeyEnvironment] = s.cfg.Environment
	if _, ok := attrs[logattr.KeyEventDomain]; !ok {
		attrs[logattr.KeyEventDomain] = s.cfg.Domain
	}

	rec, err := logattr.Process(body, attrs)
	if err != nil {
		s.logf("dropping invalid log record: %v", err)
		return
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		rec.TraceID = span.SpanContext().TraceID().String()
		rec.SpanID = span.SpanContext().SpanID().String()
	}

	s.fanout.Emit(ctx, rec)
}
