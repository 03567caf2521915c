// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// Config holds the demo service settings.
type Config struct {
	Addr           string
	ServiceName    string
	ServiceVersion string
	Environment    string
	Domain         string // default event.domain for emitted logs
}

// Server is the instrumented demo log service.
type Server struct {
	cfg    Config
	fanout *Fanout
	logf   func(format string, args ...any)
}

// New creates a demo server that fans validated records out to the given
// sinks.
func New(cfg Config, fanout *Fanout) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if fanout == nil {
		fanout = NewFanout()
	}
	return &Server{cfg: cfg, fanout: fanout, logf: log.Printf}
}

// Handler builds the chi router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(WithCorrelationID)
	r.Use(s.RequestLogging)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/logs", s.handleLogQuery)
	r.Post("/api/logs", s.handleLogIngest)

	return otelhttp.NewHandler(r, s.cfg.ServiceName)
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogQuery emits one structured log built from query parameters and
// returns the message with its correlation ID. This mirrors how the demo is
// driven by sweep scripts: ?message=...&level=...&domain=...
func (s *Server) handleLogQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	message := q.Get("message")
	if message == "" {
		message = "demo log event"
	}

	attrs := map[string]any{
		logattr.KeyEventType: string(logattr.TypeAccess),
		logattr.KeyLogLevel:  string(logattr.SeverityInfo),
	}
	if level := q.Get("level"); level != "" {
		attrs[logattr.KeyLogLevel] = string(logattr.ParseSeverity(level))
	}
	if domain := q.Get("domain"); domain != "" {
		attrs[logattr.KeyEventDomain] = domain
	}
	id := CorrelationID(r.Context())
	attrs["correlation_id"] = id

	s.emit(r.Context(), message, attrs)

	writeJSON(w, http.StatusOK, map[string]string{
		"logged":         message,
		"correlation_id": id,
	})
}

// handleLogIngest accepts a {body, attributes} document, runs it through the
// contract pipeline, and fans it out. The cleaned record is returned so
// callers can see what enrichment and redaction did.
func (s *Server) handleLogIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body       string         `json:"body"`
		Attributes map[string]any `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Attributes == nil {
		req.Attributes = map[string]any{}
	}
	if _, ok := req.Attributes[logattr.KeyServiceName]; !ok {
		req.Attributes[logattr.KeyServiceName] = s.cfg.ServiceName
	}
	if _, ok := req.Attributes[logattr.KeyEnvironment]; !ok {
		req.Attributes[logattr.KeyEnvironment] = s.cfg.Environment
	}

	rec, err := logattr.Process(req.Body, req.Attributes)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if id := CorrelationID(r.Context()); id != "" {
		rec.Attributes["correlation_id"] = id
	}
	s.fanout.Emit(r.Context(), rec)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    rec.Body,
		"redacted":   rec.Redacted,
		"attributes": rec.Attributes,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
