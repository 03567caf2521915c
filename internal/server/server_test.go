// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// recordingSink captures every record it receives.
type recordingSink struct {
	mu      sync.Mutex
	records []logattr.Record
}

func (s *recordingSink) Emit(ctx context.Context, rec logattr.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) all() []logattr.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]logattr.Record(nil), s.records...)
}

func newTestServer() (*Server, *recordingSink) {
	sink := &recordingSink{}
	srv := New(Config{
		ServiceName: "auth-api",
		Environment: "test",
		Domain:      "auth",
	}, NewFanout(sink))
	srv.logf = func(format string, args ...any) {}
	return srv, sink
}

func TestHealthz(t *testing.T) {
	srv, sink := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}

	// The request-logging middleware records the access.
	records := sink.all()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Attributes["url.path"] != "/healthz" {
		t.Errorf("url.path = %v", records[0].Attributes["url.path"])
	}
	if records[0].Attributes[logattr.KeyServiceName] != "auth-api" {
		t.Errorf("service.name = %v", records[0].Attributes[logattr.KeyServiceName])
	}
}

func TestLogQuery(t *testing.T) {
	srv, sink := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/logs?message=hello&level=warning&domain=session", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["logged"] != "hello" {
		t.Errorf("logged = %q, want hello", resp["logged"])
	}
	if resp["correlation_id"] == "" {
		t.Error("expected a correlation_id")
	}
	if got := w.Header().Get(CorrelationIDHeader); got != resp["correlation_id"] {
		t.Errorf("header correlation ID %q != body %q", got, resp["correlation_id"])
	}

	// One record for the query endpoint, one from request logging.
	records := sink.all()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	queryRec := records[0]
	if queryRec.Body != "hello" {
		t.Errorf("body = %q", queryRec.Body)
	}
	if queryRec.Severity != logattr.SeverityWarn {
		t.Errorf("severity = %q, want WARN", queryRec.Severity)
	}
	if queryRec.Attributes[logattr.KeyEventDomain] != "session" {
		t.Errorf("event.domain = %v", queryRec.Attributes[logattr.KeyEventDomain])
	}
}

func TestCorrelationIDPassthrough(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["correlation_id"] != "abc-123" {
		t.Errorf("correlation_id = %q, want abc-123", resp["correlation_id"])
	}
}

func TestLogIngest(t *testing.T) {
	srv, sink := newTestServer()

	// The body mentions a forbidden keyword (credit_card), which gates the
	// redaction pass over the card digits.
	body := `{
		"body": "credit_card 4111-1111-1111-1111 charged",
		"attributes": {
			"log.level": "INFO",
			"event.domain": "auth",
			"event.type": "audit"
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message  string `json:"message"`
		Redacted bool   `json:"redacted"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Redacted {
		t.Error("expected the card number to be redacted")
	}
	if strings.Contains(resp.Message, "4111") {
		t.Errorf("card number leaked: %q", resp.Message)
	}

	records := sink.all()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (ingest + access)", len(records))
	}
	if records[0].Attributes[logattr.KeyEventType] != "audit" {
		t.Errorf("event.type = %v", records[0].Attributes[logattr.KeyEventType])
	}
}

func TestLogIngest_RejectsForbiddenAttribute(t *testing.T) {
	srv, sink := newTestServer()

	body := `{
		"body": "login",
		"attributes": {
			"log.level": "INFO",
			"event.domain": "auth",
			"event.type": "access",
			"password": "hunter2"
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}

	// Only the access log from the middleware should have been emitted.
	records := sink.all()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Severity != logattr.SeverityWarn {
		t.Errorf("access log severity = %q, want WARN for a 422", records[0].Severity)
	}
}

func TestLogIngest_BadJSON(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
