// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package kibana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("creates client with defaults", func(t *testing.T) {
		t.Parallel()
		client := NewClient(ClientOptions{
			KibanaURL: "http://localhost:5601",
		})

		if client.kibanaURL != "http://localhost:5601" {
			t.Errorf("expected kibanaURL 'http://localhost:5601', got %q", client.kibanaURL)
		}
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("expected default timeout 30s, got %v", client.httpClient.Timeout)
		}
	})

	t.Run("trims trailing slash from URL", func(t *testing.T) {
		t.Parallel()
		client := NewClient(ClientOptions{
			KibanaURL: "http://localhost:5601/",
		})

		if client.kibanaURL != "http://localhost:5601" {
			t.Errorf("expected trailing slash trimmed, got %q", client.kibanaURL)
		}
	})
}

func TestBuildEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("without space", func(t *testing.T) {
		t.Parallel()
		client := NewClient(ClientOptions{KibanaURL: "http://localhost:5601"})

		endpoint := client.buildEndpoint("/api/data_views")
		if endpoint != "http://localhost:5601/api/data_views" {
			t.Errorf("got %q", endpoint)
		}
	})

	t.Run("with space", func(t *testing.T) {
		t.Parallel()
		client := NewClient(ClientOptions{KibanaURL: "http://localhost:5601", Space: "ops"})

		endpoint := client.buildEndpoint("/api/data_views")
		if endpoint != "http://localhost:5601/s/ops/api/data_views" {
			t.Errorf("got %q", endpoint)
		}
	})
}

func TestEnsureDataView(t *testing.T) {
	t.Parallel()

	t.Run("creates when missing", func(t *testing.T) {
		t.Parallel()

		var created DataView
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("kbn-xsrf") == "" {
				t.Error("expected kbn-xsrf header")
			}

			switch {
			case r.Method == http.MethodGet && r.URL.Path == "/api/data_views":
				json.NewEncoder(w).Encode(map[string]any{"data_view": []DataView{}})
			case r.Method == http.MethodPost && r.URL.Path == "/api/data_views/data_view":
				var req struct {
					DataView DataView `json:"data_view"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode create request: %v", err)
				}
				created = req.DataView
				created.ID = "dv-1"
				json.NewEncoder(w).Encode(map[string]any{"data_view": created})
			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		client := NewClient(ClientOptions{KibanaURL: server.URL})
		id, err := client.EnsureDataView(context.Background(), "App logs", "logs-app-*")
		if err != nil {
			t.Fatalf("EnsureDataView: %v", err)
		}
		if id != "dv-1" {
			t.Errorf("id = %q, want dv-1", id)
		}
		if created.Title != "logs-app-*" {
			t.Errorf("created title = %q", created.Title)
		}
		if created.TimeFieldName != "@timestamp" {
			t.Errorf("created timeFieldName = %q", created.TimeFieldName)
		}
	})

	t.Run("reuses existing view", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				t.Error("should not create when the view exists")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data_view": []DataView{{ID: "dv-7", Title: "logs-app-*"}},
			})
		}))
		defer server.Close()

		client := NewClient(ClientOptions{KibanaURL: server.URL})
		id, err := client.EnsureDataView(context.Background(), "App logs", "logs-app-*")
		if err != nil {
			t.Fatalf("EnsureDataView: %v", err)
		}
		if id != "dv-7" {
			t.Errorf("id = %q, want dv-7", id)
		}
	})
}

func TestStatus(t *testing.T) {
	t.Parallel()

	t.Run("available", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"status": map[string]any{"overall": map[string]any{"level": "available"}},
			})
		}))
		defer server.Close()

		client := NewClient(ClientOptions{KibanaURL: server.URL})
		if err := client.Status(context.Background()); err != nil {
			t.Errorf("Status: %v", err)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"status": map[string]any{"overall": map[string]any{"level": "critical"}},
			})
		}))
		defer server.Close()

		client := NewClient(ClientOptions{KibanaURL: server.URL})
		if err := client.Status(context.Background()); err == nil {
			t.Error("expected error for critical status")
		}
	})
}
