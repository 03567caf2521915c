// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elkhound-dev/elkhound/internal/config"
	"github.com/elkhound-dev/elkhound/internal/kibana"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provision.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestApplyManifest(t *testing.T) {
	base := config.ProvisionConfig{
		Dataset:         "app",
		Namespace:       "default",
		RolloverMaxAge:  "1d",
		RolloverMaxSize: "10gb",
		DeleteMinAge:    "7d",
		Shards:          1,
		Replicas:        1,
	}

	t.Run("overrides set fields only", func(t *testing.T) {
		path := writeManifest(t, `
dataset: payments
rollover_max_age: 12h
shards: 3
`)
		p := base
		if err := applyManifest(&p, path); err != nil {
			t.Fatalf("applyManifest: %v", err)
		}

		if p.Dataset != "payments" {
			t.Errorf("Dataset = %q, want payments", p.Dataset)
		}
		if p.RolloverMaxAge != "12h" {
			t.Errorf("RolloverMaxAge = %q, want 12h", p.RolloverMaxAge)
		}
		if p.Shards != 3 {
			t.Errorf("Shards = %d, want 3", p.Shards)
		}
		// Untouched fields keep config values.
		if p.Namespace != "default" {
			t.Errorf("Namespace = %q, want default", p.Namespace)
		}
		if p.DeleteMinAge != "7d" {
			t.Errorf("DeleteMinAge = %q, want 7d", p.DeleteMinAge)
		}
		if p.Replicas != 1 {
			t.Errorf("Replicas = %d, want 1", p.Replicas)
		}
	})

	t.Run("zero replicas is applied", func(t *testing.T) {
		path := writeManifest(t, "replicas: 0\n")
		p := base
		if err := applyManifest(&p, path); err != nil {
			t.Fatalf("applyManifest: %v", err)
		}
		if p.Replicas != 0 {
			t.Errorf("Replicas = %d, want 0", p.Replicas)
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		p := base
		if err := applyManifest(&p, filepath.Join(t.TempDir(), "nope.yml")); err == nil {
			t.Fatal("expected error for missing manifest")
		}
	})

	t.Run("invalid yaml errors", func(t *testing.T) {
		path := writeManifest(t, "dataset: [unclosed\n")
		p := base
		if err := applyManifest(&p, path); err == nil {
			t.Fatal("expected error for invalid YAML")
		}
	})
}

// fakeKibana stands in for the data views API, tracking deletions and
// creations so the recreate path can be observed.
func fakeKibana(t *testing.T) (*kibana.Client, *kibanaState) {
	t.Helper()
	state := &kibanaState{existingID: "stale-id", existingTitle: "logs-app-*"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/data_views":
			if state.existingID == "" {
				fmt.Fprint(w, `{"data_view":[]}`)
				return
			}
			fmt.Fprintf(w, `{"data_view":[{"id":%q,"title":%q}]}`, state.existingID, state.existingTitle)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/data_views/data_view/"):
			state.deleted = append(state.deleted, strings.TrimPrefix(r.URL.Path, "/api/data_views/data_view/"))
			state.existingID = ""
		case r.Method == http.MethodPost && r.URL.Path == "/api/data_views/data_view":
			state.created++
			fmt.Fprint(w, `{"data_view":{"id":"fresh-id","title":"logs-app-*"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return kibana.NewClient(kibana.ClientOptions{KibanaURL: srv.URL}), state
}

type kibanaState struct {
	existingID    string
	existingTitle string
	deleted       []string
	created       int
}

func TestEnsureDataView_RecreateDeletesStaleView(t *testing.T) {
	kbn, state := fakeKibana(t)

	id, err := ensureDataView(context.Background(), kbn, "logs-app-*", true)
	if err != nil {
		t.Fatalf("ensureDataView: %v", err)
	}
	if id != "fresh-id" {
		t.Errorf("id = %q, want fresh-id", id)
	}
	if len(state.deleted) != 1 || state.deleted[0] != "stale-id" {
		t.Errorf("deleted = %v, want [stale-id]", state.deleted)
	}
	if state.created != 1 {
		t.Errorf("created %d views, want 1", state.created)
	}
}

func TestEnsureDataView_KeepsExistingWithoutRecreate(t *testing.T) {
	kbn, state := fakeKibana(t)

	id, err := ensureDataView(context.Background(), kbn, "logs-app-*", false)
	if err != nil {
		t.Fatalf("ensureDataView: %v", err)
	}
	if id != "stale-id" {
		t.Errorf("id = %q, want the existing view's id", id)
	}
	if len(state.deleted) != 0 {
		t.Errorf("deleted = %v, want no deletions", state.deleted)
	}
	if state.created != 0 {
		t.Errorf("created %d views, want 0", state.created)
	}
}
