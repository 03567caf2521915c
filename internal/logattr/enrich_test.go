// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package logattr

import "testing"

func TestEnrich_FillsDefaultsFromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "worklist-api")
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("SERVICE_VERSION", "1.2.3")
	t.Setenv("HOSTNAME", "node-7")

	enriched := Enrich(map[string]any{})

	if enriched[KeyServiceName] != "worklist-api" {
		t.Errorf("service.name = %v, want worklist-api", enriched[KeyServiceName])
	}
	if enriched[KeyEnvironment] != "staging" {
		t.Errorf("deployment.environment = %v, want staging", enriched[KeyEnvironment])
	}
	if enriched[KeyServiceVersion] != "1.2.3" {
		t.Errorf("service.version = %v, want 1.2.3", enriched[KeyServiceVersion])
	}
	if enriched[KeyHostName] != "node-7" {
		t.Errorf("host.name = %v, want node-7", enriched[KeyHostName])
	}
	if enriched[KeyServiceNamespace] != "frontend" {
		t.Errorf("service.namespace = %v, want frontend", enriched[KeyServiceNamespace])
	}
}

func TestEnrich_DoesNotOverwrite(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "from-env")
	enriched := Enrich(map[string]any{KeyServiceName: "explicit"})
	if enriched[KeyServiceName] != "explicit" {
		t.Errorf("service.name = %v, want explicit", enriched[KeyServiceName])
	}
}

func TestEnrich_CategoryFromDomain(t *testing.T) {
	enriched := Enrich(map[string]any{
		KeyEventDomain: string(DomainAuth),
	})
	if enriched[KeyEventCategory] != string(CategoryAuthentication) {
		t.Errorf("event.category = %v, want authentication", enriched[KeyEventCategory])
	}
}

func TestInferNamespace(t *testing.T) {
	tests := []struct {
		service string
		want    string
	}{
		{"auth-api", "identity"},
		{"session-store", "identity"},
		{"dictation_backend", "backend"},
		{"dictation_frontend", "frontend"},
		{"viewer-web", "frontend"},
		{"billing", "unknown"},
		// First matching fragment wins: auth outranks dictation_backend.
		{"auth-dictation_backend", "identity"},
	}
	for _, tt := range tests {
		if got := InferNamespace(tt.service); got != tt.want {
			t.Errorf("InferNamespace(%q) = %q, want %q", tt.service, got, tt.want)
		}
	}
}

func TestInferCategory(t *testing.T) {
	if got := InferCategory(DomainSession); got != CategoryBackend {
		t.Errorf("InferCategory(session) = %v, want backend", got)
	}
	if got := InferCategory(EventDomain("nope")); got != CategoryFrontend {
		t.Errorf("InferCategory(unknown) = %v, want frontend fallback", got)
	}
}
