// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package logattr

import (
	"os"
	"strings"
)

// namespaceByService maps service name fragments to service.namespace
// values. Checked in order; first match wins.
var namespaceByService = []struct {
	fragment  string
	namespace string
}{
	{"auth", "identity"},
	{"session", "identity"},
	{"dictation_frontend", "frontend"},
	{"dictation_backend", "backend"},
	{"worklist", "frontend"},
	{"viewer", "frontend"},
}

// categoryByDomain maps event.domain values to event.category values.
var categoryByDomain = map[EventDomain]EventCategory{
	DomainAuth:              CategoryAuthentication,
	DomainSession:           CategoryBackend,
	DomainDictationFrontend: CategoryFrontend,
	DomainDictationBackend:  CategoryBackend,
	DomainWorklist:          CategoryFrontend,
	DomainViewer:            CategoryFrontend,
}

// Enrich fills in attributes that can be derived from the process
// environment or from other attributes. Explicitly provided values are
// never overwritten.
func Enrich(attrs map[string]any) map[string]any {
	enriched := make(map[string]any, len(attrs)+4)
	for k, v := range attrs {
		enriched[k] = v
	}

	setDefault(enriched, KeyServiceName, envOr("OTEL_SERVICE_NAME", "unknown-service"))
	setDefault(enriched, KeyEnvironment, envOr("ENVIRONMENT", "dev"))
	setDefault(enriched, KeyServiceVersion, envOr("SERVICE_VERSION", "0.0.0"))
	setDefault(enriched, KeyHostName, envOr("HOSTNAME", "unknown-host"))

	if _, ok := enriched[KeyServiceNamespace]; !ok {
		name, _ := enriched[KeyServiceName].(string)
		enriched[KeyServiceNamespace] = InferNamespace(name)
	}

	if _, ok := enriched[KeyEventCategory]; !ok {
		if domain, ok := enriched[KeyEventDomain].(string); ok {
			enriched[KeyEventCategory] = string(InferCategory(EventDomain(domain)))
		}
	}

	return enriched
}

// InferNamespace derives a service.namespace from the service name.
func InferNamespace(serviceName string) string {
	lower := strings.ToLower(serviceName)
	for _, m := range namespaceByService {
		if strings.Contains(lower, m.fragment) {
			return m.namespace
		}
	}
	return "unknown"
}

// InferCategory derives an event.category from the event domain.
func InferCategory(domain EventDomain) EventCategory {
	if cat, ok := categoryByDomain[domain]; ok {
		return cat
	}
	return CategoryFrontend
}

func setDefault(attrs map[string]any, key, value string) {
	if v, ok := attrs[key]; ok && !isEmpty(v) {
		return
	}
	attrs[key] = value
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
