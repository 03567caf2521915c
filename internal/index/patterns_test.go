// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"strings"
	"testing"
)

func TestDataStream(t *testing.T) {
	tests := []struct {
		dataset   string
		namespace string
		want      string
	}{
		{"app", "prod", "logs-app-prod"},
		{"", "", "logs-generic-default"},
		{"My App", "Pre/Prod", "logs-my_app-pre_prod"},
		{"auth-api", "default", "logs-auth_api-default"},
	}
	for _, tt := range tests {
		if got := DataStream(tt.dataset, tt.namespace); got != tt.want {
			t.Errorf("DataStream(%q, %q) = %q, want %q", tt.dataset, tt.namespace, got, tt.want)
		}
	}
}

func TestPattern(t *testing.T) {
	if got := Pattern("app"); got != "logs-app-*" {
		t.Errorf("Pattern(app) = %q, want logs-app-*", got)
	}
}

func TestSanitize_Length(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := Sanitize(long, "x"); len(got) != 100 {
		t.Errorf("Sanitize length = %d, want 100", len(got))
	}
}

func TestSanitize_AllInvalid(t *testing.T) {
	if got := Sanitize("***", "fallback"); got != "fallback" {
		t.Errorf("Sanitize(***) = %q, want fallback", got)
	}
}
