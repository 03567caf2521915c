// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package otlp

import (
	"testing"

	"go.opentelemetry.io/otel/log"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

func TestSeverityNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity logattr.Severity
		expected log.Severity
	}{
		{name: "TRACE maps to SeverityTrace", severity: logattr.SeverityTrace, expected: log.SeverityTrace},
		{name: "DEBUG maps to SeverityDebug", severity: logattr.SeverityDebug, expected: log.SeverityDebug},
		{name: "INFO maps to SeverityInfo", severity: logattr.SeverityInfo, expected: log.SeverityInfo},
		{name: "WARN maps to SeverityWarn", severity: logattr.SeverityWarn, expected: log.SeverityWarn},
		{name: "ERROR maps to SeverityError", severity: logattr.SeverityError, expected: log.SeverityError},
		{name: "FATAL maps to SeverityFatal", severity: logattr.SeverityFatal, expected: log.SeverityFatal},
		{name: "empty string defaults to SeverityInfo", severity: logattr.Severity(""), expected: log.SeverityInfo},
		{name: "arbitrary string defaults to SeverityInfo", severity: logattr.Severity("CUSTOM"), expected: log.SeverityInfo},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := severityNumber(tc.severity)
			if got != tc.expected {
				t.Errorf("severityNumber(%q) = %v, want %v", tc.severity, got, tc.expected)
			}
		})
	}
}
