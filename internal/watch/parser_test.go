// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"testing"
	"time"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		line     string
		expected logattr.Severity
	}{
		{"2024-01-01 10:00:00 INFO Starting server", logattr.SeverityInfo},
		{"2024-01-01 10:00:00 DEBUG Connecting to database", logattr.SeverityDebug},
		{"2024-01-01 10:00:00 WARN Connection slow", logattr.SeverityWarn},
		{"2024-01-01 10:00:00 WARNING Connection slow", logattr.SeverityWarn},
		{"2024-01-01 10:00:00 ERROR Failed to connect", logattr.SeverityError},
		{"2024-01-01 10:00:00 ERR Failed to connect", logattr.SeverityError},
		{"2024-01-01 10:00:00 FATAL System crash", logattr.SeverityFatal},
		{"2024-01-01 10:00:00 CRITICAL System crash", logattr.SeverityFatal},
		{"2024-01-01 10:00:00 TRACE Entering function", logattr.SeverityTrace},
		// Most severe token wins
		{"INFO retry after ERROR", logattr.SeverityError},
		// Case insensitive
		{"info message", logattr.SeverityInfo},
		{"[error] something failed", logattr.SeverityError},
		// No level defaults to INFO
		{"plain message without level", logattr.SeverityInfo},
		{"", logattr.SeverityInfo},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			result := parseLevel(tc.line)
			if result != tc.expected {
				t.Errorf("parseLevel(%q) = %q, want %q", tc.line, result, tc.expected)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected time.Time
		fuzzy    bool // just check that it's recent
	}{
		{
			name:     "RFC3339Nano",
			line:     "2024-01-15T10:30:45.123456789Z INFO message",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 123456789, time.UTC),
		},
		{
			name:     "RFC3339",
			line:     "2024-01-15T10:30:45Z INFO message",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{
			name:     "space separated with millis",
			line:     "2024-01-15 10:30:45.123 INFO message",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC),
		},
		{
			name:     "slash separated",
			line:     "2024/01/15 10:30:45 INFO message",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{
			name:  "no timestamp",
			line:  "just a plain message",
			fuzzy: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := parseTimestamp(tc.line)
			if tc.fuzzy {
				if time.Since(result) > time.Second {
					t.Errorf("parseTimestamp(%q) returned non-recent time: %v", tc.line, result)
				}
			} else if !result.Equal(tc.expected) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tc.line, result, tc.expected)
			}
		})
	}
}

func TestServiceFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"server.log", "server"},
		{"api.log", "api"},
		{"/var/log/server.log", "server"},
		{"./logs/service.log", "service"},
		{"server-err.log", "server"},
		{"server-error.log", "server"},
		{"server-out.log", "server"},
		{"Server-ERR.log", "Server"},
		{".log", "unknown"},
		{"", "unknown"},
		{"noextension", "noextension"},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			result := ServiceFromFilename(tc.filename)
			if result != tc.expected {
				t.Errorf("ServiceFromFilename(%q) = %q, want %q", tc.filename, result, tc.expected)
			}
		})
	}
}

func TestParseJSONLog(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantNil   bool
		wantMsg   string
		wantLevel logattr.Severity
		wantAttrs map[string]any
		checkTime bool
		wantTime  time.Time
	}{
		{
			name:      "message field",
			line:      `{"message": "hello world", "level": "info"}`,
			wantMsg:   "hello world",
			wantLevel: logattr.SeverityInfo,
		},
		{
			name:      "msg field",
			line:      `{"msg": "hello world", "level": "debug"}`,
			wantMsg:   "hello world",
			wantLevel: logattr.SeverityDebug,
		},
		{
			name:      "severity field with alias",
			line:      `{"log": "hello world", "severity": "critical"}`,
			wantMsg:   "hello world",
			wantLevel: logattr.SeverityFatal,
		},
		{
			name:      "timestamp as string RFC3339",
			line:      `{"message": "test", "timestamp": "2024-01-15T10:30:45Z"}`,
			wantMsg:   "test",
			wantLevel: logattr.SeverityInfo,
			checkTime: true,
			wantTime:  time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{
			name:      "timestamp as epoch seconds",
			line:      `{"message": "test", "ts": 1705315845}`,
			wantMsg:   "test",
			wantLevel: logattr.SeverityInfo,
			checkTime: true,
			wantTime:  time.Unix(1705315845, 0),
		},
		{
			name:      "timestamp as epoch milliseconds",
			line:      `{"message": "test", "ts": 1705315845000}`,
			wantMsg:   "test",
			wantLevel: logattr.SeverityInfo,
			checkTime: true,
			wantTime:  time.UnixMilli(1705315845000),
		},
		{
			name:      "extra attributes preserved",
			line:      `{"message": "test", "level": "info", "request_id": "abc123", "user": "john"}`,
			wantMsg:   "test",
			wantLevel: logattr.SeverityInfo,
			wantAttrs: map[string]any{"request_id": "abc123", "user": "john"},
		},
		{
			name:    "invalid JSON",
			line:    `{invalid json}`,
			wantNil: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := parseJSONLog(tc.line)

			if tc.wantNil {
				if result != nil {
					t.Errorf("parseJSONLog(%q) = %v, want nil", tc.line, result)
				}
				return
			}

			if result == nil {
				t.Fatalf("parseJSONLog(%q) = nil, want non-nil", tc.line)
			}
			if result.Message != tc.wantMsg {
				t.Errorf("Message = %q, want %q", result.Message, tc.wantMsg)
			}
			if result.Severity != tc.wantLevel {
				t.Errorf("Severity = %q, want %q", result.Severity, tc.wantLevel)
			}
			if tc.checkTime && !result.Timestamp.Equal(tc.wantTime) {
				t.Errorf("Timestamp = %v, want %v", result.Timestamp, tc.wantTime)
			}
			for k, v := range tc.wantAttrs {
				if result.Attributes[k] != v {
					t.Errorf("Attributes[%q] = %v, want %v", k, result.Attributes[k], v)
				}
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		filename  string
		service   string
		wantJSON  bool
		wantMsg   string
		wantLevel logattr.Severity
	}{
		{
			name:      "JSON log",
			line:      `{"message": "request processed", "level": "info"}`,
			filename:  "server.log",
			service:   "api",
			wantJSON:  true,
			wantMsg:   "request processed",
			wantLevel: logattr.SeverityInfo,
		},
		{
			name:      "plain text log with level",
			line:      "2024-01-15 10:30:45 INFO Starting server on port 8080",
			filename:  "server.log",
			service:   "api",
			wantMsg:   "2024-01-15 10:30:45 INFO Starting server on port 8080",
			wantLevel: logattr.SeverityInfo,
		},
		{
			name:      "plain text error",
			line:      "[ERROR] Connection refused",
			filename:  "app.log",
			service:   "myapp",
			wantMsg:   "[ERROR] Connection refused",
			wantLevel: logattr.SeverityError,
		},
		{
			name:      "whitespace before JSON",
			line:      `  {"message": "test", "level": "debug"}`,
			filename:  "server.log",
			service:   "api",
			wantJSON:  true,
			wantMsg:   "test",
			wantLevel: logattr.SeverityDebug,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ParseLine(tc.line, tc.filename, tc.service)

			if result.IsJSON != tc.wantJSON {
				t.Errorf("IsJSON = %v, want %v", result.IsJSON, tc.wantJSON)
			}
			if result.Message != tc.wantMsg {
				t.Errorf("Message = %q, want %q", result.Message, tc.wantMsg)
			}
			if result.Severity != tc.wantLevel {
				t.Errorf("Severity = %q, want %q", result.Severity, tc.wantLevel)
			}
			if result.Source != tc.filename {
				t.Errorf("Source = %q, want %q", result.Source, tc.filename)
			}
			if result.Service != tc.service {
				t.Errorf("Service = %q, want %q", result.Service, tc.service)
			}
		})
	}
}

func TestParsedLogRecord(t *testing.T) {
	parsed := ParseLine(
		`{"message": "token refresh ok", "level": "info", "deployment.environment": "prod"}`,
		"auth-api.log", "auth-api",
	)

	rec, err := parsed.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if rec.Attributes[logattr.KeyServiceName] != "auth-api" {
		t.Errorf("service.name = %v", rec.Attributes[logattr.KeyServiceName])
	}
	if rec.Attributes[logattr.KeyEventDomain] != "auth" {
		t.Errorf("event.domain = %v, want auth", rec.Attributes[logattr.KeyEventDomain])
	}
	if rec.Attributes["log.source"] != "auth-api.log" {
		t.Errorf("log.source = %v", rec.Attributes["log.source"])
	}
	if rec.Severity != logattr.SeverityInfo {
		t.Errorf("severity = %q", rec.Severity)
	}
}

func TestParsedLogRecord_ErrorLevelMapsToErrorType(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	parsed := ParseLine("[ERROR] db connection lost", "worklist.log", "worklist")

	rec, err := parsed.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Attributes[logattr.KeyEventType] != string(logattr.TypeError) {
		t.Errorf("event.type = %v, want error", rec.Attributes[logattr.KeyEventType])
	}
	if rec.Attributes[logattr.KeyEventDomain] != "worklist" {
		t.Errorf("event.domain = %v, want worklist", rec.Attributes[logattr.KeyEventDomain])
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity logattr.Severity
		expected string
	}{
		{logattr.SeverityTrace, "\033[90m"},
		{logattr.SeverityDebug, "\033[36m"},
		{logattr.SeverityInfo, "\033[32m"},
		{logattr.SeverityWarn, "\033[33m"},
		{logattr.SeverityError, "\033[31m"},
		{logattr.SeverityFatal, "\033[35m"},
	}

	for _, tc := range tests {
		t.Run(string(tc.severity), func(t *testing.T) {
			if got := SeverityColor(tc.severity); got != tc.expected {
				t.Errorf("SeverityColor(%s) = %q, want %q", tc.severity, got, tc.expected)
			}
		})
	}
}
