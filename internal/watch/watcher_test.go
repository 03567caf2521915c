// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

func TestSplitLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single line no newline", input: "line1", expected: []string{"line1"}},
		{name: "single line with newline", input: "line1\n", expected: []string{"line1"}},
		{name: "multiple lines", input: "line1\nline2\n", expected: []string{"line1", "line2"}},
		{name: "windows CRLF", input: "line1\r\nline2\r\n", expected: []string{"line1", "line2"}},
		{name: "mixed newlines", input: "line1\nline2\r\nline3", expected: []string{"line1", "line2", "line3"}},
		{name: "empty lines preserved", input: "line1\n\nline3\n", expected: []string{"line1", "", "line3"}},
		{name: "trailing partial", input: "line1\npartial", expected: []string{"line1", "partial"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := splitLines(tc.input)
			if len(got) != len(tc.expected) {
				t.Fatalf("splitLines(%q) length = %d, want %d\ngot:  %#v\nwant: %#v",
					tc.input, len(got), len(tc.expected), got, tc.expected)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Fatalf("splitLines(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.expected[i])
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{name: "shorter than max", input: "short", max: 10, expected: "short"},
		{name: "exact length", input: "exact", max: 5, expected: "exact"},
		{name: "needs truncation", input: "toolong", max: 5, expected: "to..."},
		{name: "empty string", input: "", max: 5, expected: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := truncate(tc.input, tc.max)
			if got != tc.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.expected)
			}
		})
	}
}

func TestFormatLog(t *testing.T) {
	t.Parallel()

	base := ParsedLog{
		Timestamp: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		Severity:  logattr.SeverityInfo,
		Message:   "hello world",
		Service:   "myservice",
		Source:    "/var/log/app.log",
	}

	tests := []struct {
		name         string
		log          ParsedLog
		noColor      bool
		showFilename bool
		wantParts    []string
		notContains  []string
	}{
		{
			name:         "no color with filename",
			log:          base,
			noColor:      true,
			showFilename: true,
			wantParts:    []string{"[app.log", "10:30:45.000", "INFO", "hello world"},
			notContains:  []string{"\033["},
		},
		{
			name:         "no color without filename",
			log:          base,
			noColor:      true,
			showFilename: false,
			wantParts:    []string{"10:30:45.000", "INFO", "hello world"},
			notContains:  []string{"[app.log", "\033["},
		},
		{
			name:         "color output includes ANSI",
			log:          base,
			noColor:      false,
			showFilename: false,
			wantParts:    []string{SeverityColor(logattr.SeverityInfo), "INFO", "hello world", ColorReset()},
		},
		{
			name:         "error level",
			log:          ParsedLog{Timestamp: base.Timestamp, Severity: logattr.SeverityError, Message: "oops"},
			noColor:      false,
			showFilename: false,
			wantParts:    []string{SeverityColor(logattr.SeverityError), "ERROR", "oops"},
		},
		{
			name:         "long filename truncates",
			log:          ParsedLog{Timestamp: base.Timestamp, Severity: logattr.SeverityInfo, Message: "msg", Source: "/path/to/very-long-filename.log"},
			noColor:      true,
			showFilename: true,
			wantParts:    []string{"[very-long-fi...", "msg"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := FormatLog(tc.log, tc.noColor, tc.showFilename)
			for _, part := range tc.wantParts {
				if !strings.Contains(out, part) {
					t.Errorf("FormatLog output missing %q\ngot: %q", part, out)
				}
			}
			for _, part := range tc.notContains {
				if strings.Contains(out, part) {
					t.Errorf("FormatLog output should not contain %q\ngot: %q", part, out)
				}
			}
		})
	}
}

func TestWatcherNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty file list", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Files: []string{}})
		if err == nil {
			t.Fatal("expected error for empty file list")
		}
		if !strings.Contains(err.Error(), "no files") {
			t.Errorf("error should mention 'no files', got: %v", err)
		}
	})

	t.Run("expands glob patterns", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for _, name := range []string{"a.log", "b.log", "c.txt"} {
			if err := writeFile(filepath.Join(dir, name), "line\n"); err != nil {
				t.Fatalf("setup: %v", err)
			}
		}

		w, err := New(Config{Files: []string{filepath.Join(dir, "*.log")}})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if len(w.Files()) != 2 {
			t.Errorf("Files() = %v, want 2 matches", w.Files())
		}
	})

	t.Run("uses custom service name", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		file := filepath.Join(dir, "app.log")
		if err := writeFile(file, "test\n"); err != nil {
			t.Fatalf("setup: %v", err)
		}

		w, err := New(Config{Files: []string{file}, Service: "custom-service"})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if w.service != "custom-service" {
			t.Errorf("service = %q, want %q", w.service, "custom-service")
		}
	})
}

func TestWatcherAddHandler(t *testing.T) {
	t.Parallel()

	t.Run("multiple handlers called in order", func(t *testing.T) {
		t.Parallel()
		w := &Watcher{}
		order := []int{}
		w.AddHandler(func(ParsedLog) { order = append(order, 1) })
		w.AddHandler(func(ParsedLog) { order = append(order, 2) })
		w.callHandlers(ParsedLog{})
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("handlers called in wrong order: %v", order)
		}
	})

	t.Run("handler receives log data", func(t *testing.T) {
		t.Parallel()
		w := &Watcher{}
		var received ParsedLog
		w.AddHandler(func(log ParsedLog) { received = log })

		sent := ParsedLog{Message: "test message", Severity: logattr.SeverityError}
		w.callHandlers(sent)

		if received.Message != sent.Message || received.Severity != sent.Severity {
			t.Errorf("handler received %+v, want %+v", received, sent)
		}
	})
}

func TestWatcherReadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "auth-api.log")
	content := strings.Join([]string{
		`{"message": "login ok", "level": "info"}`,
		"2024-01-15 10:30:45 ERROR token expired",
		"",
		"plain line",
	}, "\n") + "\n"
	if err := writeFile(file, content); err != nil {
		t.Fatalf("setup: %v", err)
	}

	w, err := New(Config{Files: []string{file}, Oneshot: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var logs []ParsedLog
	w.AddHandler(func(log ParsedLog) { logs = append(logs, log) })

	n, err := w.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if n != 3 {
		t.Fatalf("ReadAll = %d lines, want 3 (empty line skipped)", n)
	}

	if !logs[0].IsJSON || logs[0].Message != "login ok" {
		t.Errorf("first log = %+v", logs[0])
	}
	if logs[1].Severity != logattr.SeverityError {
		t.Errorf("second log severity = %q, want ERROR", logs[1].Severity)
	}
	// Service derived from filename.
	if logs[0].Service != "auth-api" {
		t.Errorf("service = %q, want auth-api", logs[0].Service)
	}
}

func TestWatcherStop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "test.log")
	if err := writeFile(file, "content\n"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	w, err := New(Config{Files: []string{file}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	w.Stop()
	if w.ctx.Err() == nil {
		t.Error("Stop() should cancel the context")
	}
}

// writeFile is a helper to create test files.
func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
