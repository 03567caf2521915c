// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package watch tails log files, parses each line, and feeds the result
// through the attribute contract before export.
package watch

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// ParsedLog represents a parsed log line.
type ParsedLog struct {
	Timestamp  time.Time
	Severity   logattr.Severity
	Message    string
	Service    string
	Source     string // filename
	Attributes map[string]any
	RawLine    string
	IsJSON     bool
}

// Common timestamp patterns.
var timestampPatterns = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z`), time.RFC3339Nano},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`), time.RFC3339},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+`), "2006-01-02 15:04:05.000"},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`), "2006-01-02 15:04:05"},
	{regexp.MustCompile(`\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}`), "2006/01/02 15:04:05"},
}

// Level detection patterns, most severe first so "ERROR retrying" does not
// classify as INFO.
var levelPatterns = []struct {
	pattern  *regexp.Regexp
	severity logattr.Severity
}{
	{regexp.MustCompile(`(?i)\b(FATAL|CRITICAL)\b`), logattr.SeverityFatal},
	{regexp.MustCompile(`(?i)\b(ERROR|ERR)\b`), logattr.SeverityError},
	{regexp.MustCompile(`(?i)\b(WARN(?:ING)?)\b`), logattr.SeverityWarn},
	{regexp.MustCompile(`(?i)\b(INFO)\b`), logattr.SeverityInfo},
	{regexp.MustCompile(`(?i)\b(DEBUG)\b`), logattr.SeverityDebug},
	{regexp.MustCompile(`(?i)\b(TRACE)\b`), logattr.SeverityTrace},
}

// ParseLine parses a single log line. JSON lines are decoded field by field;
// plain text falls back to timestamp and level heuristics.
func ParseLine(line, filename, service string) ParsedLog {
	parsed := ParsedLog{
		Timestamp:  time.Now(),
		Severity:   logattr.SeverityInfo,
		RawLine:    line,
		Source:     filename,
		Service:    service,
		Attributes: make(map[string]any),
	}

	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		if jsonLog := parseJSONLog(line); jsonLog != nil {
			parsed.IsJSON = true
			parsed.Message = jsonLog.Message
			parsed.Severity = jsonLog.Severity
			parsed.Timestamp = jsonLog.Timestamp
			parsed.Attributes = jsonLog.Attributes
			return parsed
		}
	}

	parsed.Message = line
	parsed.Timestamp = parseTimestamp(line)
	parsed.Severity = parseLevel(line)

	return parsed
}

// Record runs the parsed line through the attribute contract. The domain and
// environment are defaulted per service before validation.
func (p ParsedLog) Record() (logattr.Record, error) {
	attrs := make(map[string]any, len(p.Attributes)+6)
	for k, v := range p.Attributes {
		attrs[k] = v
	}
	attrs[logattr.KeyServiceName] = p.Service
	attrs[logattr.KeyLogLevel] = string(p.Severity)
	attrs["log.source"] = p.Source
	if _, ok := attrs[logattr.KeyEventType]; !ok {
		eventType := logattr.TypeAccess
		if p.Severity == logattr.SeverityError || p.Severity == logattr.SeverityFatal {
			eventType = logattr.TypeError
		}
		attrs[logattr.KeyEventType] = string(eventType)
	}
	if _, ok := attrs[logattr.KeyEventDomain]; !ok {
		attrs[logattr.KeyEventDomain] = domainForService(p.Service)
	}

	rec, err := logattr.Process(p.Message, attrs)
	if err != nil {
		return rec, err
	}
	if !p.Timestamp.IsZero() {
		rec.Timestamp = p.Timestamp
	}
	return rec, nil
}

// domainForService guesses an event.domain from service name fragments,
// falling back to the backend dictation domain.
func domainForService(service string) string {
	s := strings.ToLower(service)
	for _, d := range []logattr.EventDomain{
		logattr.DomainDictationFrontend,
		logattr.DomainDictationBackend,
		logattr.DomainWorklist,
		logattr.DomainViewer,
		logattr.DomainSession,
		logattr.DomainAuth,
	} {
		if strings.Contains(s, string(d)) || strings.Contains(string(d), s) {
			return string(d)
		}
	}
	return string(logattr.DomainDictationBackend)
}

// jsonLog holds fields pulled out of a structured line.
type jsonLog struct {
	Message    string
	Severity   logattr.Severity
	Timestamp  time.Time
	Attributes map[string]any
}

func parseJSONLog(line string) *jsonLog {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil
	}

	log := &jsonLog{
		Timestamp: time.Now(),
		Severity:  logattr.SeverityInfo,
	}

	for _, key := range []string{"message", "msg", "log", "text", "body"} {
		if v, ok := raw[key].(string); ok {
			log.Message = v
			delete(raw, key)
			break
		}
	}

	for _, key := range []string{"level", "severity", "lvl", "log.level", "loglevel"} {
		if v, ok := raw[key].(string); ok {
			log.Severity = logattr.ParseSeverity(v)
			delete(raw, key)
			break
		}
	}

	for _, key := range []string{"timestamp", "time", "ts", "@timestamp", "datetime"} {
		if v, ok := raw[key]; ok {
			switch t := v.(type) {
			case string:
				if parsed := parseTimestampString(t); !parsed.IsZero() {
					log.Timestamp = parsed
				}
			case float64:
				// Unix timestamp, seconds or milliseconds
				if t > 1e12 {
					log.Timestamp = time.UnixMilli(int64(t))
				} else {
					log.Timestamp = time.Unix(int64(t), 0)
				}
			}
			delete(raw, key)
			break
		}
	}

	log.Attributes = raw
	return log
}

func parseTimestamp(line string) time.Time {
	for _, p := range timestampPatterns {
		if match := p.pattern.FindString(line); match != "" {
			if t, err := time.Parse(p.layout, match); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

func parseTimestampString(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseLevel(line string) logattr.Severity {
	for _, p := range levelPatterns {
		if p.pattern.MatchString(line) {
			return p.severity
		}
	}
	return logattr.SeverityInfo
}

// ServiceFromFilename extracts a service name from a log filename,
// e.g. "server-err.log" -> "server", "api.log" -> "api".
func ServiceFromFilename(filename string) string {
	name := filename
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		name = filename[idx+1:]
	}

	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}

	for _, suffix := range []string{"-err", "-error", "-out", "-info", "-debug", "-log"} {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}

	if name == "" {
		return "unknown"
	}
	return name
}

// SeverityColor returns the ANSI color code for a severity.
func SeverityColor(s logattr.Severity) string {
	switch s {
	case logattr.SeverityTrace:
		return "\033[90m" // Gray
	case logattr.SeverityDebug:
		return "\033[36m" // Cyan
	case logattr.SeverityInfo:
		return "\033[32m" // Green
	case logattr.SeverityWarn:
		return "\033[33m" // Yellow
	case logattr.SeverityError:
		return "\033[31m" // Red
	case logattr.SeverityFatal:
		return "\033[35m" // Magenta
	default:
		return "\033[0m" // Reset
	}
}

// ColorReset returns the ANSI reset code.
func ColorReset() string {
	return "\033[0m"
}
