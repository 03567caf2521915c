// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package logattr

import (
	"time"
)

// Record is a single log record that has passed (or is passing) through the
// attribute contract. It is the unit all exporters consume.
type Record struct {
	Timestamp  time.Time
	Severity   Severity
	Body       string
	Attributes map[string]any
	TraceID    string
	SpanID     string
	Redacted   bool
}

// Process runs the full contract pipeline on a raw body and attribute map:
// enrichment, validation, and body redaction. On validation failure the
// enriched attributes are returned alongside the error so callers can log
// what was rejected.
func Process(body string, attrs map[string]any) (Record, error) {
	enriched := Enrich(attrs)

	cleaned, err := Validate(enriched)
	if err != nil {
		return Record{Body: body, Attributes: cleaned}, err
	}

	rec := Record{
		Timestamp:  time.Now().UTC(),
		Body:       body,
		Attributes: cleaned,
	}
	if level, ok := cleaned[KeyLogLevel].(string); ok {
		rec.Severity = Severity(level)
	}
	if ContainsForbidden(body) {
		rec.Body = Redact(body)
		rec.Redacted = true
	}
	return rec, nil
}

// Document renders the record as an Elasticsearch/Kafka document. Attribute
// keys keep their dotted ECS-style names at the top level, matching the
// logs data stream mappings.
func (r Record) Document() map[string]any {
	doc := make(map[string]any, len(r.Attributes)+5)
	for k, v := range r.Attributes {
		doc[k] = v
	}
	doc["@timestamp"] = r.Timestamp.Format(time.RFC3339Nano)
	doc["message"] = r.Body
	if r.TraceID != "" {
		doc["trace_id"] = r.TraceID
	}
	if r.SpanID != "" {
		doc["span_id"] = r.SpanID
	}
	return doc
}
