// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Tail retrieves the most recent logs, optionally filtered.
func (c *Client) Tail(ctx context.Context, opts TailOptions) (*SearchResult, error) {
	query := buildTailQuery(opts)

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	sortOrder := "@timestamp:desc"
	if opts.SortAsc {
		sortOrder = "@timestamp:asc"
	}

	size := opts.Size
	if size <= 0 {
		size = 10
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
		c.es.Search.WithSize(size),
		c.es.Search.WithSort(sortOrder),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		respBody, _ := io.ReadAll(res.Body)
		return nil, formatQueryError(res.Status(), respBody, queryJSON)
	}

	return parseSearchResponse(res.Body)
}

// buildTailQuery constructs an ES query for tailing logs.
func buildTailQuery(opts TailOptions) map[string]any {
	fb := newFilterBuilder()

	if opts.Lookback != "" {
		fb.addTimeRangeFilter(opts.Lookback, "")
	} else if !opts.Since.IsZero() {
		fb.addTimeRangeFilter(opts.Since.Format(time.RFC3339), "")
	}

	fb.addServiceFilter(opts.Service)
	fb.addLevelFilter(opts.Level)
	fb.addDomainFilter(opts.Domain)
	fb.addQueryString(opts.Query)

	return fb.build()
}

// parseSearchResponse decodes the ES search response into a SearchResult.
func parseSearchResponse(body io.Reader) (*SearchResult, error) {
	var response struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{
		Total: response.Hits.Total.Value,
		Logs:  make([]LogEntry, 0, len(response.Hits.Hits)),
	}
	for _, hit := range response.Hits.Hits {
		result.Logs = append(result.Logs, extractLogEntry(hit.Source))
	}
	return result, nil
}

// extractLogEntry extracts a LogEntry from a raw Elasticsearch document.
// It tolerates both OTel semconv documents (body.text, severity_text,
// resource.attributes.*) and the flat ECS-style documents elkhound ships,
// never failing: in the worst case everything lands in Attributes.
func extractLogEntry(raw map[string]any) LogEntry {
	entry := LogEntry{
		Attributes: make(map[string]any),
		Timestamp:  time.Now(),
	}

	if ts, ok := raw["@timestamp"].(string); ok {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
			if t, err := time.Parse(layout, ts); err == nil {
				entry.Timestamp = t
				break
			}
		}
		delete(raw, "@timestamp")
	}

	// Message: body.text (OTel) > body > message
	if body, ok := raw["body"].(map[string]any); ok {
		if text, ok := body["text"].(string); ok {
			entry.Message = text
			delete(raw, "body")
		}
	}
	if entry.Message == "" {
		if body, ok := raw["body"].(string); ok {
			entry.Message = body
			delete(raw, "body")
		}
	}
	if msg, ok := raw["message"].(string); ok {
		if entry.Message == "" {
			entry.Message = msg
		}
		delete(raw, "message")
	}

	entry.Level = firstString(raw, "severity_text", "log.level", "level")
	entry.TraceID = firstString(raw, "trace_id")
	entry.SpanID = firstString(raw, "span_id")
	entry.EventDomain = firstString(raw, "event.domain")
	entry.EventType = firstString(raw, "event.type")
	entry.Environment = firstString(raw, "deployment.environment")

	entry.ServiceName = firstString(raw, "service.name")
	if entry.ServiceName == "" {
		if resource, ok := raw["resource"].(map[string]any); ok {
			if attrs, ok := resource["attributes"].(map[string]any); ok {
				if name, ok := attrs["service.name"].(string); ok {
					entry.ServiceName = name
				}
			}
		}
	}

	// Remaining fields become attributes.
	for k, v := range raw {
		entry.Attributes[k] = v
	}

	return entry
}

// firstString pops the first present string value among the given keys.
func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok {
			delete(raw, key)
			return v
		}
	}
	return ""
}

// formatQueryError builds a detailed error including response status, body,
// and the pretty-printed query.
func formatQueryError(status string, body []byte, queryJSON []byte) error {
	var prettyQuery bytes.Buffer
	_ = json.Indent(&prettyQuery, queryJSON, "", "  ")
	if prettyQuery.Len() == 0 {
		prettyQuery.Write(queryJSON)
	}
	return fmt.Errorf("search failed: %s\nError: %s\n\nQuery:\n%s", status, string(body), prettyQuery.String())
}
