// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// Client wraps the Elasticsearch client with elkhound-specific functionality.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// LogEntry represents a single log document from Elasticsearch.
type LogEntry struct {
	Timestamp   time.Time
	Message     string
	Level       string
	ServiceName string
	Environment string
	EventDomain string
	EventType   string
	TraceID     string
	SpanID      string
	Attributes  map[string]any
}

// SearchResult contains the results of a log query.
type SearchResult struct {
	Logs  []LogEntry
	Total int64
}

// TailOptions configures the tail query.
type TailOptions struct {
	Size     int
	Service  string
	Level    string
	Domain   string
	Since    time.Time
	Lookback string // ES time range string like "now-1h", or "" for no filter
	SortAsc  bool   // true = oldest first, false = newest first (default)
	Query    string // optional full-text query over message fields
}

// ILMPolicy describes the lifecycle applied to the logs data stream:
// rollover while hot, delete after a retention period.
type ILMPolicy struct {
	RolloverMaxAge  string // e.g. "1d"
	RolloverMaxSize string // e.g. "10gb" (max_primary_shard_size)
	DeleteMinAge    string // e.g. "7d"
}

// IndexTemplate describes the index template backing the logs data stream.
type IndexTemplate struct {
	IndexPatterns []string
	ILMPolicy     string
	Shards        int
	Replicas      int
	Priority      int
}
