// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/elkhound-dev/elkhound/internal/logattr"
)

// Shipper bulk-indexes validated log records into a data stream.
type Shipper struct {
	indexer esutil.BulkIndexer
	failed  atomic.Int64
}

// ShipperConfig configures the bulk shipper.
type ShipperConfig struct {
	DataStream    string
	FlushBytes    int           // default 1MB
	FlushInterval time.Duration // default 2s
	Workers       int           // default 1
}

// NewShipper creates a bulk shipper writing to the given data stream.
func (c *Client) NewShipper(cfg ShipperConfig) (*Shipper, error) {
	if cfg.DataStream == "" {
		return nil, fmt.Errorf("shipper: data stream name required")
	}
	if cfg.FlushBytes == 0 {
		cfg.FlushBytes = 1 << 20
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	s := &Shipper{}
	indexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        c.es,
		Index:         cfg.DataStream,
		FlushBytes:    cfg.FlushBytes,
		FlushInterval: cfg.FlushInterval,
		NumWorkers:    cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("create bulk indexer: %w", err)
	}
	s.indexer = indexer
	return s, nil
}

// Ship queues one validated record for indexing. Data streams only accept
// the create op type.
func (s *Shipper) Ship(ctx context.Context, rec logattr.Record) error {
	doc, err := json.Marshal(rec.Document())
	if err != nil {
		return fmt.Errorf("marshal log document: %w", err)
	}

	return s.indexer.Add(ctx, esutil.BulkIndexerItem{
		Action: "create",
		Body:   bytes.NewReader(doc),
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			s.failed.Add(1)
		},
	})
}

// Failed returns the number of documents rejected by the bulk API so far.
func (s *Shipper) Failed() int64 {
	return s.failed.Load()
}

// Close flushes pending documents and stops the indexer.
func (s *Shipper) Close(ctx context.Context) error {
	if err := s.indexer.Close(ctx); err != nil {
		return fmt.Errorf("close bulk indexer: %w", err)
	}
	if n := s.failed.Load(); n > 0 {
		return fmt.Errorf("%d documents failed to index", n)
	}
	return nil
}
