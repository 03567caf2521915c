// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package es wraps the official Elasticsearch client with the operations
// elkhound needs: pinging, tailing logs, clearing data, provisioning ILM
// policies, index templates, and data streams, and bulk-shipping validated
// log documents.
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

// New creates a new Elasticsearch client.
func New(addresses []string, index string) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Client{
		es:    es,
		index: index,
	}, nil
}

// NewFromConfig creates a client with optional authentication. An API key
// takes precedence over basic auth.
func NewFromConfig(url, index, apiKey, username, password string) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{url},
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	} else if username != "" {
		cfg.Username = username
		cfg.Password = password
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Client{
		es:    es,
		index: index,
	}, nil
}

// SetIndex changes the index pattern.
func (c *Client) SetIndex(index string) {
	c.index = index
}

// GetIndex returns the current index pattern.
func (c *Client) GetIndex() string {
	return c.index
}

// Ping checks if Elasticsearch is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping ES: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ES ping failed: %s", res.Status())
	}

	return nil
}

// Count returns the number of documents matching the index pattern.
func (c *Client) Count(ctx context.Context) (int64, error) {
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("count failed: %s - %s", res.Status(), string(body))
	}

	var response struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to parse count response: %w", err)
	}
	return response.Count, nil
}

// Clear deletes all logs from the index.
func (c *Client) Clear(ctx context.Context) (int64, error) {
	query := map[string]any{
		"query": map[string]any{
			"match_all": map[string]any{},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.DeleteByQuery(
		[]string{c.index},
		bytes.NewReader(queryJSON),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete logs: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("delete failed: %s - %s", res.Status(), string(body))
	}

	var response struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return response.Deleted, nil
}

// perform executes a raw request against the ES transport. Used for APIs
// the typed esapi surface does not cover cleanly (ILM, rollover).
func (c *Client) perform(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.es.Transport.Perform(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 400 {
		return respBody, fmt.Errorf("%s %s failed: %s - %s", method, path, res.Status, string(respBody))
	}
	return respBody, nil
}
