// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// PutILMPolicy installs (or replaces) an index lifecycle policy: rollover
// while hot, delete after the retention period.
func (c *Client) PutILMPolicy(ctx context.Context, name string, policy ILMPolicy) error {
	if _, err := c.perform(ctx, http.MethodPut, "/_ilm/policy/"+url.PathEscape(name), buildILMPolicyBody(policy)); err != nil {
		return fmt.Errorf("put ILM policy %q: %w", name, err)
	}
	return nil
}

func buildILMPolicyBody(policy ILMPolicy) map[string]any {
	rollover := map[string]any{}
	if policy.RolloverMaxAge != "" {
		rollover["max_age"] = policy.RolloverMaxAge
	}
	if policy.RolloverMaxSize != "" {
		rollover["max_primary_shard_size"] = policy.RolloverMaxSize
	}

	return map[string]any{
		"policy": map[string]any{
			"phases": map[string]any{
				"hot": map[string]any{
					"actions": map[string]any{
						"rollover": rollover,
					},
				},
				"delete": map[string]any{
					"min_age": policy.DeleteMinAge,
					"actions": map[string]any{
						"delete": map[string]any{},
					},
				},
			},
		},
	}
}

// logsMappings are the ECS-ish mappings for the logs data stream. Attribute
// keys keep their dotted names at the top level of each document.
func logsMappings() map[string]any {
	keyword := map[string]any{"type": "keyword"}
	return map[string]any{
		"properties": map[string]any{
			"@timestamp": map[string]any{"type": "date"},
			"message":    map[string]any{"type": "text"},
			"log": map[string]any{
				"properties": map[string]any{
					"level": keyword,
				},
			},
			"service": map[string]any{
				"properties": map[string]any{
					"name":      keyword,
					"version":   keyword,
					"namespace": keyword,
				},
			},
			"deployment": map[string]any{
				"properties": map[string]any{
					"environment": keyword,
				},
			},
			"event": map[string]any{
				"properties": map[string]any{
					"domain":   keyword,
					"type":     keyword,
					"category": keyword,
					"duration": map[string]any{"type": "long"},
				},
			},
			"host": map[string]any{
				"properties": map[string]any{
					"name": keyword,
				},
			},
			"trace_id":       keyword,
			"span_id":        keyword,
			"correlation_id": keyword,
		},
	}
}

// PutIndexTemplate installs (or replaces) the index template backing the
// logs data stream.
func (c *Client) PutIndexTemplate(ctx context.Context, name string, tmpl IndexTemplate) error {
	if len(tmpl.IndexPatterns) == 0 {
		return fmt.Errorf("index template %q: at least one index pattern required", name)
	}

	if _, err := c.perform(ctx, http.MethodPut, "/_index_template/"+url.PathEscape(name), buildIndexTemplateBody(tmpl)); err != nil {
		return fmt.Errorf("put index template %q: %w", name, err)
	}
	return nil
}

func buildIndexTemplateBody(tmpl IndexTemplate) map[string]any {
	settings := map[string]any{
		"number_of_shards":   tmpl.Shards,
		"number_of_replicas": tmpl.Replicas,
	}
	if tmpl.ILMPolicy != "" {
		settings["index.lifecycle.name"] = tmpl.ILMPolicy
	}

	priority := tmpl.Priority
	if priority == 0 {
		// Above the built-in logs-*-* template (priority 100).
		priority = 200
	}

	return map[string]any{
		"index_patterns": tmpl.IndexPatterns,
		"data_stream":    map[string]any{},
		"priority":       priority,
		"template": map[string]any{
			"settings": settings,
			"mappings": logsMappings(),
		},
	}
}

// CreateDataStream creates the named data stream. The matching index
// template must already exist.
func (c *Client) CreateDataStream(ctx context.Context, name string) error {
	res, err := c.es.Indices.CreateDataStream(
		name,
		c.es.Indices.CreateDataStream.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create data stream %q: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create data stream %q failed: %s - %s", name, res.Status(), string(body))
	}
	return nil
}

// DataStreamExists reports whether the named data stream exists.
func (c *Client) DataStreamExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.GetDataStream(
		c.es.Indices.GetDataStream.WithContext(ctx),
		c.es.Indices.GetDataStream.WithName(name),
	)
	if err != nil {
		return false, fmt.Errorf("get data stream %q: %w", name, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("get data stream %q failed: %s - %s", name, res.Status(), string(body))
	}
	return true, nil
}

// DeleteDataStream removes the named data stream and its backing indices.
func (c *Client) DeleteDataStream(ctx context.Context, name string) error {
	res, err := c.es.Indices.DeleteDataStream(
		[]string{name},
		c.es.Indices.DeleteDataStream.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete data stream %q: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("delete data stream %q failed: %s - %s", name, res.Status(), string(body))
	}
	return nil
}

// Rollover forces a rollover of the data stream's write index.
func (c *Client) Rollover(ctx context.Context, name string) error {
	if _, err := c.perform(ctx, http.MethodPost, "/"+url.PathEscape(name)+"/_rollover", nil); err != nil {
		return fmt.Errorf("rollover %q: %w", name, err)
	}
	return nil
}
