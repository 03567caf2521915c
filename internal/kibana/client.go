// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package kibana provides a client for the Kibana data views API.
package kibana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client handles communication with the Kibana HTTP API.
type Client struct {
	kibanaURL  string
	apiKey     string
	username   string
	password   string
	space      string
	httpClient *http.Client
}

// ClientOptions holds configuration for creating a new Kibana client.
type ClientOptions struct {
	KibanaURL string        // Kibana base URL
	APIKey    string        // API key for authentication
	Username  string        // Username for basic auth
	Password  string        // Password for basic auth
	Space     string        // Kibana space (optional)
	Timeout   time.Duration // Request timeout
}

// NewClient creates a new Kibana client from options.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		kibanaURL: strings.TrimSuffix(opts.KibanaURL, "/"),
		apiKey:    opts.APIKey,
		username:  opts.Username,
		password:  opts.Password,
		space:     opts.Space,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DataView is the attribute set of a Kibana data view.
type DataView struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Title         string `json:"title"`
	TimeFieldName string `json:"timeFieldName,omitempty"`
}

// buildEndpoint constructs the full API endpoint URL, including the space
// prefix when one is configured.
func (c *Client) buildEndpoint(path string) string {
	if c.space != "" {
		return fmt.Sprintf("%s/s/%s%s", c.kibanaURL, url.PathEscape(c.space), path)
	}
	return c.kibanaURL + path
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildEndpoint(path), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("kbn-xsrf", "true")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	} else if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// Status checks that Kibana is up and reports an available state.
func (c *Client) Status(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return fmt.Errorf("failed to reach Kibana: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("kibana not available (status %d): %s", status, string(body))
	}

	var statusResp struct {
		Status struct {
			Overall struct {
				Level string `json:"level"`
			} `json:"overall"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &statusResp); err != nil {
		return fmt.Errorf("failed to parse status response: %w", err)
	}
	if level := statusResp.Status.Overall.Level; level != "" && level != "available" {
		return fmt.Errorf("kibana status is %q", level)
	}
	return nil
}

// FindDataView looks up a data view by its index pattern title. It returns
// the data view ID, or "" when no data view matches.
func (c *Client) FindDataView(ctx context.Context, title string) (string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/data_views", nil)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", fmt.Errorf("list data views failed (status %d): %s", status, string(body))
	}

	var listResp struct {
		DataView []DataView `json:"data_view"`
	}
	if err := json.Unmarshal(body, &listResp); err != nil {
		return "", fmt.Errorf("failed to parse data views response: %w", err)
	}

	for _, dv := range listResp.DataView {
		if dv.Title == title {
			return dv.ID, nil
		}
	}
	return "", nil
}

// EnsureDataView creates a data view for the given index pattern title if one
// does not already exist. It returns the data view ID either way.
func (c *Client) EnsureDataView(ctx context.Context, name, title string) (string, error) {
	if id, err := c.FindDataView(ctx, title); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	req := struct {
		DataView DataView `json:"data_view"`
		Override bool     `json:"override"`
	}{
		DataView: DataView{
			Name:          name,
			Title:         title,
			TimeFieldName: "@timestamp",
		},
	}

	status, body, err := c.do(ctx, http.MethodPost, "/api/data_views/data_view", req)
	if err != nil {
		return "", err
	}
	// Kibana reports duplicate titles as 400, concurrent creates as 409;
	// either way the view exists now.
	if status == http.StatusConflict ||
		(status == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "duplicate")) {
		return c.FindDataView(ctx, title)
	}
	if status >= 400 {
		return "", fmt.Errorf("create data view %q failed (status %d): %s", title, status, string(body))
	}

	var createResp struct {
		DataView DataView `json:"data_view"`
	}
	if err := json.Unmarshal(body, &createResp); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}
	return createResp.DataView.ID, nil
}

// DeleteDataView removes a data view by ID. Missing views are not an error.
func (c *Client) DeleteDataView(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/api/data_views/data_view/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	if status >= 400 && status != http.StatusNotFound {
		return fmt.Errorf("delete data view %q failed (status %d): %s", id, status, string(body))
	}
	return nil
}
