// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "strings"

// stripURLScheme removes an http:// or https:// prefix from an endpoint.
// OTLP exporters want bare host:port, not a full URL.
func stripURLScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return endpoint
}
