// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package index provides Elasticsearch data stream naming for the elkhound
// logs pipeline, following the type-dataset-namespace convention.
package index

import (
	"fmt"
	"strings"
)

// Index patterns for OTel data streams.
const (
	Logs    = "logs-*"
	Traces  = "traces-*"
	Metrics = "metrics-*"

	// All is the combined pattern for querying all signal types.
	All = Logs + "," + Traces + "," + Metrics
)

// Data stream naming defaults.
const (
	TypeLogs         = "logs"
	DefaultDataset   = "generic"
	DefaultNamespace = "default"

	// maxPartLength caps dataset and namespace per the ES data stream
	// naming restrictions (full name must stay under 255 bytes; 100 per
	// part keeps us well clear).
	maxPartLength = 100
)

// disallowed characters for dataset and namespace parts.
var partReplacer = strings.NewReplacer(
	"\\", "_", "/", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
	" ", "_", ",", "_", "#", "_", ":", "_", "-", "_",
)

// DataStream returns the logs data stream name for a dataset and namespace,
// sanitizing both parts. Empty parts fall back to the defaults.
func DataStream(dataset, namespace string) string {
	return fmt.Sprintf("%s-%s-%s", TypeLogs, Sanitize(dataset, DefaultDataset), Sanitize(namespace, DefaultNamespace))
}

// Pattern returns the index pattern matching every namespace of a dataset.
func Pattern(dataset string) string {
	return fmt.Sprintf("%s-%s-*", TypeLogs, Sanitize(dataset, DefaultDataset))
}

// Sanitize lowercases a data stream name part and replaces characters
// Elasticsearch rejects. Empty or all-invalid input yields the fallback.
func Sanitize(part, fallback string) string {
	part = strings.ToLower(strings.TrimSpace(part))
	part = partReplacer.Replace(part)
	part = strings.Trim(part, "_")
	if part == "" {
		return fallback
	}
	if len(part) > maxPartLength {
		part = part[:maxPartLength]
	}
	return part
}
