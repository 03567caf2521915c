// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Command elkhound drives a local ELK + Kafka + OTel observability stack:
// compose orchestration, Elasticsearch provisioning, a demo instrumented
// service, log generation, and file-watch log shipping.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
