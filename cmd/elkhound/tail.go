// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/elkhound-dev/elkhound/internal/config"
	"github.com/elkhound-dev/elkhound/internal/es"
	"github.com/elkhound-dev/elkhound/internal/logattr"
	"github.com/elkhound-dev/elkhound/internal/watch"
)

var (
	tailDomain   string
	tailLookback string
	tailSize     int
	tailQuery    string
	tailAsc      bool
	tailJSON     bool
	tailNoColor  bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent logs from Elasticsearch",
	Long: `Queries the logs index and prints the most recent entries.

Examples:
  elkhound tail
  elkhound tail --service auth-api --level ERROR
  elkhound tail --domain worklist --lookback 15m
  elkhound tail --query "connection refused" --size 50
  elkhound tail --json | jq .`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTail(cmd.Context())
	},
}

func init() {
	tailCmd.Flags().StringVarP(&serviceFlag, "service", "s", "", "Filter by service.name")
	tailCmd.Flags().StringVarP(&levelFlag, "level", "l", "", "Filter by log level (DEBUG, INFO, WARN, ERROR)")
	tailCmd.Flags().StringVar(&tailDomain, "domain", "", "Filter by event.domain")
	tailCmd.Flags().StringVar(&tailLookback, "lookback", "", "Time range like 15m, 1h, 24h (default: no limit)")
	tailCmd.Flags().IntVarP(&tailSize, "size", "n", 20, "Number of entries to show")
	tailCmd.Flags().StringVarP(&tailQuery, "query", "q", "", "Full-text query over log messages")
	tailCmd.Flags().BoolVar(&tailAsc, "asc", false, "Oldest first instead of newest first")
	tailCmd.Flags().BoolVar(&tailJSON, "json", false, "Print entries as JSON lines")
	tailCmd.Flags().BoolVar(&tailNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(tailCmd)
}

func runTail(parentCtx context.Context) error {
	cfg, ok := config.FromContext(parentCtx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	client, err := es.NewFromConfig(cfg.ES.URL, cfg.ES.Index, cfg.ES.APIKey, cfg.ES.Username, cfg.ES.Password)
	if err != nil {
		return fmt.Errorf("failed to create ES client: %w", err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, 30*time.Second)
	defer cancel()

	lookback := tailLookback
	if lookback != "" {
		lookback = "now-" + lookback
	}

	result, err := client.Tail(ctx, es.TailOptions{
		Size:     tailSize,
		Service:  serviceFlag,
		Level:    levelFlag,
		Domain:   tailDomain,
		Lookback: lookback,
		SortAsc:  tailAsc,
		Query:    tailQuery,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w\nIs the stack running? Try 'elkhound up'", err)
	}

	if len(result.Logs) == 0 {
		fmt.Println("No logs found.")
		return nil
	}

	if tailJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, entry := range result.Logs {
			if err := enc.Encode(entry.Attributes); err != nil {
				return err
			}
		}
		return nil
	}

	for _, entry := range result.Logs {
		printLogEntry(entry)
	}
	fmt.Printf("\nShowing %d of %d logs.\n", len(result.Logs), result.Total)
	return nil
}

func printLogEntry(entry es.LogEntry) {
	sev := logattr.ParseSeverity(entry.Level)

	ts := entry.Timestamp.Local().Format("15:04:05.000")
	service := entry.ServiceName
	if service == "" {
		service = "unknown"
	}

	if tailNoColor {
		fmt.Printf("%s %-5s [%s] %s\n", ts, sev, service, entry.Message)
		return
	}
	fmt.Printf("\033[90m%s\033[0m %s%-5s%s [%s] %s\n",
		ts, watch.SeverityColor(sev), sev, watch.ColorReset(), service, entry.Message)
}
