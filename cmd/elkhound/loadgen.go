// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elkhound-dev/elkhound/internal/config"
	"github.com/elkhound-dev/elkhound/internal/es"
	"github.com/elkhound-dev/elkhound/internal/index"
	"github.com/elkhound-dev/elkhound/internal/loadgen"
	"github.com/elkhound-dev/elkhound/internal/otlp"
)

var loadgenCmd = &cobra.Command{
	Use:   "loadgen",
	Short: "Generate realistic mock logs",
	Long: `Generates mock HTTP, SQL, and cache logs with realistic shapes,
weighted statuses, and latency-driven severities. Every record passes
the attribute contract before it leaves.

Targets:
  file   write NDJSON to --out (default; "-" for stdout)
  otlp   send records over OTLP to the collector
  es     bulk-index records into the logs data stream
  http   drive the demo service's GET /api/logs endpoint

Examples:
  elkhound loadgen --count 500
  elkhound loadgen --target otlp --count 1000 --concurrency 8
  elkhound loadgen --target es --interval 100ms
  elkhound loadgen --target http --out http://localhost:8080 --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadgen(cmd.Context())
	},
}

func init() {
	loadgenCmd.Flags().Int("count", config.DefaultLoadgenCount, "Total records to generate")
	loadgenCmd.Flags().Int("concurrency", config.DefaultLoadgenWorkers, "Concurrent generator workers")
	loadgenCmd.Flags().Duration("interval", 0, "Delay between records per worker (0 = as fast as possible)")
	loadgenCmd.Flags().String("target", "file", "Where to send records: file, otlp, es, http")
	loadgenCmd.Flags().String("out", "", "Output path for file target, or base URL for http target")
	loadgenCmd.Flags().Int64("seed", 0, "Random seed for reproducible output (0 = random)")
	loadgenCmd.Flags().String("service-name", config.DefaultServiceName, "service.name for generated logs")
	loadgenCmd.Flags().String("environment", "", "deployment.environment for generated logs")
	loadgenCmd.Flags().String("domain", config.DefaultEventDomain, "event.domain for generated logs")

	rootCmd.AddCommand(loadgenCmd)
}

func runLoadgen(parentCtx context.Context) error {
	cfg, ok := config.FromContext(parentCtx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	lg := cfg.Loadgen
	sink, desc, err := buildLoadgenSink(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			fmt.Printf("Warning: sink close: %v\n", err)
		}
	}()

	runner := loadgen.Runner{
		Count:       lg.Count,
		Concurrency: lg.Concurrency,
		Interval:    lg.Interval,
		Options: loadgen.Options{
			Seed:        lg.Seed,
			Service:     cfg.Serve.ServiceName,
			Environment: cfg.Serve.Environment,
			Domain:      cfg.Serve.Domain,
		},
	}

	fmt.Printf("Generating %d records (%d workers) -> %s\n", lg.Count, lg.Concurrency, desc)

	start := time.Now()
	if err := runner.Run(parentCtx, sink); err != nil {
		return fmt.Errorf("loadgen: %w", err)
	}
	elapsed := time.Since(start)

	rate := float64(lg.Count) / elapsed.Seconds()
	fmt.Printf("Done: %d records in %s (%.0f/s)\n", lg.Count, elapsed.Round(time.Millisecond), rate)
	return nil
}

// buildLoadgenSink constructs the sink for the configured target and
// returns a human-readable description of where records go.
func buildLoadgenSink(cfg config.Config) (loadgen.Sink, string, error) {
	lg := cfg.Loadgen

	switch lg.Target {
	case "file":
		out := lg.Out
		if out == "" {
			out = "mock_logs.ndjson"
		}
		sink, err := loadgen.NewFileSink(out)
		if err != nil {
			return nil, "", fmt.Errorf("open output: %w", err)
		}
		if out == "-" {
			return sink, "stdout", nil
		}
		return sink, out, nil

	case "otlp":
		client, err := otlp.New(otlp.Config{
			Endpoint:    stripURLScheme(cfg.OTLP.Endpoint),
			ServiceName: cfg.Serve.ServiceName,
			Insecure:    cfg.OTLP.Insecure || !strings.HasPrefix(cfg.OTLP.Endpoint, "https://"),
		})
		if err != nil {
			return nil, "", fmt.Errorf("create OTLP client: %w", err)
		}
		return loadgen.EmitterSink{Emitter: client, Closer: client.Close}, "otlp://" + stripURLScheme(cfg.OTLP.Endpoint), nil

	case "es":
		stream := index.DataStream(cfg.Provision.Dataset, cfg.Provision.Namespace)
		client, err := es.NewFromConfig(cfg.ES.URL, stream, cfg.ES.APIKey, cfg.ES.Username, cfg.ES.Password)
		if err != nil {
			return nil, "", fmt.Errorf("create ES client: %w", err)
		}
		shipper, err := client.NewShipper(es.ShipperConfig{DataStream: stream})
		if err != nil {
			return nil, "", fmt.Errorf("create ES shipper: %w", err)
		}
		return loadgen.ShipperSink{Shipper: shipper, Closer: shipper.Close}, "es data stream " + stream, nil

	case "http":
		base := lg.Out
		if base == "" || !strings.Contains(base, "://") {
			base = "http://localhost" + cfg.Serve.Addr
		}
		return loadgen.NewHTTPSink(base), base + "/api/logs", nil

	default:
		return nil, "", fmt.Errorf("unknown loadgen target %q (want file, otlp, es, or http)", lg.Target)
	}
}
