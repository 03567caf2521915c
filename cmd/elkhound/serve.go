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
	"github.com/elkhound-dev/elkhound/internal/kafkaout"
	"github.com/elkhound-dev/elkhound/internal/otlp"
	"github.com/elkhound-dev/elkhound/internal/server"
)

var serveShipES bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the instrumented demo log service",
	Long: `Runs an HTTP service whose every request produces a validated log record.

Records flow through the attribute contract (mandatory attributes,
allowed values, forbidden keywords, PII redaction) and are fanned out to
the configured exporters: OTLP always, Kafka when enabled, and
Elasticsearch bulk indexing with --ship-es.

Endpoints:
  GET  /healthz      liveness probe
  GET  /api/logs     emit a log from query params (message, level, domain)
  POST /api/logs     emit a structured log ({"body": ..., "attributes": {...}})

Examples:
  elkhound serve
  elkhound serve --addr :9090 --service-name auth-api --domain auth
  elkhound serve --kafka --kafka-brokers localhost:9092
  elkhound serve --ship-es`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", config.DefaultServeAddr, "Listen address")
	serveCmd.Flags().String("service-name", config.DefaultServiceName, "service.name for emitted logs")
	serveCmd.Flags().String("service-version", "", "service.version for emitted logs")
	serveCmd.Flags().String("environment", "", "deployment.environment for emitted logs")
	serveCmd.Flags().String("domain", config.DefaultEventDomain, "Default event.domain for emitted logs")
	serveCmd.Flags().Bool("kafka", false, "Also publish records to Kafka")
	serveCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka broker addresses")
	serveCmd.Flags().String("kafka-topic", kafkaout.DefaultTopic, "Kafka topic for log records")
	serveCmd.Flags().BoolVar(&serveShipES, "ship-es", false, "Also bulk-index records into the logs data stream")

	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, ok := config.FromContext(ctx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	shutdown, err := server.SetupTracing(ctx, server.TraceConfig{
		ServiceName:    cfg.Serve.ServiceName,
		ServiceVersion: cfg.Serve.ServiceVersion,
		Environment:    cfg.Serve.Environment,
		OTLPEndpoint:   stripURLScheme(cfg.OTLP.Endpoint),
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			fmt.Printf("Warning: trace shutdown: %v\n", err)
		}
	}()

	var sinks []server.Sink

	otlpClient, err := otlp.New(otlp.Config{
		Endpoint:    stripURLScheme(cfg.OTLP.Endpoint),
		ServiceName: cfg.Serve.ServiceName,
		Insecure:    cfg.OTLP.Insecure || !strings.HasPrefix(cfg.OTLP.Endpoint, "https://"),
	})
	if err != nil {
		return fmt.Errorf("create OTLP client: %w", err)
	}
	defer otlpClient.Close(context.Background())
	sinks = append(sinks, server.OTLPSink{Client: otlpClient})

	if cfg.Kafka.Enabled {
		producer, err := kafkaout.NewProducer(kafkaout.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			return fmt.Errorf("create Kafka producer: %w", err)
		}
		defer producer.Close()
		sinks = append(sinks, server.KafkaSink{Producer: producer})
		fmt.Printf("Kafka fan-out enabled: topic %s on %s\n", producer.Topic(), strings.Join(cfg.Kafka.Brokers, ","))
	}

	if serveShipES {
		stream := index.DataStream(cfg.Provision.Dataset, cfg.Provision.Namespace)
		client, err := es.NewFromConfig(cfg.ES.URL, stream, cfg.ES.APIKey, cfg.ES.Username, cfg.ES.Password)
		if err != nil {
			return fmt.Errorf("create ES client: %w", err)
		}
		shipper, err := client.NewShipper(es.ShipperConfig{DataStream: stream})
		if err != nil {
			return fmt.Errorf("create ES shipper: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shipper.Close(sctx); err != nil {
				fmt.Printf("Warning: shipper close: %v\n", err)
			}
			if failed := shipper.Failed(); failed > 0 {
				fmt.Printf("Warning: %d records failed to index\n", failed)
			}
		}()
		sinks = append(sinks, server.ShipperSink{Shipper: shipper})
		fmt.Printf("Elasticsearch fan-out enabled: data stream %s\n", stream)
	}

	srv := server.New(server.Config{
		Addr:           cfg.Serve.Addr,
		ServiceName:    cfg.Serve.ServiceName,
		ServiceVersion: cfg.Serve.ServiceVersion,
		Environment:    cfg.Serve.Environment,
		Domain:         cfg.Serve.Domain,
	}, server.NewFanout(sinks...))

	fmt.Printf("Demo service %s listening on %s (OTLP: %s)\n",
		cfg.Serve.ServiceName, cfg.Serve.Addr, cfg.OTLP.Endpoint)
	fmt.Println("Press Ctrl+C to stop.")

	return srv.Run(ctx)
}
