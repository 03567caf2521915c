// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elkhound-dev/elkhound/internal/config"
	"github.com/elkhound-dev/elkhound/internal/kafkaout"
	"github.com/elkhound-dev/elkhound/internal/otlp"
	"github.com/elkhound-dev/elkhound/internal/watch"
)

var watchNoColor bool

var watchCmd = &cobra.Command{
	Use:   "watch [files...]",
	Short: "Watch log files and ship new lines to the collector",
	Long: `Tails log files (glob patterns supported), parses each line (JSON or
plain text), runs it through the attribute contract, and ships it to the
OTLP endpoint. New files matching a glob are picked up automatically.

Examples:
  elkhound watch app.log
  elkhound watch 'logs/*.log'
  elkhound watch app.log --service my-api --lines 50
  elkhound watch app.log --no-send        # parse and print only
  elkhound watch 'logs/*.log' --oneshot   # import existing content and exit`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchCmd(cmd.Context(), args)
	},
}

func init() {
	watchCmd.Flags().String("service", "", "Override the service name (default: derived from filename)")
	watchCmd.Flags().Int("lines", config.DefaultTailLines, "Lines of existing content to show initially")
	watchCmd.Flags().Bool("no-send", false, "Parse and print without shipping")
	watchCmd.Flags().Bool("oneshot", false, "Import all existing content and exit")
	watchCmd.Flags().BoolVar(&watchNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(parentCtx context.Context, files []string) error {
	cfg, ok := config.FromContext(parentCtx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	noSend := cfg.Watch.NoSend
	oneshot := cfg.Watch.Oneshot

	var otlpClient *otlp.Client
	var producer *kafkaout.Producer
	if !noSend {
		var err error
		otlpClient, err = otlp.New(otlp.Config{
			Endpoint: stripURLScheme(cfg.OTLP.Endpoint),
			Insecure: cfg.OTLP.Insecure || !strings.HasPrefix(cfg.OTLP.Endpoint, "https://"),
		})
		if err != nil {
			return fmt.Errorf("create OTLP client: %w", err)
		}
		defer otlpClient.Close(context.Background())

		if cfg.Kafka.Enabled {
			producer, err = kafkaout.NewProducer(kafkaout.Config{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
			})
			if err != nil {
				return fmt.Errorf("create Kafka producer: %w", err)
			}
			defer producer.Close()
		}
	}

	showFilename := len(files) > 1 || strings.ContainsAny(strings.Join(files, ""), "*?[")

	watcher, err := watch.New(watch.Config{
		Files:     files,
		Service:   cfg.Watch.Service,
		TailLines: cfg.Watch.TailLines,
		Follow:    !oneshot,
		Oneshot:   oneshot,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher.AddHandler(func(parsed watch.ParsedLog) {
		fmt.Println(watch.FormatLog(parsed, watchNoColor, showFilename))

		if noSend {
			return
		}
		rec, err := parsed.Record()
		if err != nil {
			fmt.Printf("  dropped: %v\n", err)
			return
		}
		otlpClient.Send(ctx, rec)
		if producer != nil {
			if _, _, err := producer.Publish(rec); err != nil {
				fmt.Printf("  kafka publish failed: %v\n", err)
			}
		}
	})

	if oneshot {
		n, err := watcher.ReadAll()
		if err != nil {
			return err
		}
		fmt.Printf("\nImported %d lines from %d file(s).\n", n, len(watcher.Files()))
		return nil
	}

	if noSend {
		fmt.Println("Watching (not shipping, --no-send). Press Ctrl+C to stop.")
	} else {
		fmt.Printf("Watching and shipping to %s. Press Ctrl+C to stop.\n", stripURLScheme(cfg.OTLP.Endpoint))
	}

	go func() {
		<-ctx.Done()
		watcher.Stop()
	}()

	return watcher.Start()
}
