// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/elkhound-dev/elkhound/internal/config"
)

// Global flags shared across commands.
// Values are bound via Viper; variables keep Cobra compatibility.
var (
	esURL           string
	esIndex         string
	kibanaURL       string
	otlpEndpoint    string
	profileFlag     string
	pingTimeoutFlag time.Duration
	serviceFlag     string
	levelFlag       string
)

var rootCmd = &cobra.Command{
	Use:   "elkhound",
	Short: "Local ELK + Kafka + OTel observability stack toolkit",
	Long: `Elkhound drives a local observability stack end to end: start the
compose stack with 'elkhound up', provision Elasticsearch with
'elkhound provision', then feed it with 'elkhound serve', 'elkhound
loadgen', or 'elkhound watch'.

Every log that passes through elkhound is validated against the log
attribute contract (mandatory attributes, allowed values, forbidden
keywords) before it is exported.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	// Global flags (Viper precedence: flags > env > defaults; a named
	// profile slots in below env)
	rootCmd.PersistentFlags().StringVar(&esURL, "es-url", config.DefaultESURL, "Elasticsearch URL (env: ELKHOUND_ES_URL)")
	rootCmd.PersistentFlags().StringVarP(&esIndex, "index", "i", config.DefaultIndex, "Elasticsearch index/data stream pattern (env: ELKHOUND_INDEX)")
	rootCmd.PersistentFlags().StringVar(&kibanaURL, "kibana-url", config.DefaultKibanaURL, "Kibana URL (env: ELKHOUND_KIBANA_URL)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", config.DefaultOTLPEndpoint, "OTLP HTTP endpoint (env: ELKHOUND_OTLP_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Named connection profile from the config file")
	pingTimeoutFlag = config.DefaultPingTimeout
	rootCmd.PersistentFlags().DurationVar(&pingTimeoutFlag, "ping-timeout", config.DefaultPingTimeout, "Elasticsearch ping timeout (env: ELKHOUND_PING_TIMEOUT)")
}
