// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides centralized configuration management for elkhound.
// It supports deterministic precedence (flags > env > defaults) using Viper,
// and fail-fast validation to prevent silent misconfiguration.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	ES        ESConfig        `mapstructure:"es"`
	OTLP      OTLPConfig      `mapstructure:"otlp"`
	Kibana    KibanaConfig    `mapstructure:"kibana"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Provision ProvisionConfig `mapstructure:"provision"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Loadgen   LoadgenConfig   `mapstructure:"loadgen"`
}

// ESConfig holds Elasticsearch connection settings.
type ESConfig struct {
	URL         string        `mapstructure:"url"`
	Index       string        `mapstructure:"index"`
	APIKey      string        `mapstructure:"api_key"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PingTimeout time.Duration `mapstructure:"ping_timeout"`
}

// OTLPConfig holds OpenTelemetry Protocol settings.
type OTLPConfig struct {
	Endpoint string            `mapstructure:"endpoint"` // OTLP HTTP endpoint
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// KibanaConfig holds Kibana connection settings.
type KibanaConfig struct {
	URL   string `mapstructure:"url"`
	Space string `mapstructure:"space"`
}

// KafkaConfig holds Kafka producer settings for the log fan-out.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ServeConfig holds settings for the demo log service.
type ServeConfig struct {
	Addr           string `mapstructure:"addr"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
	Domain         string `mapstructure:"domain"` // Default event.domain for emitted logs
}

// ProvisionConfig holds settings for Elasticsearch/Kibana provisioning.
type ProvisionConfig struct {
	Dataset         string `mapstructure:"dataset"`
	Namespace       string `mapstructure:"namespace"`
	RolloverMaxAge  string `mapstructure:"rollover_max_age"`
	RolloverMaxSize string `mapstructure:"rollover_max_size"`
	DeleteMinAge    string `mapstructure:"delete_min_age"`
	Shards          int    `mapstructure:"shards"`
	Replicas        int    `mapstructure:"replicas"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	TailLines int    `mapstructure:"tail_lines"` // Lines to show initially
	NoSend    bool   `mapstructure:"no_send"`    // Parse and print only
	Oneshot   bool   `mapstructure:"oneshot"`    // Import all and exit
	Service   string `mapstructure:"service"`    // Override service name
}

// LoadgenConfig holds settings for mock log generation and sweeps.
type LoadgenConfig struct {
	Count       int           `mapstructure:"count"`
	Concurrency int           `mapstructure:"concurrency"`
	Interval    time.Duration `mapstructure:"interval"`
	Target      string        `mapstructure:"target"` // file | otlp | es | http
	Out         string        `mapstructure:"out"`
	Seed        int64         `mapstructure:"seed"`
}

// Default configuration values.
const (
	DefaultESURL           = "http://localhost:9200"
	DefaultIndex           = "logs-*"
	DefaultTimeout         = 30 * time.Second
	DefaultPingTimeout     = 5 * time.Second
	DefaultOTLPEndpoint    = "localhost:4318"
	DefaultKibanaURL       = "http://localhost:5601"
	DefaultKafkaTopic      = "service-logs"
	DefaultServeAddr       = ":8080"
	DefaultServiceName     = "elkhound-demo"
	DefaultServiceVersion  = "0.0.0"
	DefaultEnvironment     = "dev"
	DefaultEventDomain     = "dictation_backend"
	DefaultDataset         = "app"
	DefaultNamespace       = "default"
	DefaultRolloverMaxAge  = "1d"
	DefaultRolloverMaxSize = "10gb"
	DefaultDeleteMinAge    = "7d"
	DefaultTailLines       = 10
	DefaultLoadgenCount    = 100
	DefaultLoadgenWorkers  = 4
)

// DefaultKafkaBrokers is the default broker list for the local stack.
var DefaultKafkaBrokers = []string{"localhost:9092"}

// ContextKey is used to store config in context.
type ContextKey struct{}

// FromContext retrieves Config from context.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(ContextKey{}).(Config)
	return cfg, ok
}

// WithContext stores Config in context.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ContextKey{}, cfg)
}

// Load builds a Config using Viper with precedence: flags > env > defaults.
// It binds flags from the command (and its parents) and fails fast on
// invalid values. A named profile, when active, supplies connection
// settings below env in the precedence chain.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ELKHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	profileFlag, _ := cmd.Flags().GetString("profile")
	if err := applyProfile(v, profileFlag); err != nil {
		return Config{}, err
	}

	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyProfile overlays the active named profile (if any) as defaults.
func applyProfile(v *viper.Viper, profileFlag string) error {
	profiles, err := LoadProfiles()
	if err != nil {
		return err
	}
	p, name := profiles.GetActiveProfile(profileFlag)
	if p == nil {
		if profileFlag != "" {
			return fmt.Errorf("profile %q not found", profileFlag)
		}
		return nil
	}
	resolved, err := p.Resolve()
	if err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}

	setIfNotEmpty := func(key, val string) {
		if val != "" {
			v.SetDefault(key, val)
		}
	}
	setIfNotEmpty("es.url", resolved.Elasticsearch.URL)
	setIfNotEmpty("es.api_key", resolved.Elasticsearch.APIKey)
	setIfNotEmpty("es.username", resolved.Elasticsearch.Username)
	setIfNotEmpty("es.password", resolved.Elasticsearch.Password)
	setIfNotEmpty("otlp.endpoint", resolved.OTLP.Endpoint)
	if resolved.OTLP.Insecure != nil {
		v.SetDefault("otlp.insecure", *resolved.OTLP.Insecure)
	}
	setIfNotEmpty("kibana.url", resolved.Kibana.URL)
	setIfNotEmpty("kibana.space", resolved.Kibana.Space)
	if len(resolved.Kafka.Brokers) > 0 {
		v.SetDefault("kafka.brokers", resolved.Kafka.Brokers)
	}
	setIfNotEmpty("kafka.topic", resolved.Kafka.Topic)
	return nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("es.url", DefaultESURL)
	v.SetDefault("es.index", DefaultIndex)
	v.SetDefault("es.timeout", DefaultTimeout)
	v.SetDefault("es.ping_timeout", DefaultPingTimeout)

	v.SetDefault("otlp.endpoint", DefaultOTLPEndpoint)
	v.SetDefault("otlp.insecure", true)

	v.SetDefault("kibana.url", DefaultKibanaURL)
	v.SetDefault("kibana.space", "")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", DefaultKafkaBrokers)
	v.SetDefault("kafka.topic", DefaultKafkaTopic)

	v.SetDefault("serve.addr", DefaultServeAddr)
	v.SetDefault("serve.service_name", DefaultServiceName)
	v.SetDefault("serve.service_version", DefaultServiceVersion)
	v.SetDefault("serve.environment", DefaultEnvironment)
	v.SetDefault("serve.domain", DefaultEventDomain)

	v.SetDefault("provision.dataset", DefaultDataset)
	v.SetDefault("provision.namespace", DefaultNamespace)
	v.SetDefault("provision.rollover_max_age", DefaultRolloverMaxAge)
	v.SetDefault("provision.rollover_max_size", DefaultRolloverMaxSize)
	v.SetDefault("provision.delete_min_age", DefaultDeleteMinAge)
	v.SetDefault("provision.shards", 1)
	v.SetDefault("provision.replicas", 0)

	v.SetDefault("watch.tail_lines", DefaultTailLines)
	v.SetDefault("watch.no_send", false)
	v.SetDefault("watch.oneshot", false)
	v.SetDefault("watch.service", "")

	v.SetDefault("loadgen.count", DefaultLoadgenCount)
	v.SetDefault("loadgen.concurrency", DefaultLoadgenWorkers)
	v.SetDefault("loadgen.interval", time.Duration(0))
	v.SetDefault("loadgen.target", "file")
	v.SetDefault("loadgen.out", "mock_logs.ndjson")
	v.SetDefault("loadgen.seed", int64(0))
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// bindFlagSet binds flags to Viper keys using explicit mappings to nested keys.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	flagToKey := map[string]string{
		"es-url":            "es.url",
		"index":             "es.index",
		"api-key":           "es.api_key",
		"username":          "es.username",
		"password":          "es.password",
		"ping-timeout":      "es.ping_timeout",
		"otlp":              "otlp.endpoint",
		"kibana-url":        "kibana.url",
		"kibana-space":      "kibana.space",
		"kafka":             "kafka.enabled",
		"kafka-brokers":     "kafka.brokers",
		"kafka-topic":       "kafka.topic",
		"addr":              "serve.addr",
		"service-name":      "serve.service_name",
		"service-version":   "serve.service_version",
		"environment":       "serve.environment",
		"domain":            "serve.domain",
		"dataset":           "provision.dataset",
		"namespace":         "provision.namespace",
		"rollover-max-age":  "provision.rollover_max_age",
		"rollover-max-size": "provision.rollover_max_size",
		"delete-min-age":    "provision.delete_min_age",
		"service":           "watch.service",
		"lines":             "watch.tail_lines",
		"no-send":           "watch.no_send",
		"oneshot":           "watch.oneshot",
		"count":             "loadgen.count",
		"concurrency":       "loadgen.concurrency",
		"interval":          "loadgen.interval",
		"target":            "loadgen.target",
		"out":               "loadgen.out",
		"seed":              "loadgen.seed",
	}

	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok {
			// Fallback: replace "-" with "." to allow nested binding if names align
			key = strings.ReplaceAll(f.Name, "-", ".")
		}
		_ = v.BindPFlag(key, f)
	})
	return nil
}

// validLoadgenTargets are the accepted loadgen.target values.
var validLoadgenTargets = map[string]struct{}{
	"file": {}, "otlp": {}, "es": {}, "http": {},
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ES.URL) == "" {
		return fmt.Errorf("es.url is required")
	}
	if strings.TrimSpace(c.ES.Index) == "" {
		return fmt.Errorf("es.index is required")
	}
	if c.ES.Timeout <= 0 {
		return fmt.Errorf("es.timeout must be > 0")
	}
	if c.ES.PingTimeout <= 0 {
		return fmt.Errorf("es.ping_timeout must be > 0")
	}
	if strings.TrimSpace(c.OTLP.Endpoint) == "" {
		return fmt.Errorf("otlp.endpoint is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka.enabled")
	}
	if c.Kafka.Enabled && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("kafka.topic is required when kafka.enabled")
	}
	if c.Watch.TailLines < 0 {
		return fmt.Errorf("watch.tail_lines must be >= 0")
	}
	if c.Loadgen.Count < 0 {
		return fmt.Errorf("loadgen.count must be >= 0")
	}
	if c.Loadgen.Concurrency <= 0 {
		return fmt.Errorf("loadgen.concurrency must be > 0")
	}
	if _, ok := validLoadgenTargets[c.Loadgen.Target]; !ok {
		return fmt.Errorf("loadgen.target must be one of file, otlp, es, http")
	}
	return nil
}
