// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/elkhound-dev/elkhound/internal/config"
)

// Flags for set-profile command
var (
	setProfileESURL        string
	setProfileESAPIKey     string
	setProfileESUsername   string
	setProfileESPassword   string
	setProfileOTLP         string
	setProfileOTLPInsec    bool
	setProfileKibanaURL    string
	setProfileKibanaSpace  string
	setProfileKafkaBrokers []string
	setProfileKafkaTopic   string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage elkhound configuration and profiles",
	Long: `Manage elkhound configuration profiles.

Profiles allow you to define multiple Elasticsearch/Kibana/OTLP/Kafka
configurations and switch between them easily (similar to kubectl contexts).

Configuration is stored in ~/.config/elkhound/config.yaml`,
}

var useProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if _, err := cfg.GetProfile(name); err != nil {
			return fmt.Errorf("profile %q does not exist", name)
		}

		cfg.CurrentProfile = name
		if err := config.SaveProfiles(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Printf("Switched to profile %q\n", name)
		return nil
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set-profile <name>",
	Short: "Create or update a profile",
	Long: `Create or update a named profile with connection settings.

Examples:
  # Create a local development profile
  elkhound config set-profile local --es-url http://localhost:9200

  # Create a staging profile with API key (using env var reference)
  elkhound config set-profile staging \
    --es-url https://staging.es.example.com:9243 \
    --es-api-key '${STAGING_ES_API_KEY}' \
    --kibana-url https://staging.kb.example.com

  # Point a profile at a Kafka broker pair
  elkhound config set-profile lab \
    --es-url http://lab-es:9200 \
    --kafka-brokers lab-kafka-1:9092,lab-kafka-2:9092

Credentials can be stored as:
  - Environment variable references: ${MY_SECRET} (recommended)
  - Plain text values (warning will be shown)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		// Get existing profile or start from an empty one.
		profile, _ := cfg.GetProfile(name)
		applyProfileFlags(cmd, &profile)
		cfg.SetProfile(name, profile)

		if err := config.SaveProfiles(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		if hasPlainTextCredentials(profile) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: profile stores credentials in plain text; prefer ${ENV_VAR} references")
		}

		fmt.Printf("Profile %q saved\n", name)
		return nil
	},
}

// applyProfileFlags copies the set-profile flag values that were provided
// onto the profile, leaving unset fields alone.
func applyProfileFlags(cmd *cobra.Command, profile *config.Profile) {
	if setProfileESURL != "" {
		profile.Elasticsearch.URL = setProfileESURL
	}
	if setProfileESAPIKey != "" {
		profile.Elasticsearch.APIKey = setProfileESAPIKey
	}
	if setProfileESUsername != "" {
		profile.Elasticsearch.Username = setProfileESUsername
	}
	if setProfileESPassword != "" {
		profile.Elasticsearch.Password = setProfileESPassword
	}
	if setProfileOTLP != "" {
		profile.OTLP.Endpoint = setProfileOTLP
	}
	if cmd.Flags().Changed("otlp-insecure") {
		insecure := setProfileOTLPInsec
		profile.OTLP.Insecure = &insecure
	}
	if setProfileKibanaURL != "" {
		profile.Kibana.URL = setProfileKibanaURL
	}
	if setProfileKibanaSpace != "" {
		profile.Kibana.Space = setProfileKibanaSpace
	}
	if len(setProfileKafkaBrokers) > 0 {
		profile.Kafka.Brokers = setProfileKafkaBrokers
	}
	if setProfileKafkaTopic != "" {
		profile.Kafka.Topic = setProfileKafkaTopic
	}
}

// hasPlainTextCredentials reports whether the profile stores a secret as a
// literal value rather than a ${ENV_VAR} reference.
func hasPlainTextCredentials(p config.Profile) bool {
	for _, secret := range []string{p.Elasticsearch.APIKey, p.Elasticsearch.Password} {
		if secret != "" && !config.IsEnvRef(secret) {
			return true
		}
	}
	return false
}

var getProfilesCmd = &cobra.Command{
	Use:     "get-profiles",
	Aliases: []string{"list-profiles", "profiles"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		names := cfg.ListProfiles()
		if len(names) == 0 {
			fmt.Println("No profiles configured.")
			fmt.Println("Create one with: elkhound config set-profile <name> --es-url <url>")
			return nil
		}

		sort.Strings(names)

		fmt.Println("PROFILES:")
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentProfile {
				marker = "* "
			}
			profile, _ := cfg.GetProfile(name)
			fmt.Printf("%s%-20s  %s\n", marker, name, profile.Elasticsearch.URL)
		}

		if cfg.CurrentProfile != "" {
			fmt.Printf("\n* = current profile\n")
		}

		return nil
	},
}

var currentProfileCmd = &cobra.Command{
	Use:   "current-profile",
	Short: "Show the current profile name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if cfg.CurrentProfile == "" {
			fmt.Println("No profile selected (using defaults)")
			return nil
		}

		fmt.Println(cfg.CurrentProfile)
		return nil
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if err := cfg.DeleteProfile(name); err != nil {
			return err
		}

		if err := config.SaveProfiles(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Printf("Profile %q deleted\n", name)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	setProfileCmd.Flags().StringVar(&setProfileESURL, "es-url", "", "Elasticsearch URL")
	setProfileCmd.Flags().StringVar(&setProfileESAPIKey, "es-api-key", "", "Elasticsearch API key (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileESUsername, "es-username", "", "Elasticsearch username")
	setProfileCmd.Flags().StringVar(&setProfileESPassword, "es-password", "", "Elasticsearch password (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileOTLP, "otlp", "", "OTLP endpoint")
	setProfileCmd.Flags().BoolVar(&setProfileOTLPInsec, "otlp-insecure", true, "Use insecure OTLP connection")
	setProfileCmd.Flags().StringVar(&setProfileKibanaURL, "kibana-url", "", "Kibana URL")
	setProfileCmd.Flags().StringVar(&setProfileKibanaSpace, "kibana-space", "", "Kibana space")
	setProfileCmd.Flags().StringSliceVar(&setProfileKafkaBrokers, "kafka-brokers", nil, "Kafka broker addresses")
	setProfileCmd.Flags().StringVar(&setProfileKafkaTopic, "kafka-topic", "", "Kafka topic for shipped logs")

	configCmd.AddCommand(useProfileCmd)
	configCmd.AddCommand(setProfileCmd)
	configCmd.AddCommand(getProfilesCmd)
	configCmd.AddCommand(currentProfileCmd)
	configCmd.AddCommand(deleteProfileCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}
