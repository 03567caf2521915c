// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/elkhound-dev/elkhound/internal/config"
	"github.com/elkhound-dev/elkhound/internal/es"
	"github.com/elkhound-dev/elkhound/internal/index"
	"github.com/elkhound-dev/elkhound/internal/kibana"
)

var (
	provisionManifest  string
	provisionRecreate  bool
	provisionRollover  bool
	provisionSkipKbn   bool
	provisionDataset   string
	provisionNamespace string
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the Elasticsearch logs data stream and Kibana data view",
	Long: `Provisions everything the logs pipeline needs in Elasticsearch and Kibana:

  1. An ILM policy (rollover while hot, delete after retention)
  2. An index template for the logs data stream
  3. The data stream itself
  4. A Kibana data view over the data stream pattern

Provisioning is idempotent: policies and templates are replaced in place,
and existing data streams and data views are left alone.

Examples:
  elkhound provision
  elkhound provision --dataset myapp --namespace staging
  elkhound provision --manifest provision.yml
  elkhound provision --recreate   # drop and recreate the data stream
  elkhound provision --rollover   # roll the write index so template changes apply`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd.Context())
	},
}

func init() {
	provisionCmd.Flags().StringVar(&provisionDataset, "dataset", "", "Data stream dataset part (default from config)")
	provisionCmd.Flags().StringVar(&provisionNamespace, "namespace", "", "Data stream namespace part (default from config)")
	provisionCmd.Flags().StringVar(&provisionManifest, "manifest", "", "YAML manifest overriding provisioning settings")
	provisionCmd.Flags().BoolVar(&provisionRecreate, "recreate", false, "Delete and recreate the data stream (destroys data)")
	provisionCmd.Flags().BoolVar(&provisionRollover, "rollover", false, "Force a rollover of an existing data stream so updated template settings take effect")
	provisionCmd.Flags().BoolVar(&provisionSkipKbn, "skip-kibana", false, "Skip the Kibana data view step")

	rootCmd.AddCommand(provisionCmd)
}

// provisionManifestFile mirrors ProvisionConfig for the optional YAML
// manifest. Zero values leave the config value in place.
type provisionManifestFile struct {
	Dataset         string `yaml:"dataset"`
	Namespace       string `yaml:"namespace"`
	RolloverMaxAge  string `yaml:"rollover_max_age"`
	RolloverMaxSize string `yaml:"rollover_max_size"`
	DeleteMinAge    string `yaml:"delete_min_age"`
	Shards          int    `yaml:"shards"`
	Replicas        *int   `yaml:"replicas"` // pointer: 0 replicas is a valid setting
}

func applyManifest(p *config.ProvisionConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var m provisionManifestFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if m.Dataset != "" {
		p.Dataset = m.Dataset
	}
	if m.Namespace != "" {
		p.Namespace = m.Namespace
	}
	if m.RolloverMaxAge != "" {
		p.RolloverMaxAge = m.RolloverMaxAge
	}
	if m.RolloverMaxSize != "" {
		p.RolloverMaxSize = m.RolloverMaxSize
	}
	if m.DeleteMinAge != "" {
		p.DeleteMinAge = m.DeleteMinAge
	}
	if m.Shards > 0 {
		p.Shards = m.Shards
	}
	if m.Replicas != nil {
		p.Replicas = *m.Replicas
	}
	return nil
}

func runProvision(parentCtx context.Context) error {
	cfg, ok := config.FromContext(parentCtx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	prov := cfg.Provision
	if provisionManifest != "" {
		if err := applyManifest(&prov, provisionManifest); err != nil {
			return err
		}
	}
	if provisionDataset != "" {
		prov.Dataset = provisionDataset
	}
	if provisionNamespace != "" {
		prov.Namespace = provisionNamespace
	}

	stream := index.DataStream(prov.Dataset, prov.Namespace)
	pattern := index.Pattern(prov.Dataset)
	policyName := stream + "-ilm"
	templateName := stream + "-template"

	client, err := es.NewFromConfig(cfg.ES.URL, stream, cfg.ES.APIKey, cfg.ES.Username, cfg.ES.Password)
	if err != nil {
		return fmt.Errorf("failed to create ES client: %w", err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, 60*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("cannot connect to Elasticsearch: %w\nIs the stack running? Try 'elkhound up'", err)
	}

	fmt.Printf("Provisioning data stream %s\n", stream)
	fmt.Println()

	fmt.Printf("  [1/4] ILM policy %s... ", policyName)
	err = client.PutILMPolicy(ctx, policyName, es.ILMPolicy{
		RolloverMaxAge:  prov.RolloverMaxAge,
		RolloverMaxSize: prov.RolloverMaxSize,
		DeleteMinAge:    prov.DeleteMinAge,
	})
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("ok")

	fmt.Printf("  [2/4] index template %s... ", templateName)
	err = client.PutIndexTemplate(ctx, templateName, es.IndexTemplate{
		IndexPatterns: []string{pattern},
		ILMPolicy:     policyName,
		Shards:        prov.Shards,
		Replicas:      prov.Replicas,
	})
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("ok")

	fmt.Printf("  [3/4] data stream %s... ", stream)
	exists, err := client.DataStreamExists(ctx, stream)
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	switch {
	case exists && provisionRecreate:
		if err := client.DeleteDataStream(ctx, stream); err != nil {
			fmt.Println("FAILED")
			return err
		}
		if err := client.CreateDataStream(ctx, stream); err != nil {
			fmt.Println("FAILED")
			return err
		}
		fmt.Println("recreated")
	case exists:
		fmt.Println("already exists")
	default:
		if err := client.CreateDataStream(ctx, stream); err != nil {
			fmt.Println("FAILED")
			return err
		}
		fmt.Println("created")
	}

	if provisionRollover {
		fmt.Printf("  rollover %s... ", stream)
		if err := client.Rollover(ctx, stream); err != nil {
			fmt.Println("FAILED")
			return err
		}
		fmt.Println("ok")
	}

	if provisionSkipKbn {
		fmt.Println("  [4/4] Kibana data view... skipped")
	} else {
		fmt.Printf("  [4/4] Kibana data view %s... ", pattern)
		kbn := kibana.NewClient(kibana.ClientOptions{
			KibanaURL: cfg.Kibana.URL,
			APIKey:    cfg.ES.APIKey,
			Username:  cfg.ES.Username,
			Password:  cfg.ES.Password,
			Space:     cfg.Kibana.Space,
		})
		viewID, err := ensureDataView(ctx, kbn, pattern, provisionRecreate)
		if err != nil {
			// Kibana may not be running; provisioning ES still succeeded.
			fmt.Printf("skipped (%v)\n", err)
		} else {
			fmt.Printf("ok (id %s)\n", viewID)
		}
	}

	fmt.Println()
	fmt.Println("Provisioning complete.")
	fmt.Printf("Ship logs with 'elkhound serve' or 'elkhound loadgen --target es', then tail with 'elkhound tail'.\n")
	return nil
}

// ensureDataView creates the Kibana data view over pattern. With recreate
// set, any existing view for the pattern is deleted first so its cached
// field list is rebuilt against the fresh data stream.
func ensureDataView(ctx context.Context, kbn *kibana.Client, pattern string, recreate bool) (string, error) {
	if recreate {
		id, err := kbn.FindDataView(ctx, pattern)
		if err != nil {
			return "", err
		}
		if id != "" {
			if err := kbn.DeleteDataView(ctx, id); err != nil {
				return "", fmt.Errorf("delete stale data view: %w", err)
			}
		}
	}
	return kbn.EnsureDataView(ctx, "Elkhound Logs", pattern)
}
