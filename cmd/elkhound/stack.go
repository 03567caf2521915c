// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/elkhound-dev/elkhound/internal/config"
	"github.com/elkhound-dev/elkhound/internal/es"
	"github.com/elkhound-dev/elkhound/internal/kibana"
)

var (
	composeDir string
	withKibana bool
	noKibana   bool
	withKafka  bool
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the elkhound stack (Elasticsearch + OTel Collector)",
	Long:  `Starts the compose stack: Elasticsearch, the OpenTelemetry Collector, and optionally Kibana and Kafka.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Kibana is enabled by default; allow users to explicitly disable it.
		if noKibana {
			withKibana = false
		}
		return runUp()
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the elkhound stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDown()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the elkhound stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context())
	},
}

func init() {
	upCmd.Flags().StringVar(&composeDir, "dir", "", "Compose directory (default: auto-detect)")
	upCmd.Flags().BoolVar(&withKibana, "with-kibana", true, "Start Kibana for visualization (default: true)")
	upCmd.Flags().BoolVar(&noKibana, "no-kibana", false, "Disable Kibana (overrides --with-kibana)")
	upCmd.Flags().BoolVar(&withKafka, "kafka-stack", false, "Also start the Kafka broker for the log fan-out")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
}

type composeDirSearch struct {
	getwd      func() (string, error)
	executable func() (string, error)
	stat       func(string) (os.FileInfo, error)
	dataDirFn  func() (string, error)
}

func defaultComposeDirSearch() composeDirSearch {
	return composeDirSearch{
		getwd:      os.Getwd,
		executable: os.Executable,
		stat:       os.Stat,
		dataDirFn:  defaultDataDir,
	}
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "elkhound"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "elkhound"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "elkhound"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "elkhound"), nil
		}
		return filepath.Join(home, ".local", "share", "elkhound"), nil
	}
}

func findComposeDir() (string, error) {
	return findComposeDirWith(defaultComposeDirSearch())
}

func findComposeDirWith(s composeDirSearch) (string, error) {
	if s.getwd == nil {
		s.getwd = os.Getwd
	}
	if s.executable == nil {
		s.executable = os.Executable
	}
	if s.stat == nil {
		s.stat = os.Stat
	}
	if s.dataDirFn == nil {
		s.dataDirFn = defaultDataDir
	}

	cwd, err := s.getwd()
	if err != nil {
		return "", err
	}

	// Check ./docker
	composePath := filepath.Join(cwd, "docker")
	if _, err := s.stat(filepath.Join(composePath, "docker-compose.yml")); err == nil {
		return composePath, nil
	}

	// Check if docker-compose.yml is in current dir
	if _, err := s.stat(filepath.Join(cwd, "docker-compose.yml")); err == nil {
		return cwd, nil
	}

	// Check user data directory (release installs put docker/ here)
	if dataDir, err := s.dataDirFn(); err == nil && dataDir != "" {
		dataComposePath := filepath.Join(dataDir, "docker")
		if _, err := s.stat(filepath.Join(dataComposePath, "docker-compose.yml")); err == nil {
			return dataComposePath, nil
		}
	}

	// Check executable directory
	exePath, err := s.executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		composePath = filepath.Join(exeDir, "docker")
		if _, err := s.stat(filepath.Join(composePath, "docker-compose.yml")); err == nil {
			return composePath, nil
		}
	}

	return "", fmt.Errorf("could not find docker-compose.yml. Use --dir to specify the path")
}

// getContainerRuntime returns "docker" or "podman" depending on what's
// available, verifying compose functionality works.
func getContainerRuntime() (string, error) {
	if _, err := exec.LookPath("docker"); err == nil {
		cmd := exec.Command("docker", "compose", "version")
		if err := cmd.Run(); err == nil {
			return "docker", nil
		}
	}

	if _, err := exec.LookPath("podman"); err == nil {
		cmd := exec.Command("podman", "compose", "version")
		if err := cmd.Run(); err == nil {
			return "podman", nil
		}
		return "", fmt.Errorf("podman found but 'podman compose' is not available.\n\nInstall it with:\n  Fedora/RHEL: sudo dnf install podman-compose\n  Ubuntu/Debian: sudo apt install podman-compose\n  pip: pip install podman-compose")
	}

	return "", fmt.Errorf("neither docker nor podman found in PATH.\n\nInstall one of:\n  Docker: https://docs.docker.com/get-docker/\n  Podman: https://podman.io/getting-started/installation")
}

func runUp() error {
	dir := composeDir
	if dir == "" {
		var err error
		dir, err = findComposeDir()
		if err != nil {
			return err
		}
	}

	containerRuntime, err := getContainerRuntime()
	if err != nil {
		return err
	}

	fmt.Println("Starting elkhound stack...")
	fmt.Printf("Using %s, compose directory: %s\n", containerRuntime, dir)
	fmt.Println()

	args := []string{"compose"}
	if withKibana {
		args = append(args, "--profile", "kibana")
	}
	if withKafka {
		args = append(args, "--profile", "kafka")
	}
	args = append(args, "up", "-d")

	cmd := exec.Command(containerRuntime, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to start stack: %w", err)
	}

	fmt.Println()
	fmt.Println("Stack started successfully!")
	fmt.Println()
	fmt.Println("  Elasticsearch:  http://localhost:9200")
	fmt.Println("  OTel Collector: localhost:4317 (gRPC), localhost:4318 (HTTP)")
	if withKibana {
		fmt.Println("  Kibana:         http://localhost:5601")
	}
	if withKafka {
		fmt.Println("  Kafka:          localhost:9092")
	}
	fmt.Println()
	fmt.Println("Run 'elkhound provision' to set up the logs data stream.")

	return nil
}

func runDown() error {
	dir := composeDir
	if dir == "" {
		var err error
		dir, err = findComposeDir()
		if err != nil {
			return err
		}
	}

	containerRuntime, err := getContainerRuntime()
	if err != nil {
		return err
	}

	fmt.Println("Stopping elkhound stack...")

	cmd := exec.Command(containerRuntime, "compose", "--profile", "kibana", "--profile", "kafka", "down")
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to stop stack: %w", err)
	}

	fmt.Println("Stack stopped.")
	return nil
}

func runStatus(parentCtx context.Context) error {
	cfg, ok := config.FromContext(parentCtx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	client, err := es.NewFromConfig(cfg.ES.URL, cfg.ES.Index, cfg.ES.APIKey, cfg.ES.Username, cfg.ES.Password)
	if err != nil {
		return fmt.Errorf("failed to create ES client: %w", err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, cfg.ES.PingTimeout)
	defer cancel()

	fmt.Println("Elkhound Status")
	fmt.Println("===============")
	fmt.Println()

	fmt.Printf("Elasticsearch (%s): ", cfg.ES.URL)
	if err := client.Ping(ctx); err != nil {
		fmt.Println("NOT CONNECTED")
		fmt.Printf("  Error: %v\n", err)
	} else {
		fmt.Println("CONNECTED")

		result, err := client.Tail(ctx, es.TailOptions{Size: 1})
		if err == nil {
			fmt.Printf("  Total logs indexed: %d\n", result.Total)
		}
	}

	fmt.Printf("Kibana (%s): ", cfg.Kibana.URL)
	kbn := kibana.NewClient(kibana.ClientOptions{
		KibanaURL: cfg.Kibana.URL,
		APIKey:    cfg.ES.APIKey,
		Username:  cfg.ES.Username,
		Password:  cfg.ES.Password,
		Space:     cfg.Kibana.Space,
		Timeout:   cfg.ES.PingTimeout,
	})
	if err := kbn.Status(ctx); err != nil {
		fmt.Println("NOT AVAILABLE")
	} else {
		fmt.Println("AVAILABLE")
	}

	fmt.Println()

	containerRuntime, err := getContainerRuntime()
	if err != nil {
		fmt.Printf("Containers: %v\n", err)
		return nil
	}

	fmt.Printf("Containers (%s):\n", containerRuntime)
	cmd := exec.Command(containerRuntime, "ps", "--filter", "name=elkhound", "--format", "  {{.Names}}: {{.Status}}")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("  Could not check containers")
	}

	return nil
}
