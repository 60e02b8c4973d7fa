package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbarbosa/espalier/internal/logging"
	"github.com/pbarbosa/espalier/pkg/adapters/yamlpipeline"
	"github.com/pbarbosa/espalier/pkg/ports"
	"github.com/pbarbosa/espalier/pkg/registry"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier runs agent workflows as dependency graphs",
	Long:  `Espalier executes pipelines of cooperating agents as directed acyclic graphs, with per-profile retry, timeout and failure policies.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "pipeline.yaml", "Pipeline definition file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// newLogger builds the CLI logger honoring --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// loadPipeline reads the pipeline named by --file with the builtin
// capability registry.
func loadPipeline(cmd *cobra.Command) (*ports.Pipeline, error) {
	path, _ := cmd.Flags().GetString("file")
	loader := yamlpipeline.NewLoader(path, registry.NewDefaultRegistry())
	return loader.Load(context.Background())
}
