package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	espalier "github.com/pbarbosa/espalier"
	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/observability"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the pipeline",
	Long:  `Loads the pipeline definition, executes it under the selected profile and prints the per-agent outcomes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRun(cmd); err != nil {
			fmt.Printf("Run failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().StringP("profile", "p", "", "Execution profile (defaults to the pipeline's own)")
	runCmd.Flags().Int("concurrency", 0, "Cap on concurrently running agents (0 = unbounded)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command) error {
	logger := newLogger(cmd)

	pipeline, err := loadPipeline(cmd)
	if err != nil {
		return err
	}

	opts := []espalier.Option{
		espalier.WithLogger(logger),
		espalier.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if limit, _ := cmd.Flags().GetInt("concurrency"); limit > 0 {
		opts = append(opts, espalier.WithConcurrencyLimit(limit))
	}

	eng := espalier.New(opts...)
	defer eng.Close()

	// Cancel the run on Ctrl+C; the engine returns partial outcomes.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profileName, _ := cmd.Flags().GetString("profile")
	result, runErr := eng.Run(ctx, pipeline, profileName)
	if result == nil {
		return runErr
	}

	printResult(pipeline.Name, result)
	if runErr != nil {
		return runErr
	}
	if !result.Success {
		return result.FirstError()
	}
	return nil
}

func printResult(name string, result *domain.ExecutionResult) {
	ids := make([]string, 0, len(result.Outcomes))
	for id := range result.Outcomes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("Pipeline %s finished in %s\n", name, result.Duration)
	for _, id := range ids {
		o := result.Outcomes[id]
		switch o.Status {
		case domain.StatusSucceeded:
			fmt.Printf("  ✅ %-20s %s (attempts: %d)\n", id, o.Duration, o.Attempts)
		case domain.StatusFailed:
			fmt.Printf("  ❌ %-20s %v\n", id, o.Err)
		case domain.StatusSkipped:
			fmt.Printf("  ⏭️  %-20s %v\n", id, o.Err)
		}
	}
	fmt.Printf("Succeeded: %d  Failed: %d  Skipped: %d  Peak concurrency: %d\n",
		result.Succeeded, result.Failed, result.Skipped, result.MaxConcurrency)
}
