package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the pipeline for consistency",
	Long:  `Parses the pipeline definition, binds every agent to its capability and verifies the dependency graph is acyclic.`,
	Run: func(cmd *cobra.Command, args []string) {
		pipeline, err := loadPipeline(cmd)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		order, err := pipeline.Graph.TopologicalOrder()
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Pipeline %s is valid! ✅ (%d agents)\n", pipeline.Name, len(order))
		for i, id := range order {
			fmt.Printf("  %d. %s\n", i+1, id)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
