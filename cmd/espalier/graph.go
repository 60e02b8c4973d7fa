package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbarbosa/espalier/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render the pipeline as a Mermaid diagram",
	Long:  `Prints the dependency graph in Mermaid flowchart syntax, ready to paste into documentation or a Mermaid live editor.`,
	Run: func(cmd *cobra.Command, args []string) {
		pipeline, err := loadPipeline(cmd)
		if err != nil {
			fmt.Printf("Failed to load pipeline: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(pipeline.Graph, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
