package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pbarbosa/espalier/pkg/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the builtin execution profiles",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range profile.Default().Profiles() {
			fmt.Printf("%s\n", p.Name)
			if p.Description != "" {
				fmt.Printf("  %s\n", p.Description)
			}
			fmt.Printf("  max_retries: %d  fail_fast: %v", p.MaxRetries, p.FailFast)
			if p.Timeout > 0 {
				fmt.Printf("  timeout: %s", p.Timeout)
			}
			if p.RunTimeout > 0 {
				fmt.Printf("  run_timeout: %s", p.RunTimeout)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
