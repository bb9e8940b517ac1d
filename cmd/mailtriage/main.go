// Package main implements the mailtriage CLI.
//
// mailtriage reads an inbox snapshot and a baseline calendar, classifies
// every email with an LLM, schedules meeting invites against the calendar
// and writes the triage results plus the final calendar state. The same
// binary can also expose the calendar tools over MCP stdio for external
// agent hosts.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is an optional YAML config file; environment variables
	// with the MAILTRIAGE_ prefix override it
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mailtriage",
	Short: "LLM-assisted email triage with calendar scheduling",
	Long: `mailtriage processes an inbox snapshot end to end: each email is
classified, meeting invites are negotiated against a working calendar with
conflict and holiday awareness, replies are drafted and screened for
sensitive content, and the results are written as JSON.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (optional)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mcpCmd)
}
