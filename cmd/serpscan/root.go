// Package main provides the entry point for the serpscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for serpscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serpscan",
		Short: "Search-result email harvester with challenge handling",
		Long: `Serpscan drives a headless browser through search result pages and
extracts email addresses from them. Each query runs in its own isolated
browser session; anti-automation challenges (reCAPTCHA, hCaptcha,
Turnstile) are detected and handed to an external solving service so the
session can continue.

Extracted addresses are appended to a CSV file and optionally stored in
a local SQLite database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
