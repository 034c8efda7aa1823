// Package main is the krisha-intel CLI entrypoint (spec §6): batch
// ingestion, opportunity discovery, blacklist management, database
// bootstrap, and an optional cron-driven daemon mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "krisha-intel",
	Short: "Residential listings ingestion and market-analytics pipeline",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults applied if omitted)")
	rootCmd.AddCommand(runIngestCmd)
	rootCmd.AddCommand(findOpportunitiesCmd)
	rootCmd.AddCommand(blacklistCmd)
	rootCmd.AddCommand(createDBCmd)
	rootCmd.AddCommand(serveScheduleCmd)
	rootCmd.AddCommand(ignoreOpportunityCmd)
}

func main() {
	logger.Banner(version)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// version is set at build time via -ldflags.
var version string

func exitCodeFor(err error) int {
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, context.Canceled) {
		return 2
	}
	return 1
}
