// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import "github.com/spf13/cobra"

// --- Global Command Variables ---
var (
	serverURL   string
	productID   string
	dryRun      bool
	historyDays int

	rootCmd = &cobra.Command{
		Use:   "pilotctl",
		Short: "A cli to operate the Release Pilot digest service",
		Long: `pilotctl talks to a running Release Pilot server: trigger digest
runs, list recent digests, ask the assistant, and pull metric history.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Trigger a digest run on the server",
		Run:   runDigest, // Defined in cmd_api.go
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the most recent digests",
		Run:   runList, // Defined in cmd_api.go
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the digest assistant a question",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk, // Defined in cmd_api.go
	}

	historyCmd = &cobra.Command{
		Use:   "history [metric_id]",
		Short: "Show recorded history for a health metric",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory, // Defined in cmd_api.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Release Pilot server URL (default http://localhost:12310, env PILOT_SERVER_URL)")

	runCmd.Flags().StringVar(&productID, "product", "launchpad", "Product id to aggregate")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the digest without persisting it")

	historyCmd.Flags().StringVar(&productID, "product", "launchpad", "Product id to query")
	historyCmd.Flags().IntVar(&historyDays, "days", 7, "Lookback window in days")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}
