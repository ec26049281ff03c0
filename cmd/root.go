// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Geo Engine CLI.
// It implements subcommands for session management, workflow queries, dataset
// uploads, task monitoring and layer administration using the Cobra CLI
// framework. The package handles command parsing, execution, and provides a
// terminal UI with spinners and progress indicators.
package cmd

import (
	"fmt"
	"net/http"
	"os"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/client"
	"geoengine/cli/internal/logging"

	"github.com/spf13/cobra"
)

var (
	serverFlag  string
	logLevel    string
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the Geo Engine CLI application.
var rootCmd = &cobra.Command{
	Use:           "geoengine",
	Short:         "Geo Engine CLI for geospatial workflow queries",
	Long:          `geoengine is a command-line client for a Geo Engine instance. It manages sessions, registers and queries workflows, downloads raster and vector results, uploads datasets, and monitors server-side tasks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logging.SetLevel(logLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("geoengine %s\n", Version)

			// Best effort: also show the server's version when one is configured
			server, err := auth.ResolveServer(serverFlag)
			if err != nil {
				return nil
			}
			c := client.New(server)
			var info struct {
				Version   string `json:"version"`
				BuildDate string `json:"buildDate"`
			}
			if err := c.RequestAndDecode(cmd.Context(), &info, http.MethodGet, "info", nil, nil); err == nil && info.Version != "" {
				fmt.Printf("server %s (%s)\n", info.Version, server)
			}
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and server version information")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Geo Engine instance URL (overrides GEOENGINE_SERVER_URL and the stored session)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}
