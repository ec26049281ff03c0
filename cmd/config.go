// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"

	"geoengine/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	configSetServer     string
	configSetSRS        string
	configSetResolution string
	configSetLogLevel   string
)

// configCmd groups the configuration subcommands. Only non-secret settings
// live in the config file; session tokens go to the OS keychain.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change CLI defaults",
	Long: `The config command group manages the CLI defaults stored in the XDG config
directory: the default server URL, the spatial reference system, the query
resolution and the log level.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current CLI defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		rows := pterm.TableData{
			{"Server", cfg.Server},
			{"SRS", cfg.SRS},
			{"Resolution", strconv.FormatFloat(cfg.Resolution, 'f', -1, 64)},
			{"Log level", cfg.LogLevel},
		}
		return pterm.DefaultTable.WithData(rows).Render()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change CLI defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("server") {
			cfg.Server = configSetServer
		}
		if cmd.Flags().Changed("srs") {
			cfg.SRS = configSetSRS
		}
		if cmd.Flags().Changed("resolution") {
			res, err := strconv.ParseFloat(configSetResolution, 64)
			if err != nil || res <= 0 {
				return fmt.Errorf("resolution must be a positive number")
			}
			cfg.Resolution = res
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = configSetLogLevel
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Println("✅ Configuration saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	configSetCmd.Flags().StringVar(&configSetServer, "server", "", "Default Geo Engine instance URL")
	configSetCmd.Flags().StringVar(&configSetSRS, "srs", "", "Default spatial reference system")
	configSetCmd.Flags().StringVar(&configSetResolution, "resolution", "", "Default spatial resolution")
	configSetCmd.Flags().StringVar(&configSetLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}
