// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"

	"geoengine/cli/internal/dsn"
	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/logging"
	"geoengine/cli/internal/postgis"

	"github.com/spf13/cobra"
)

var (
	exportQuery queryFlags
	exportTable string
	exportDSN   string
)

// exportCmd queries a vector workflow and writes the features into a
// PostGIS table.
var exportCmd = &cobra.Command{
	Use:   "export <workflow-id>",
	Short: "Export a vector workflow result into a PostGIS table",
	Long: `The export command executes a vector workflow over the given query
rectangle and writes the resulting features into a new PostGIS table. The
table gets a geometry column, the feature validity interval, and one column
per feature attribute.

The database connection string comes from --dsn, the GEOENGINE_POSTGIS_DSN
environment variable, or DATABASE_URL, in that order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := exportQuery.parse()
		if err != nil {
			return err
		}

		rawDSN := exportDSN
		if rawDSN == "" {
			rawDSN = dsn.FromEnv()
		}
		if rawDSN == "" {
			fmt.Println("⚠️  No database connection configured.")
			fmt.Println("   Pass --dsn or set GEOENGINE_POSTGIS_DSN / DATABASE_URL.")
			return nil
		}

		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stderr, "Querying features")
		fc, err := w.GetFeatures(ctx, rect)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "export")
		}

		fmt.Printf("→ Database: %s\n", logging.Mask(rawDSN))
		exporter, err := postgis.Connect(ctx, rawDSN)
		if err != nil {
			return err
		}
		defer exporter.Close()

		written, err := exporter.Export(ctx, fc, exportTable)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %d features written to table %s\n", written, exportTable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportQuery.register(exportCmd)
	exportCmd.Flags().StringVar(&exportTable, "table", "", "Target table name (required; must not exist)")
	exportCmd.Flags().StringVar(&exportDSN, "dsn", "", "PostgreSQL connection string")
	_ = exportCmd.MarkFlagRequired("table")
}
