// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"geoengine/cli/internal/httperrors"

	"github.com/spf13/cobra"
)

var (
	featuresQuery queryFlags
	featuresOut   string
)

// featuresCmd queries a vector workflow and writes the resulting features
// as GeoJSON.
var featuresCmd = &cobra.Command{
	Use:   "features <workflow-id>",
	Short: "Query a vector workflow and output GeoJSON",
	Long: `The features command executes a vector workflow over the given query
rectangle and writes the resulting feature collection as GeoJSON to --out
(stdout by default). Each feature carries its validity interval in a
nonstandard "when" member.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := featuresQuery.parse()
		if err != nil {
			return err
		}
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stderr, "Querying features")
		fc, err := w.GetFeatures(ctx, rect)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "features")
		}

		out, closeOut, err := openOutput(featuresOut)
		if err != nil {
			return err
		}
		if closeOut {
			defer out.Close()
		}
		enc := json.NewEncoder(out)
		if err := enc.Encode(fc); err != nil {
			return err
		}
		if featuresOut != "" && featuresOut != "-" {
			fmt.Fprintf(os.Stderr, "✅ %d features written to %s\n", len(fc.Features), featuresOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresQuery.register(featuresCmd)
	featuresCmd.Flags().StringVar(&featuresOut, "out", "", "Output file (\"-\" or empty for stdout)")
}
