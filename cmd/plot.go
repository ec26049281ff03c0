// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"

	"geoengine/cli/internal/httperrors"

	"github.com/spf13/cobra"
)

var (
	plotQuery queryFlags
	plotOut   string
)

// plotCmd executes a plot workflow and prints the Vega-Lite chart spec.
var plotCmd = &cobra.Command{
	Use:   "plot <workflow-id>",
	Short: "Compute a plot workflow and output its Vega-Lite spec",
	Long: `The plot command executes a plot workflow (e.g. a histogram or statistics
operator) over the given query rectangle and writes the resulting Vega-Lite
chart specification as JSON to --out (stdout by default). The output can be
rendered with any Vega-Lite viewer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := plotQuery.parse()
		if err != nil {
			return err
		}
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stderr, "Computing plot")
		result, err := w.PlotChart(ctx, rect)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "plot")
		}

		out, closeOut, err := openOutput(plotOut)
		if err != nil {
			return err
		}
		if closeOut {
			defer out.Close()
		}
		if _, err := fmt.Fprintln(out, result.Data.VegaString); err != nil {
			return err
		}
		if plotOut != "" && plotOut != "-" {
			fmt.Fprintf(os.Stderr, "✅ Plot spec written to %s\n", plotOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotQuery.register(plotCmd)
	plotCmd.Flags().StringVar(&plotOut, "out", "", "Output file (\"-\" or empty for stdout)")
}
