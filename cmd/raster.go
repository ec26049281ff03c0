// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"

	"geoengine/cli/internal/colorizer"
	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	rasterDownloadQuery  queryFlags
	rasterDownloadOut    string
	rasterDownloadFormat string
	rasterDownloadNoData float64

	rasterMapQuery     queryFlags
	rasterMapOut       string
	rasterMapColorizer string
	rasterMapMin       float64
	rasterMapMax       float64
)

// rasterCmd groups the raster output subcommands.
var rasterCmd = &cobra.Command{
	Use:   "raster",
	Short: "Download raster workflow results",
	Long: `The raster command group retrieves raster workflow results: 'download'
fetches the raw raster data (GeoTIFF by default), 'map' renders a styled
PNG map image.`,
}

var rasterDownloadCmd = &cobra.Command{
	Use:   "download <workflow-id>",
	Short: "Download raster data for a query rectangle",
	Long: `Download executes a raster workflow over the given query rectangle and
writes the resulting coverage to --out. The default output format is
image/tiff (GeoTIFF).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := rasterDownloadQuery.parse()
		if err != nil {
			return err
		}
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}

		opts := workflow.CoverageOptions{Format: rasterDownloadFormat}
		if cmd.Flags().Changed("no-data") {
			noData := rasterDownloadNoData
			opts.ForceNoDataValue = &noData
		}

		out, closeOut, err := openOutput(rasterDownloadOut)
		if err != nil {
			return err
		}
		if closeOut {
			defer out.Close()
		}

		stop := startInlineSpinner(os.Stderr, "Downloading raster")
		err = w.DownloadRaster(ctx, rect, opts, out)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "raster download")
		}
		if rasterDownloadOut != "" && rasterDownloadOut != "-" {
			fmt.Printf("✅ Raster written to %s\n", rasterDownloadOut)
		}
		return nil
	},
}

var rasterMapCmd = &cobra.Command{
	Use:   "map <workflow-id>",
	Short: "Render a styled PNG map of a raster workflow",
	Long: `Map renders the raster workflow as a styled PNG image. The style comes
from --colorizer (a colorizer JSON file) or from --min/--max, which build a
linear grayscale gradient over that value range.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := rasterMapQuery.parse()
		if err != nil {
			return err
		}

		style, err := mapColorizer(cmd)
		if err != nil {
			return err
		}

		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}

		out, closeOut, err := openOutput(rasterMapOut)
		if err != nil {
			return err
		}
		if closeOut {
			defer out.Close()
		}

		stop := startInlineSpinner(os.Stderr, "Rendering map")
		err = w.GetMap(ctx, rect, style, out)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "raster map")
		}
		if rasterMapOut != "" && rasterMapOut != "-" {
			fmt.Printf("✅ Map written to %s\n", rasterMapOut)
		}
		return nil
	},
}

// mapColorizer builds the style for the map subcommand, either from a
// colorizer JSON file or as a grayscale gradient over --min/--max.
func mapColorizer(cmd *cobra.Command) (colorizer.Colorizer, error) {
	if rasterMapColorizer != "" {
		data, err := readInput(rasterMapColorizer)
		if err != nil {
			return nil, err
		}
		return colorizer.Decode(data)
	}

	if !cmd.Flags().Changed("min") || !cmd.Flags().Changed("max") {
		return nil, fmt.Errorf("either --colorizer or both --min and --max are required")
	}
	breakpoints, err := colorizer.Ramp(rasterMapMin, rasterMapMax, 16,
		colorizer.RGBA{0, 0, 0, 255}, colorizer.RGBA{255, 255, 255, 255})
	if err != nil {
		return nil, err
	}
	return colorizer.NewLinearGradient(breakpoints, colorizer.Transparent, colorizer.Transparent, colorizer.Transparent), nil
}

func init() {
	rootCmd.AddCommand(rasterCmd)
	rasterCmd.AddCommand(rasterDownloadCmd)
	rasterCmd.AddCommand(rasterMapCmd)

	rasterDownloadQuery.register(rasterDownloadCmd)
	rasterDownloadCmd.Flags().StringVar(&rasterDownloadOut, "out", "", "Output file (\"-\" or empty for stdout)")
	rasterDownloadCmd.Flags().StringVar(&rasterDownloadFormat, "format", "", "Output format (default image/tiff)")
	rasterDownloadCmd.Flags().Float64Var(&rasterDownloadNoData, "no-data", 0, "Force this no-data value in the output")

	rasterMapQuery.register(rasterMapCmd)
	rasterMapCmd.Flags().StringVar(&rasterMapOut, "out", "", "Output file (\"-\" or empty for stdout)")
	rasterMapCmd.Flags().StringVar(&rasterMapColorizer, "colorizer", "", "Colorizer JSON file (overrides --min/--max)")
	rasterMapCmd.Flags().Float64Var(&rasterMapMin, "min", 0, "Lower bound of the grayscale gradient")
	rasterMapCmd.Flags().Float64Var(&rasterMapMax, "max", 0, "Upper bound of the grayscale gradient")
}
