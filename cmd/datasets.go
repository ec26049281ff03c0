// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/datasets"
	"geoengine/cli/internal/geo"
	"geoengine/cli/internal/httperrors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	datasetsUploadName    string
	datasetsUploadSRS     string
	datasetsUploadOnError string
	datasetsUploadStart   string
	datasetsUploadFormat  string
)

// datasetsCmd groups the dataset subcommands.
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Upload and inspect datasets",
	Long: `The datasets command group uploads GeoJSON data as new datasets on the
Geo Engine instance and inspects the configured data volumes.`,
}

var datasetsUploadCmd = &cobra.Command{
	Use:   "upload <features.geojson>",
	Short: "Upload a GeoJSON file as a new dataset",
	Long: `Upload reads a GeoJSON FeatureCollection from the given file (or stdin
when the argument is "-") and creates a dataset from it. The vector data
type and the attribute columns are derived from the features.

Feature validity time comes from --time-field when given, otherwise the
dataset has no time information.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		fc, err := geo.DecodeFeatureCollection(data, datasetsUploadSRS)
		if err != nil {
			return err
		}

		spec := datasets.NoTime()
		if datasetsUploadStart != "" {
			format := datasets.AutoTimeFormat()
			if datasetsUploadFormat == "seconds" {
				format = datasets.SecondsTimeFormat()
			} else if datasetsUploadFormat != "" && datasetsUploadFormat != "auto" {
				format = datasets.CustomTimeFormat(datasetsUploadFormat)
			}
			spec = datasets.StartTime(datasetsUploadStart, format, datasets.ZeroDuration())
		}

		onError := datasets.OnError(datasetsUploadOnError)
		if onError != datasets.OnErrorIgnore && onError != datasets.OnErrorAbort {
			return fmt.Errorf("--on-error must be %q or %q", datasets.OnErrorIgnore, datasets.OnErrorAbort)
		}

		c, err := auth.CurrentClient(ctx, serverFlag)
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stderr, "Uploading")
		id, err := datasets.NewService(c).UploadFeatures(ctx, fc, datasetsUploadName, spec, onError)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "datasets upload")
		}
		fmt.Printf("✅ Dataset created: %s\n", id)
		return nil
	},
}

var datasetsVolumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List the data volumes configured on the instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := auth.CurrentClient(cmd.Context(), serverFlag)
		if err != nil {
			return err
		}
		volumes, err := datasets.NewService(c).Volumes(cmd.Context())
		if err != nil {
			return httperrors.FormatNetworkError(err, "datasets volumes")
		}
		if len(volumes) == 0 {
			fmt.Println("No volumes configured")
			return nil
		}
		rows := pterm.TableData{{"Name", "Path"}}
		for _, v := range volumes {
			rows = append(rows, []string{v.Name, v.Path})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(datasetsUploadCmd)
	datasetsCmd.AddCommand(datasetsVolumesCmd)

	datasetsUploadCmd.Flags().StringVar(&datasetsUploadName, "name", "", "Dataset name (required)")
	datasetsUploadCmd.Flags().StringVar(&datasetsUploadSRS, "srs", "EPSG:4326", "Spatial reference of the uploaded features")
	datasetsUploadCmd.Flags().StringVar(&datasetsUploadOnError, "on-error", string(datasets.OnErrorAbort), "How the server handles bad features (ignore or abort)")
	datasetsUploadCmd.Flags().StringVar(&datasetsUploadStart, "time-field", "", "Feature property holding the start time")
	datasetsUploadCmd.Flags().StringVar(&datasetsUploadFormat, "time-format", "auto", "Time format of the start field (auto, seconds, or a custom format string)")
	_ = datasetsUploadCmd.MarkFlagRequired("name")
}
