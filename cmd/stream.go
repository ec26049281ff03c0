// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	streamQuery  queryFlags
	streamOutDir string
)

// streamCmd groups the streaming subcommands. Results arrive incrementally
// over a websocket as Apache Arrow record batches and are written to one
// .arrow file per tile or chunk.
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream workflow results as Apache Arrow files",
	Long: `The stream command group fetches workflow results incrementally over a
websocket connection. Each raster tile or vector chunk arrives as an Apache
Arrow record batch and is written to its own .arrow file in --out-dir.`,
}

var streamRasterCmd = &cobra.Command{
	Use:   "raster <workflow-id>",
	Short: "Stream raster tiles into .arrow files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := streamQuery.parse()
		if err != nil {
			return err
		}
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(streamOutDir, 0o755); err != nil {
			return err
		}

		n := 0
		err = w.RasterStream(ctx, rect, func(tile *workflow.RasterTile) error {
			path := filepath.Join(streamOutDir, fmt.Sprintf("tile-%05d.arrow", n))
			if err := os.WriteFile(path, tile.Raw, 0o644); err != nil {
				return err
			}
			fmt.Printf("tile %d: %dx%d px, time %s, srs %s\n",
				n, tile.XSize, tile.YSize, tile.Time, tile.SpatialReference)
			n++
			return nil
		})
		if err != nil {
			return httperrors.FormatNetworkError(err, "stream raster")
		}
		fmt.Printf("✅ %d tiles written to %s\n", n, streamOutDir)
		return nil
	},
}

var streamVectorCmd = &cobra.Command{
	Use:   "vector <workflow-id>",
	Short: "Stream vector chunks into .arrow files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := streamQuery.parse()
		if err != nil {
			return err
		}
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(streamOutDir, 0o755); err != nil {
			return err
		}

		n := 0
		err = w.VectorStream(ctx, rect, func(chunk *workflow.VectorChunk) error {
			path := filepath.Join(streamOutDir, fmt.Sprintf("chunk-%05d.arrow", n))
			if err := os.WriteFile(path, chunk.Raw, 0o644); err != nil {
				return err
			}
			fmt.Printf("chunk %d: %d features, srs %s\n",
				n, chunk.Record.NumRows(), chunk.SpatialReference)
			n++
			return nil
		})
		if err != nil {
			return httperrors.FormatNetworkError(err, "stream vector")
		}
		fmt.Printf("✅ %d chunks written to %s\n", n, streamOutDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.AddCommand(streamRasterCmd)
	streamCmd.AddCommand(streamVectorCmd)

	streamQuery.register(streamRasterCmd)
	streamQuery.register(streamVectorCmd)
	streamCmd.PersistentFlags().StringVar(&streamOutDir, "out-dir", ".", "Directory for the .arrow output files")
}
