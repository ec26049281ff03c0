// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/layers"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	layersOffset int
	layersLimit  int

	layersAddDescription string
	layersAddWorkflow    string
	layersAddSymbology   string
)

// layersCmd groups the layer catalog subcommands.
var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Browse and manage the layer catalog",
	Long: `The layers command group browses the layer catalog of the Geo Engine
instance and manages the writable layer database: listing collections,
showing layers, and adding or removing entries.`,
}

var layersListCmd = &cobra.Command{
	Use:   "list [provider-id collection-id]",
	Short: "List a layer collection (the root collection by default)",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := layersService(cmd)
		if err != nil {
			return err
		}

		var collection *layers.Collection
		switch len(args) {
		case 0:
			collection, err = svc.RootCollection(cmd.Context(), layersOffset, layersLimit)
		case 2:
			collection, err = svc.Collection(cmd.Context(),
				layers.ProviderId(args[0]), layers.CollectionId(args[1]), layersOffset, layersLimit)
		default:
			return fmt.Errorf("pass either no arguments or a provider id and a collection id")
		}
		if err != nil {
			return httperrors.FormatNetworkError(err, "layers list")
		}

		pterm.DefaultSection.Println(collection.Name)
		if collection.Description != "" {
			pterm.Println(collection.Description)
		}
		if len(collection.Items) == 0 {
			fmt.Println("Empty collection")
			return nil
		}
		rows := pterm.TableData{{"Type", "Id", "Name"}}
		for _, item := range collection.Items {
			id := string(item.Id.CollectionId)
			if item.Type == layers.ItemTypeLayer {
				id = string(item.Id.LayerId)
			}
			rows = append(rows, []string{item.Type, id, item.Name})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var layersShowCmd = &cobra.Command{
	Use:   "show <provider-id> <layer-id>",
	Short: "Show a layer including its workflow definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := layersService(cmd)
		if err != nil {
			return err
		}
		layer, err := svc.Layer(cmd.Context(), layers.ProviderId(args[0]), layers.LayerId(args[1]))
		if err != nil {
			return httperrors.FormatNetworkError(err, "layers show")
		}

		pterm.DefaultSection.Println(layer.Name)
		if layer.Description != "" {
			pterm.Println(layer.Description)
		}
		if len(layer.Workflow) > 0 {
			out, err := json.MarshalIndent(layer.Workflow, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
		return nil
	},
}

var layersAddCollectionCmd = &cobra.Command{
	Use:   "add-collection <parent-collection-id> <name>",
	Short: "Add a collection to the layer database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := layersService(cmd)
		if err != nil {
			return err
		}
		id, err := svc.AddCollection(cmd.Context(), layers.CollectionId(args[0]), args[1], layersAddDescription)
		if err != nil {
			return httperrors.FormatNetworkError(err, "layers add-collection")
		}
		fmt.Printf("✅ Collection created: %s\n", id)
		return nil
	},
}

var layersAddLayerCmd = &cobra.Command{
	Use:   "add-layer <collection-id> <name>",
	Short: "Add a layer to a layer database collection",
	Long: `Add-layer stores a new layer in the writable layer database. The layer's
workflow definition is read from the --workflow JSON file; an optional
symbology can be provided with --symbology.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowDef, err := readInput(layersAddWorkflow)
		if err != nil {
			return err
		}
		var symbology json.RawMessage
		if layersAddSymbology != "" {
			symbology, err = readInput(layersAddSymbology)
			if err != nil {
				return err
			}
		}

		svc, err := layersService(cmd)
		if err != nil {
			return err
		}
		id, err := svc.AddLayer(cmd.Context(), layers.CollectionId(args[0]), args[1],
			layersAddDescription, workflowDef, symbology)
		if err != nil {
			return httperrors.FormatNetworkError(err, "layers add-layer")
		}
		fmt.Printf("✅ Layer created: %s\n", id)
		return nil
	},
}

var layersRemoveCollectionCmd = &cobra.Command{
	Use:   "rm-collection <collection-id>",
	Short: "Remove a collection from the layer database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := layersService(cmd)
		if err != nil {
			return err
		}
		if err := svc.RemoveCollection(cmd.Context(), layers.CollectionId(args[0])); err != nil {
			return httperrors.FormatNetworkError(err, "layers rm-collection")
		}
		fmt.Println("✅ Collection removed")
		return nil
	},
}

var layersRemoveLayerCmd = &cobra.Command{
	Use:   "rm-layer <collection-id> <layer-id>",
	Short: "Remove a layer from a layer database collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := layersService(cmd)
		if err != nil {
			return err
		}
		if err := svc.RemoveLayerFromCollection(cmd.Context(),
			layers.CollectionId(args[0]), layers.LayerId(args[1])); err != nil {
			return httperrors.FormatNetworkError(err, "layers rm-layer")
		}
		fmt.Println("✅ Layer removed")
		return nil
	},
}

func layersService(cmd *cobra.Command) (*layers.Service, error) {
	c, err := auth.CurrentClient(cmd.Context(), serverFlag)
	if err != nil {
		return nil, err
	}
	return layers.NewService(c), nil
}

func init() {
	rootCmd.AddCommand(layersCmd)
	layersCmd.AddCommand(layersListCmd)
	layersCmd.AddCommand(layersShowCmd)
	layersCmd.AddCommand(layersAddCollectionCmd)
	layersCmd.AddCommand(layersAddLayerCmd)
	layersCmd.AddCommand(layersRemoveCollectionCmd)
	layersCmd.AddCommand(layersRemoveLayerCmd)

	layersListCmd.Flags().IntVar(&layersOffset, "offset", 0, "Pagination offset")
	layersListCmd.Flags().IntVar(&layersLimit, "limit", 20, "Pagination limit")

	layersAddCollectionCmd.Flags().StringVar(&layersAddDescription, "description", "", "Collection description")
	layersAddLayerCmd.Flags().StringVar(&layersAddDescription, "description", "", "Layer description")
	layersAddLayerCmd.Flags().StringVar(&layersAddWorkflow, "workflow", "", "Workflow definition JSON file (required)")
	layersAddLayerCmd.Flags().StringVar(&layersAddSymbology, "symbology", "", "Symbology JSON file")
	_ = layersAddLayerCmd.MarkFlagRequired("workflow")
}
