// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/workflow"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	workflowSaveName        string
	workflowSaveDisplayName string
	workflowSaveDescription string
	workflowZipOut          string
	workflowSaveQuery       queryFlags
)

// workflowCmd groups the workflow subcommands.
var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Register and inspect workflows",
	Long: `The workflow command group registers workflow definitions and inspects
registered workflows: their result descriptor, the stored definition,
provenance of the source data, and exported metadata.`,
}

var workflowRegisterCmd = &cobra.Command{
	Use:   "register <definition.json>",
	Short: "Register a workflow definition",
	Long: `Register reads a workflow definition (JSON operator graph) from the given
file, or from stdin when the argument is "-", and registers it with the
Geo Engine instance. On success it prints the new workflow id and the
result type.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		definition, err := readInput(args[0])
		if err != nil {
			return err
		}
		if !json.Valid(definition) {
			return fmt.Errorf("workflow definition is not valid JSON")
		}

		c, err := auth.CurrentClient(ctx, serverFlag)
		if err != nil {
			return err
		}
		w, err := workflow.NewService(c).Register(ctx, definition)
		if err != nil {
			return httperrors.FormatNetworkError(err, "workflow register")
		}
		fmt.Printf("✅ Registered workflow %s (%s)\n", w.Id(), w.ResultDescriptor().Type)
		return nil
	},
}

var workflowInfoCmd = &cobra.Command{
	Use:   "info <workflow-id>",
	Short: "Show a workflow's result descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}

		d := w.ResultDescriptor()
		rows := pterm.TableData{{"Type", d.Type}}
		if d.SpatialReference != "" {
			rows = append(rows, []string{"Spatial reference", d.SpatialReference})
		}
		if d.DataType != "" {
			rows = append(rows, []string{"Data type", d.DataType})
		}
		if d.Measurement != nil {
			rows = append(rows, []string{"Measurement", d.Measurement.Type})
		}
		if len(d.Columns) > 0 {
			names := make([]string, 0, len(d.Columns))
			for name := range d.Columns {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				rows = append(rows, []string{"Column " + name, d.Columns[name].DataType})
			}
		}
		return pterm.DefaultTable.WithData(rows).Render()
	},
}

var workflowDefinitionCmd = &cobra.Command{
	Use:   "definition <workflow-id>",
	Short: "Print the stored workflow definition as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}
		definition, err := w.Definition(cmd.Context())
		if err != nil {
			return httperrors.FormatNetworkError(err, "workflow definition")
		}
		var pretty json.RawMessage = definition
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var workflowProvenanceCmd = &cobra.Command{
	Use:   "provenance <workflow-id>",
	Short: "Show the provenance of the workflow's source data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}
		entries, err := w.Provenance(cmd.Context())
		if err != nil {
			return httperrors.FormatNetworkError(err, "workflow provenance")
		}
		if len(entries) == 0 {
			fmt.Println("No provenance information available")
			return nil
		}
		rows := pterm.TableData{{"Citation", "License", "URI"}}
		for _, e := range entries {
			rows = append(rows, []string{e.Provenance.Citation, e.Provenance.License, e.Provenance.URI})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var workflowMetadataZipCmd = &cobra.Command{
	Use:   "metadata-zip <workflow-id>",
	Short: "Download the workflow metadata archive",
	Long: `Metadata-zip downloads the zip archive with all metadata of the workflow
(definition, result descriptor, provenance and citation files) and writes it
to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}
		out, closeOut, err := openOutput(workflowZipOut)
		if err != nil {
			return err
		}
		if closeOut {
			defer out.Close()
		}
		if err := w.MetadataZip(cmd.Context(), out); err != nil {
			return httperrors.FormatNetworkError(err, "workflow metadata-zip")
		}
		if workflowZipOut != "" && workflowZipOut != "-" {
			fmt.Printf("✅ Metadata written to %s\n", workflowZipOut)
		}
		return nil
	},
}

var workflowSaveCmd = &cobra.Command{
	Use:   "save <workflow-id>",
	Short: "Store a raster workflow's result as a server-side dataset",
	Long: `Save asks the Geo Engine instance to execute the raster workflow over the
given query rectangle and store the result as a new dataset. The server runs
this as a background task; the printed task id can be monitored with
'geoengine tasks status' or 'geoengine tasks wait'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rect, err := workflowSaveQuery.parse()
		if err != nil {
			return err
		}
		w, err := lookupWorkflow(cmd, args[0])
		if err != nil {
			return err
		}
		taskId, err := w.SaveAsDataset(ctx, rect, workflowSaveName, workflowSaveDisplayName, workflowSaveDescription)
		if err != nil {
			return httperrors.FormatNetworkError(err, "workflow save")
		}
		fmt.Printf("✅ Dataset creation started, task id %s\n", taskId)
		fmt.Printf("   Monitor with: geoengine tasks wait %s\n", taskId)
		return nil
	},
}

// lookupWorkflow resolves the current session and loads the workflow with its
// result descriptor.
func lookupWorkflow(cmd *cobra.Command, rawId string) (*workflow.Workflow, error) {
	ctx := cmd.Context()
	id, err := workflow.ParseId(rawId)
	if err != nil {
		return nil, err
	}
	c, err := auth.CurrentClient(ctx, serverFlag)
	if err != nil {
		return nil, err
	}
	w, err := workflow.NewService(c).Get(ctx, id)
	if err != nil {
		return nil, httperrors.FormatNetworkError(err, "workflow lookup")
	}
	return w, nil
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowRegisterCmd)
	workflowCmd.AddCommand(workflowInfoCmd)
	workflowCmd.AddCommand(workflowDefinitionCmd)
	workflowCmd.AddCommand(workflowProvenanceCmd)
	workflowCmd.AddCommand(workflowMetadataZipCmd)
	workflowCmd.AddCommand(workflowSaveCmd)

	workflowMetadataZipCmd.Flags().StringVar(&workflowZipOut, "out", "", "Output file (\"-\" or empty for stdout)")

	workflowSaveQuery.register(workflowSaveCmd)
	workflowSaveCmd.Flags().StringVar(&workflowSaveName, "name", "", "Internal dataset name (optional)")
	workflowSaveCmd.Flags().StringVar(&workflowSaveDisplayName, "display-name", "", "Display name of the new dataset (required)")
	workflowSaveCmd.Flags().StringVar(&workflowSaveDescription, "description", "", "Description of the new dataset")
	_ = workflowSaveCmd.MarkFlagRequired("display-name")
}
