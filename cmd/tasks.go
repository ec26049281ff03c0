// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"time"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/tasks"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	tasksAbortForce  bool
	tasksWaitSeconds int
)

// tasksCmd groups the task monitoring subcommands.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Monitor and control server-side tasks",
	Long: `The tasks command group monitors long-running operations on the Geo Engine
instance, such as storing a workflow result as a dataset. Tasks can be
listed, inspected, aborted, and awaited.`,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known tasks and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := tasksService(cmd)
		if err != nil {
			return err
		}
		list, err := svc.List(cmd.Context())
		if err != nil {
			return httperrors.FormatNetworkError(err, "tasks list")
		}
		if len(list) == 0 {
			fmt.Println("No tasks")
			return nil
		}
		rows := pterm.TableData{{"Task", "Status"}}
		for _, t := range list {
			rows = append(rows, []string{t.TaskId.String(), t.StatusInfo.String()})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the status of one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := tasks.ParseId(args[0])
		if err != nil {
			return err
		}
		svc, err := tasksService(cmd)
		if err != nil {
			return err
		}
		st, err := svc.Status(cmd.Context(), id)
		if err != nil {
			return httperrors.FormatNetworkError(err, "tasks status")
		}
		fmt.Println(st)
		return nil
	},
}

var tasksAbortCmd = &cobra.Command{
	Use:   "abort <task-id>",
	Short: "Abort a running task",
	Long: `Abort requests cancellation of a running task. With --force the server
skips its clean-up phase, which may leave partial results behind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := tasks.ParseId(args[0])
		if err != nil {
			return err
		}
		svc, err := tasksService(cmd)
		if err != nil {
			return err
		}
		if err := svc.Abort(cmd.Context(), id, tasksAbortForce); err != nil {
			return httperrors.FormatNetworkError(err, "tasks abort")
		}
		fmt.Printf("✅ Abort requested for task %s\n", id)
		return nil
	},
}

var tasksWaitCmd = &cobra.Command{
	Use:   "wait <task-id>",
	Short: "Wait for a task to finish, showing progress",
	Long: `Wait polls the task status until the task reaches a final state
(completed, aborted or failed) and shows the reported progress while
waiting. The poll interval is configurable with --interval.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := tasks.ParseId(args[0])
		if err != nil {
			return err
		}
		svc, err := tasksService(cmd)
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("Waiting for task " + id.String())
		final, err := svc.Wait(cmd.Context(), id, time.Duration(tasksWaitSeconds)*time.Second, func(st *tasks.StatusInfo) {
			spinner.UpdateText(st.String())
		})
		if err != nil {
			spinner.Fail("Task polling failed")
			return httperrors.FormatNetworkError(err, "tasks wait")
		}

		switch final.Status {
		case tasks.StatusCompleted:
			spinner.Success(final.String())
		case tasks.StatusAborted:
			spinner.Warning(final.String())
		default:
			spinner.Fail(final.String())
		}
		return nil
	},
}

func tasksService(cmd *cobra.Command) (*tasks.Service, error) {
	c, err := auth.CurrentClient(cmd.Context(), serverFlag)
	if err != nil {
		return nil, err
	}
	return tasks.NewService(c), nil
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksStatusCmd)
	tasksCmd.AddCommand(tasksAbortCmd)
	tasksCmd.AddCommand(tasksWaitCmd)

	tasksAbortCmd.Flags().BoolVar(&tasksAbortForce, "force", false, "Skip the server-side clean-up phase")
	tasksWaitCmd.Flags().IntVar(&tasksWaitSeconds, "interval", 5, "Poll interval in seconds")
}
