// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"geoengine/cli/internal/auth"

	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command for clearing authentication state.
// It removes the stored session token and local state, and attempts to
// invalidate the session on the server (best-effort remote logout).
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and remove stored credentials",
	Long: `The logout command clears the session state from the local system. It also
attempts to notify the Geo Engine instance to invalidate the session
(best-effort; an unreachable server does not block the local cleanup).

This command removes:
- The session token from the OS keychain
- Local authentication state`,

	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := auth.ResolveServer(serverFlag)
		if err != nil {
			// No server known; still clear whatever local state exists
			_ = auth.Clear()
			fmt.Println("✅ Local session state removed")
			return nil
		}
		if err := auth.NewService(server).Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✅ Session ended and credentials removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
