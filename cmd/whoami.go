package cmd

import (
	"fmt"

	"geoengine/cli/internal/auth"

	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command for displaying current session state.
// It validates the stored session with the Geo Engine instance and shows the
// account identifier if the session is still valid.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command displays information about the currently authenticated
account. It validates the stored session against the Geo Engine instance and
shows the account identifier if the session is valid.

If no valid session exists, it will indicate that the user is not logged in.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := auth.ResolveServer(serverFlag)
		if err != nil {
			fmt.Println("🔒 You're not logged in yet!")
			fmt.Println("   Run 'geoengine login' to get started.")
			return nil
		}

		account, ok, err := auth.NewService(server).WhoAmI(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("🔒 You're not logged in yet!")
			fmt.Println("   Run 'geoengine login' to get started.")
			return nil
		}

		fmt.Printf("👤 Current user: %s\n", account)
		fmt.Printf("   Server: %s\n", server)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
