package cmd

import (
	"fmt"
	"strconv"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/httperrors"
	"geoengine/cli/internal/user"

	"github.com/spf13/cobra"
)

// quotaCmd shows and manages computation quotas.
var quotaCmd = &cobra.Command{
	Use:   "quota [user-id]",
	Short: "Show the computation quota",
	Long: `The quota command shows the remaining and used computation quota of the
current session. Administrators can pass a user id to inspect another
user's quota, or use 'quota set' to change it.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := quotaService(cmd)
		if err != nil {
			return err
		}
		var q *user.Quota
		if len(args) == 1 {
			q, err = svc.UserQuota(cmd.Context(), args[0])
		} else {
			q, err = svc.Quota(cmd.Context())
		}
		if err != nil {
			return httperrors.FormatNetworkError(err, "quota")
		}
		fmt.Printf("Available: %d\nUsed:      %d\n", q.Available, q.Used)
		return nil
	},
}

var quotaSetCmd = &cobra.Command{
	Use:   "set <user-id> <available>",
	Short: "Set a user's available quota (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		available, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("available must be an integer: %w", err)
		}
		svc, err := quotaService(cmd)
		if err != nil {
			return err
		}
		if err := svc.UpdateUserQuota(cmd.Context(), args[0], available); err != nil {
			return httperrors.FormatNetworkError(err, "quota set")
		}
		fmt.Printf("✅ Quota for %s set to %d\n", args[0], available)
		return nil
	},
}

func quotaService(cmd *cobra.Command) (*user.Service, error) {
	c, err := auth.CurrentClient(cmd.Context(), serverFlag)
	if err != nil {
		return nil, err
	}
	return user.NewService(c), nil
}

func init() {
	rootCmd.AddCommand(quotaCmd)
	quotaCmd.AddCommand(quotaSetCmd)
}
