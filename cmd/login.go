// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"geoengine/cli/internal/auth"
	"geoengine/cli/internal/httperrors"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail     string
	loginPassword  string
	loginToken     string
	loginAnonymous bool
)

// loginCmd represents the login command for establishing a Geo Engine session.
// It supports credentialed login, anonymous sessions (when the instance allows
// them), and resuming an existing session from a token. The resulting session
// token is stored securely in the OS keychain.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against a Geo Engine instance",
	Long: `The login command establishes a session with a Geo Engine instance and stores
the session token securely in the OS keychain for use by subsequent commands.

Three modes are supported:
  --email/--password   credentialed login (password is prompted when omitted)
  --anonymous          anonymous session, if the instance permits them
  --token              adopt an existing session token

The server URL comes from --server, the GEOENGINE_SERVER_URL environment
variable, or the stored configuration, in that order.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		server, err := auth.ResolveServer(serverFlag)
		if err != nil {
			return err
		}
		svc := auth.NewService(server)

		// If already logged in with a valid session, short-circuit
		if account, ok, _ := svc.WhoAmI(ctx); ok {
			fmt.Printf("Already logged in as %s\n", account)
			fmt.Println("   Run 'geoengine logout' first to switch accounts.")
			return nil
		}

		switch {
		case loginAnonymous:
			stop := startInlineSpinner(os.Stderr, "Connecting")
			sess, err := svc.Anonymous(ctx)
			stop()
			if err != nil {
				return httperrors.FormatNetworkError(err, "login")
			}
			fmt.Printf("✅ Anonymous session established (valid until %s)\n", sess.ValidUntil)
			return nil

		case loginToken != "":
			sess, err := svc.LoginWithToken(ctx, loginToken)
			if err != nil {
				return httperrors.FormatNetworkError(err, "login")
			}
			fmt.Printf("✅ Session resumed as %s\n", sess.Account())
			return nil

		default:
			email := strings.TrimSpace(loginEmail)
			if email == "" {
				fmt.Print("Email: ")
				if _, err := fmt.Scanln(&email); err != nil {
					return fmt.Errorf("email is required")
				}
			}
			password := loginPassword
			if password == "" {
				fmt.Print("Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = string(raw)
			}

			stop := startInlineSpinner(os.Stderr, "Logging in")
			sess, err := svc.Login(ctx, email, password)
			stop()
			if err != nil {
				return httperrors.FormatNetworkError(err, "login")
			}
			fmt.Printf("✅ Logged in as %s\n", sess.Account())
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted; prefer the prompt)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Adopt an existing session token instead of logging in")
	loginCmd.Flags().BoolVar(&loginAnonymous, "anonymous", false, "Establish an anonymous session")
}
