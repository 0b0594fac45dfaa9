package cli

import (
	"fmt"

	"github.com/fnos-labs/fnos-cli/internal/api"
	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	loginEndpoint string
	loginUsername string
	loginPassword string
)

func init() {
	loginCmd.Flags().StringVarP(&loginEndpoint, "endpoint", "e", "", "Server endpoint (e.g., nas.local:5666)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
	for _, name := range []string{"endpoint", "username", "password"} {
		_ = loginCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the fnOS system and save credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := config.Credentials{Endpoint: loginEndpoint, Username: loginUsername, Password: loginPassword}

		client, err := api.Connect(cmd.Context(), creds, api.WithLogger(log))
		if err != nil {
			return withExitCode(ExitLoginFailed, fmt.Errorf("login failed: %w", err))
		}
		defer client.Close()

		session := client.Session()
		creds.Token = session.Token
		creds.LongToken = session.LongToken
		creds.Secret = session.Secret
		if err := settings.SaveCredentials(creds); err != nil {
			return withExitCode(ExitLoginFailed, fmt.Errorf("saving credentials: %w", err))
		}

		log.Info("Login successful! Credentials saved.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and clear saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !settings.Exists() || settings.Credentials() == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved credentials found.")
			return nil
		}
		if err := settings.ClearCredentials(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully. Credentials cleared.")
		return nil
	},
}
