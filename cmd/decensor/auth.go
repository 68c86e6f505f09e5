package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"decensor/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the dataset host API token",
	Long: `Manage the optional API token for the dataset host.

The community dataset is served through a hosting API with tight
anonymous request limits. A personal access token (no scopes needed)
raises those limits. The token is stored in the system keychain when
available; the ` + auth.EnvToken + ` environment variable works as a
read-only fallback.`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the API token securely",
	Long: `Store the dataset host API token in the system keychain.

You will be prompted for the token; input is not echoed.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API token is stored",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	fmt.Print("API token: ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	manager := auth.NewManager()
	if err := manager.Store(token); err != nil {
		return err
	}

	fmt.Println("Token stored.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()
	if err := manager.Delete(); err != nil {
		if err == auth.ErrTokenNotFound {
			fmt.Println("No token stored.")
			return nil
		}
		return err
	}

	fmt.Println("Token removed.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()

	if os.Getenv(auth.EnvToken) != "" {
		fmt.Println("Token set via " + auth.EnvToken + " environment variable.")
		return nil
	}

	if manager.Exists() {
		fmt.Println("Token stored in the system keychain.")
	} else {
		fmt.Println("No token stored; requests are anonymous.")
	}

	return nil
}
