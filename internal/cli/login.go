package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/config"
	"golang.org/x/term"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session",
	Long: `Sign in to SwapCircle with your email and password.

The access token is stored in the session file (SWAPCIRCLE_SESSION_FILE)
and used by every other command until you log out.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearSession(cfg.SessionFile); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (prompted if omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	s, err := apiClient.SignIn(ctx, email, string(password))
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	if err := config.SaveSession(cfg.SessionFile, s); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	session = s

	fmt.Printf("Signed in as %s.\n", email)
	return nil
}
