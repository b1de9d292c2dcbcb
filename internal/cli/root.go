// Package cli provides the command-line interface for swapcircle.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/config"
	"github.com/swapcircle/swapcircle-go/internal/metrics"
	"github.com/swapcircle/swapcircle-go/internal/realtime"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and clients
	cfg       config.Config
	apiClient *api.Client
	rtClient  *realtime.Client
	stats     *metrics.Collector

	// Loaded lazily; commands that need auth call requireSession.
	session api.Session
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "swapcircle",
	Short: "SwapCircle clothing-swap marketplace client",
	Long: `Swapcircle is a terminal client for the SwapCircle peer-to-peer
clothing-swap marketplace.

Browse your conversations, chat with swap partners in a live TUI,
propose wardrobe items, and walk a deal from first interest through
mutual agreement to the completed swap.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		stats = metrics.NewCollector()
		apiClient = api.New(cfg.APIURL).WithStats(stats)
		rtClient = realtime.New(cfg.RealtimeURL, nil).WithStats(stats)

		// Best effort: most commands need a session, login does not.
		s, err := config.LoadSession(cfg.SessionFile)
		if err != nil && !errors.Is(err, config.ErrNoSession) {
			return err
		}
		session = s

		return nil
	},
}

// requireSession returns the stored session or a sign-in hint.
func requireSession() (api.Session, error) {
	if !session.Valid() {
		return api.Session{}, fmt.Errorf("%w: run 'swapcircle login' first", api.ErrUnauthorized)
	}
	return session, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(dealCmd)
	rootCmd.AddCommand(statsCmd)
}
