package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var startItemID string

var startCmd = &cobra.Command{
	Use:   "start <user-id>",
	Short: "Start a conversation with another user",
	Long: `Start (or resume) a conversation with another user, optionally
anchored to one of their items.

Examples:
  swapcircle start bob
  swapcircle start bob --item item-7`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVarP(&startItemID, "item", "i", "", "item id to anchor the conversation to")
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := requireSession()
	if err != nil {
		return err
	}

	convID, err := apiClient.StartConversation(ctx, s, args[0], startItemID)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}

	fmt.Printf("Conversation %s ready. Open it with 'swapcircle chat %s'.\n", convID, convID)
	return nil
}
