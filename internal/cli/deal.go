package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/deal"
)

var dealCmd = &cobra.Command{
	Use:   "deal <agree|complete|cancel> <conversation-id>",
	Short: "Invoke a deal action on a conversation",
	Long: `Invoke a deal action and print the resulting deal state.

Agreement and completion are bilateral: your signal is recorded and the
status only advances once both participants have signaled. Cancel ends
the negotiation immediately and cannot be undone.

Examples:
  swapcircle deal agree conv-42
  swapcircle deal complete conv-42
  swapcircle deal cancel conv-42`,
	Args: cobra.ExactArgs(2),
	RunE: runDeal,
}

func runDeal(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := requireSession()
	if err != nil {
		return err
	}

	action := deal.Action(args[0])
	if !action.Valid() {
		return fmt.Errorf("unknown deal action %q (want agree, complete or cancel)", args[0])
	}
	convID := args[1]

	conv, err := apiClient.GetConversation(ctx, s, convID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	thread := chat.NewThread(s.UserID, conv, nil)
	ctl := deal.NewController(apiClient, thread)
	if err := ctl.Invoke(ctx, s, action); err != nil {
		return fmt.Errorf("deal %s: %w", action, err)
	}

	after := thread.Conversation()
	fmt.Printf("Deal status: %s\n", after.Status)
	switch {
	case after.Status.Terminal():
		// Nothing further to signal.
	case after.AgreedBy(s.UserID) && !after.AgreedBy(after.OtherParticipant(s.UserID)):
		fmt.Println("Waiting for the other party to agree.")
	case after.MarkedCompleteBy(s.UserID) && !after.MarkedCompleteBy(after.OtherParticipant(s.UserID)):
		fmt.Println("Waiting for the other party to confirm completion.")
	}

	return nil
}
