package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

var (
	proposeItemID string
	proposeTheirs bool
)

var proposeCmd = &cobra.Command{
	Use:   "propose <conversation-id>",
	Short: "Propose a wardrobe item in a conversation",
	Long: `Browse a wardrobe and send an item proposal into the chat.

Without --item, lists the available items in your wardrobe (or the
other participant's with --theirs). With --item, sends the proposal
message carrying a snapshot of the item so it stays renderable even
if the listing is later edited or removed.

Examples:
  swapcircle propose conv-42
  swapcircle propose conv-42 --theirs
  swapcircle propose conv-42 --item item-7
  swapcircle propose conv-42 --item item-9 --theirs`,
	Args: cobra.ExactArgs(1),
	RunE: runPropose,
}

func init() {
	proposeCmd.Flags().StringVarP(&proposeItemID, "item", "i", "", "item id to propose")
	proposeCmd.Flags().BoolVar(&proposeTheirs, "theirs", false, "browse or propose from the other participant's wardrobe")
}

func runPropose(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := requireSession()
	if err != nil {
		return err
	}
	convID := args[0]

	ownerID := s.UserID
	if proposeTheirs {
		conv, err := apiClient.GetConversation(ctx, s, convID)
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		ownerID = conv.OtherParticipant(s.UserID)
		if ownerID == "" {
			return fmt.Errorf("you are not a participant of this conversation")
		}
	}

	items, err := apiClient.Wardrobe(ctx, s, convID, ownerID)
	if err != nil {
		return fmt.Errorf("load wardrobe: %w", err)
	}

	if proposeItemID == "" {
		return printWardrobe(items)
	}

	var picked *models.ItemSummary
	for i := range items {
		if items[i].ID == proposeItemID {
			picked = &items[i]
			break
		}
	}
	if picked == nil {
		return fmt.Errorf("item %s is not in this wardrobe", proposeItemID)
	}

	proposal := chat.NewProposal(*picked, !proposeTheirs)
	msg, err := apiClient.SendMessage(ctx, s, convID, api.SendMessageInput{
		Content:  proposal.Content,
		Type:     models.MessageItemProposal,
		Metadata: &proposal.Snapshot,
	})
	if err != nil {
		return fmt.Errorf("send proposal: %w", err)
	}

	fmt.Printf("Proposed %q (%s).\n", picked.Title, msg.ID)
	return nil
}

func printWardrobe(items []models.ItemSummary) error {
	if len(items) == 0 {
		fmt.Println("No available items in this wardrobe.")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %s\n", item.ID, item.Title)
		details := ""
		if item.Brand != "" {
			details += "brand: " + item.Brand + "  "
		}
		if item.Size != "" {
			details += "size: " + item.Size + "  "
		}
		if item.Condition != "" {
			details += "condition: " + item.Condition
		}
		if details != "" {
			fmt.Printf("    %s\n", details)
		}
	}
	return nil
}
