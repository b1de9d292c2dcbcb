package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/api"
)

var sendCmd = &cobra.Command{
	Use:   "send <conversation-id> <message...>",
	Short: "Send a text message without opening the chat UI",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := requireSession()
	if err != nil {
		return err
	}

	convID := args[0]
	content := strings.Join(args[1:], " ")
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is empty")
	}

	msg, err := apiClient.SendMessage(ctx, s, convID, api.SendMessageInput{Content: content})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	fmt.Printf("Sent %s at %s.\n", msg.ID, msg.CreatedAt.Format("15:04:05"))
	return nil
}
