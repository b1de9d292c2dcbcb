package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/config"
	"github.com/swapcircle/swapcircle-go/internal/models"
	"github.com/swapcircle/swapcircle-go/internal/realtime"
)

var inboxWatch bool

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List your conversations",
	Long: `List all conversations you participate in, most recent
activity first, with unread counts and deal status.

With --watch, stays subscribed to your inbox and reprints the list as
messages and deal updates arrive. Ctrl+C stops watching.`,
	RunE: runInbox,
}

func init() {
	inboxCmd.Flags().BoolVarP(&inboxWatch, "watch", "w", false, "keep watching for live updates")
}

func runInbox(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := requireSession()
	if err != nil {
		return err
	}

	convs, err := apiClient.ListConversations(ctx, s)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if !inboxWatch {
		printRows(chat.Inbox(convs, nil, s.UserID))
		return nil
	}

	return watchInbox(s, convs)
}

// watchInbox folds inbox-scoped realtime events into the directory and
// reprints the listing whenever something changes. The subscription is
// released by Ctrl+C cancelling the context.
func watchInbox(s api.Session, convs []*models.Conversation) error {
	logger, closeLog := config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir := chat.NewDirectory(s.UserID, convs, logger)
	printRows(dir.Rows())
	fmt.Println("Watching for updates. Ctrl+C to stop.")

	err := rtClient.Subscribe(ctx, s, realtime.InboxTopic(s.UserID), func(event any) error {
		if !dir.ApplyEvent(event) {
			return nil
		}
		fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
		printRows(dir.Rows())
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch inbox: %w", err)
	}
	return nil
}

func printRows(rows []chat.Summary) {
	if len(rows) == 0 {
		fmt.Println("No conversations yet.")
		return
	}

	for _, row := range rows {
		unread := ""
		if row.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", row.UnreadCount)
		}
		fmt.Printf("%s  %-20s [%s]%s\n", row.ConversationID, row.OtherUser, row.Status, unread)
		if verbose && row.ItemTitle != "" {
			fmt.Printf("    item: %s\n", row.ItemTitle)
		}
		if row.LastPreview != "" {
			fmt.Printf("    %s  %s\n", formatWhen(row.LastMessageAt), row.LastPreview)
		}
		fmt.Println()
	}
}

// formatWhen renders a message timestamp relative to now, the way the
// inbox list shows it.
func formatWhen(t *time.Time) string {
	if t == nil {
		return ""
	}
	d := time.Since(*t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
