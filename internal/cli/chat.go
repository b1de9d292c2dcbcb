package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/config"
	"github.com/swapcircle/swapcircle-go/internal/deal"
	"github.com/swapcircle/swapcircle-go/internal/metrics"
	"github.com/swapcircle/swapcircle-go/internal/models"
	"github.com/swapcircle/swapcircle-go/internal/realtime"
)

var chatCmd = &cobra.Command{
	Use:   "chat <conversation-id>",
	Short: "Open a conversation in the live chat UI",
	Long: `Open a conversation in an interactive terminal chat.

Messages arrive live over the realtime connection. Deal actions are
bound to keys: ctrl+g to agree, ctrl+t to mark the swap complete,
ctrl+x to cancel the deal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(args[0])
	},
}

// Theme holds the color scheme for the chat display.
type Theme struct {
	Mine   lipgloss.Color
	Theirs lipgloss.Color
	System lipgloss.Color
	Accent lipgloss.Color
	Error  lipgloss.Color
	Hint   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Mine:   lipgloss.Color("#00D787"), // green
	Theirs: lipgloss.Color("#5FAFD7"), // light blue
	System: lipgloss.Color("#AF87FF"), // violet
	Accent: lipgloss.Color("#FFAF00"), // amber
	Error:  lipgloss.Color("#FF005F"), // red
	Hint:   lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) mineStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Mine).Bold(true)
}

func (t Theme) theirsStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Theirs).Bold(true)
}

func (t Theme) systemStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.System).Italic(true)
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// dealSteps are the four stages of the deal progress strip.
var dealSteps = [4]string{"interested", "negotiating", "agreed", "swapped"}

// rtEventMsg carries one decoded realtime event into the UI loop.
type rtEventMsg struct{ event any }

// subClosedMsg signals the subscription ended; err is nil on a clean
// context cancellation.
type subClosedMsg struct{ err error }

// sentMsg carries the result of an outgoing message send. content is
// the typed text, kept so a failed send can restore the compose input.
type sentMsg struct {
	content string
	message *models.Message
	err     error
}

// dealDoneMsg carries the result of a deal action.
type dealDoneMsg struct {
	action deal.Action
	err    error
}

// chatModel is the bubbletea model for one open conversation.
type chatModel struct {
	session api.Session
	thread  *chat.Thread
	ctl     *deal.Controller
	cancel  context.CancelFunc
	events  <-chan tea.Msg

	viewport viewport.Model
	input    textinput.Model
	theme    Theme

	width  int
	height int
	ready  bool

	notice   string
	err      error
	quitting bool
}

func newChatModel(s api.Session, thread *chat.Thread, ctl *deal.Controller, cancel context.CancelFunc, events <-chan tea.Msg) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message…"
	input.CharLimit = 2000
	input.Focus()

	return chatModel{
		session:  s,
		thread:   thread,
		ctl:      ctl,
		cancel:   cancel,
		events:   events,
		viewport: viewport.New(),
		input:    input,
		theme:    defaultTheme,
	}
}

// Init starts the realtime event pump.
func (m chatModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent blocks on the subscription channel and hands the next
// message to Update. Re-armed after every delivery.
func (m chatModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return subClosedMsg{}
		}
		return msg
	}
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(max(msg.Height-6, 3))
		m.input.SetWidth(max(msg.Width-4, 10))
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "ctrl+g":
			return m.invokeDeal(deal.ActionAgree)
		case "ctrl+t":
			return m.invokeDeal(deal.ActionComplete)
		case "ctrl+x":
			return m.invokeDeal(deal.ActionCancel)
		}

	case rtEventMsg:
		m.thread.ApplyEvent(msg.event)
		m.refresh()
		return m, m.waitForEvent()

	case subClosedMsg:
		if msg.err != nil && !m.quitting {
			m.err = fmt.Errorf("realtime connection lost: %w", msg.err)
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case sentMsg:
		if msg.err != nil {
			// Give the typed message back so the user can retry.
			m.input.SetValue(msg.content)
			m.notice = "send failed: " + msg.err.Error()
			m.refresh()
			return m, nil
		}
		// Optimistic append; the realtime redelivery reconciles by id.
		m.thread.AppendLocal(*msg.message)
		m.notice = ""
		m.refresh()
		return m, nil

	case dealDoneMsg:
		if msg.err != nil {
			m.notice = dealFailureNotice(msg.action, msg.err)
		} else {
			m.notice = ""
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line as a text message.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	if m.thread.Conversation().Status.Terminal() {
		m.notice = "this conversation is closed"
		m.refresh()
		return m, nil
	}
	m.input.SetValue("")

	session := m.session
	convID := m.thread.Conversation().ID
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sent, err := apiClient.SendMessage(ctx, session, convID, api.SendMessageInput{Content: content})
		return sentMsg{content: content, message: sent, err: err}
	}
}

// invokeDeal submits a deal action through the controller. The
// controller refuses a second submission while one is outstanding, so
// mashing the key is harmless.
func (m chatModel) invokeDeal(action deal.Action) (tea.Model, tea.Cmd) {
	session := m.session
	ctl := m.ctl
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return dealDoneMsg{action: action, err: ctl.Invoke(ctx, session, action)}
	}
}

// dealFailureNotice maps controller errors onto short UI notices.
func dealFailureNotice(action deal.Action, err error) string {
	switch {
	case errors.Is(err, deal.ErrActionInFlight):
		return "hold on, previous action still in flight"
	case errors.Is(err, deal.ErrAlreadyAgreed):
		return "deal is already agreed"
	case errors.Is(err, deal.ErrNotAgreed):
		return "both parties must agree before completing"
	case errors.Is(err, deal.ErrDealClosed):
		return "deal is closed"
	default:
		return fmt.Sprintf("%s failed: %s", action, err)
	}
}

// refresh re-renders the transcript into the viewport and follows the
// tail.
func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	if !m.ready {
		return tea.NewView("Loading conversation…\n")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.theme.errorStyle().Render(m.notice))
	}
	b.WriteString("\n> ")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("enter send · ctrl+g agree · ctrl+t complete · ctrl+x cancel deal · esc quit"))
	return tea.NewView(b.String())
}

// renderHeader shows the counterparty, the item under negotiation and
// the deal progress strip.
func (m chatModel) renderHeader() string {
	conv := m.thread.Conversation()

	who := conv.OtherUser.DisplayName()
	if who == "" {
		who = conv.OtherParticipant(m.thread.Me())
	}
	title := m.theme.accentStyle().Render(who)
	if conv.Item != nil {
		title += m.theme.hintStyle().Render("  ·  " + conv.Item.Title)
	}

	return title + "\n" + m.renderProgress(conv)
}

// renderProgress draws the four-step strip, or the cancelled banner.
func (m chatModel) renderProgress(conv models.Conversation) string {
	step := deal.StepIndex(conv.Status)
	if step < 0 {
		return m.theme.errorStyle().Render("✗ cancelled")
	}

	parts := make([]string, 0, len(dealSteps))
	for i, name := range dealSteps {
		switch {
		case i < step:
			parts = append(parts, m.theme.mineStyle().Render("● "+name))
		case i == step:
			parts = append(parts, m.theme.accentStyle().Render("◉ "+name))
		default:
			parts = append(parts, m.theme.hintStyle().Render("○ "+name))
		}
	}
	strip := strings.Join(parts, m.theme.hintStyle().Render(" ─ "))

	if m.ctl.InFlight() {
		strip += m.theme.hintStyle().Render("  (updating…)")
	}
	return strip
}

// renderMessages builds the transcript text.
func (m chatModel) renderMessages() string {
	msgs := m.thread.Messages()
	if len(msgs) == 0 {
		return m.theme.hintStyle().Render("No messages yet. Say hi!")
	}

	var b strings.Builder
	for i := range msgs {
		b.WriteString(m.renderMessage(&msgs[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m chatModel) renderMessage(msg *models.Message) string {
	ts := m.theme.hintStyle().Render(msg.CreatedAt.Format("15:04"))

	if msg.System() {
		return ts + " " + m.theme.systemStyle().Render("— "+msg.DisplayContent())
	}

	label := "them"
	style := m.theme.theirsStyle()
	receipt := ""
	if msg.SenderID == m.thread.Me() {
		label = "you"
		style = m.theme.mineStyle()
		// Read receipt on own messages: one tick sent, two ticks read.
		receipt = " " + m.theme.hintStyle().Render("✓")
		if msg.ReadAt != nil {
			receipt = " " + m.theme.accentStyle().Render("✓✓")
		}
	}

	line := ts + " " + style.Render(label+":") + " " + msg.DisplayContent() + receipt

	if msg.Type == models.MessageItemProposal && msg.Metadata != nil && !msg.IsDeleted {
		line += "\n" + m.renderSnapshot(msg.Metadata)
	}
	return line
}

// renderSnapshot draws the item card under a proposal message.
func (m chatModel) renderSnapshot(snap *models.ItemSnapshot) string {
	details := snap.ItemTitle
	if snap.ItemBrand != "" {
		details += " · " + snap.ItemBrand
	}
	if snap.ItemSize != "" {
		details += " · size " + snap.ItemSize
	}
	if snap.ItemCondition != "" {
		details += " · " + snap.ItemCondition
	}
	return m.theme.accentStyle().Render("      ┗ " + details)
}

func runChat(convID string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}

	// Log lines must never hit the terminal while the TUI owns it.
	logger, closeLog := config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conv, err := apiClient.GetConversation(ctx, s, convID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	thread := chat.NewThread(s.UserID, conv, logger).WithStats(stats)
	ctl := deal.NewController(apiClient, thread)

	page, err := apiClient.ListMessages(ctx, s, convID, 1, cfg.PageSize)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	thread.SetBaseline(page.Messages)

	// The subscription pump. Events flow over the channel into the UI
	// loop; cancelling ctx (on quit) releases the subscription.
	events := make(chan tea.Msg)
	go func() {
		defer close(events)
		subErr := rtClient.Subscribe(ctx, s, realtime.ConversationTopic(convID), func(event any) error {
			select {
			case events <- rtEventMsg{event: event}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if subErr != nil && !errors.Is(subErr, context.Canceled) {
			select {
			case events <- subClosedMsg{err: subErr}:
			case <-ctx.Done():
			}
		}
	}()

	model := newChatModel(s, thread, ctl, cancel, events)
	p := tea.NewProgram(model)

	final, err := p.Run()

	// Persist the session's stats for the stats command, whatever the
	// outcome of the UI run.
	if werr := metrics.WriteSnapshot(cfg.StatsFile, stats.Snapshot()); werr != nil {
		logger.Warn("persisting stats failed", "error", werr)
	}

	if err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	if m, ok := final.(chatModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
