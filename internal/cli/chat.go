package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/courierchat/courier/internal/engine"
	"github.com/courierchat/courier/internal/models"
)

// remoteCallTimeout bounds each network call issued from the chat view.
const remoteCallTimeout = 10 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat <user-id>",
	Short: "Open an interactive chat with another user",
	Long: `Open an interactive chat view with another user.

Messages you send appear immediately and are confirmed (or rolled back)
when the server responds. The view polls the service in the background
and marks the conversation read on open. Press Esc or Ctrl+C to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

// Theme holds the color scheme for the chat view.
type Theme struct {
	Header  lipgloss.Color
	Mine    lipgloss.Color
	Theirs  lipgloss.Color
	Pending lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Header:  lipgloss.Color("#5FAFD7"), // light blue
	Mine:    lipgloss.Color("#00D787"), // green
	Theirs:  lipgloss.Color("#FFFFFF"), // white
	Pending: lipgloss.Color("#6C6C6C"), // dim gray
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Header).Bold(true)
}

func (t Theme) mineStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Mine)
}

func (t Theme) theirsStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Theirs)
}

func (t Theme) pendingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Pending).Italic(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// stateChangedMsg reports that engine state changed and a fresh
// snapshot should be rendered.
type stateChangedMsg struct{}

// sendDoneMsg reports that a send attempt resolved, either way.
type sendDoneMsg struct{}

// chatModel is the bubbletea model for the chat view.
type chatModel struct {
	eng          *engine.Engine
	counterpart  string
	pollInterval time.Duration

	input       textinput.Model
	state       engine.State
	changes     <-chan struct{}
	unsubscribe func()
	theme       Theme

	width    int
	height   int
	quitting bool
}

// newChatModel creates a new chat model subscribed to engine changes.
func newChatModel(e *engine.Engine, counterpart string, pollInterval time.Duration) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message"
	input.CharLimit = models.MaxContentLength
	input.Focus()

	changes, unsubscribe := e.Subscribe()

	return chatModel{
		eng:          e,
		counterpart:  counterpart,
		pollInterval: pollInterval,
		input:        input,
		changes:      changes,
		unsubscribe:  unsubscribe,
		theme:        defaultTheme,
		width:        80,
		height:       24,
	}
}

// Init focuses the conversation, starts the polling session and loads
// the first page.
func (m chatModel) Init() tea.Cmd {
	m.eng.SetCurrentConversation(m.counterpart)
	m.eng.StartPolling(m.counterpart, m.pollInterval)
	return tea.Batch(m.initialLoad(), m.waitForChange())
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.eng.StopPolling()
			m.unsubscribe()
			return m, tea.Quit
		case "enter":
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m, m.send(content)
		}

	case stateChangedMsg:
		m.state = m.eng.Snapshot()
		return m, m.waitForChange()

	case sendDoneMsg:
		m.state = m.eng.Snapshot()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := fmt.Sprintf("Chat with %s", m.counterpart)
	if m.state.UnreadCount > 0 {
		header += fmt.Sprintf("  (%d unread elsewhere)", m.state.UnreadCount)
	}
	b.WriteString(m.theme.headerStyle().Render(header))
	b.WriteString("\n\n")

	// Header, blank line, error line, input line and hint leave the
	// rest of the terminal for the message tail.
	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	messages := m.state.Messages
	if len(messages) > visible {
		messages = messages[len(messages)-visible:]
	}

	if len(messages) == 0 && m.state.Loading {
		b.WriteString(m.theme.hintStyle().Render("Loading conversation..."))
		b.WriteString("\n")
	}
	for _, msg := range messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state.Err != "" {
		b.WriteString(m.theme.errorStyle().Render("✗ " + m.state.Err))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("Enter to send · Esc to leave"))
	b.WriteString("\n")

	return b.String()
}

// renderMessage formats a single message line.
func (m chatModel) renderMessage(msg models.Message) string {
	when := msg.CreatedAt.Local().Format("15:04")

	if msg.Pending() {
		return m.theme.pendingStyle().Render(fmt.Sprintf("%s  me: %s (sending...)", when, msg.Content))
	}

	if msg.SenderID == cfg.UserID {
		return m.theme.mineStyle().Render(fmt.Sprintf("%s  me: %s", when, msg.Content))
	}
	return m.theme.theirsStyle().Render(fmt.Sprintf("%s  %s: %s", when, msg.SenderID, msg.Content))
}

// initialLoad fetches the first page and marks the conversation read.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m chatModel) initialLoad() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteCallTimeout)
		defer cancel()

		m.eng.FetchMessages(ctx, m.counterpart, engine.FetchOptions{Limit: engine.DefaultPageLimit})
		m.eng.MarkAsRead(ctx, m.counterpart)
		return stateChangedMsg{}
	}
}

// waitForChange blocks on the engine subscription until the next
// state change.
func (m chatModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return stateChangedMsg{}
	}
}

// send dispatches an optimistic send. The send error is not returned:
// the engine rolls the entry back and records the failure, which the
// view surfaces from its next snapshot.
func (m chatModel) send(content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteCallTimeout)
		defer cancel()

		_, _ = m.eng.SendMessage(ctx, m.counterpart, content)
		return sendDoneMsg{}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	model := newChatModel(eng, args[0], cfg.PollInterval)

	p := tea.NewProgram(model)
	_, err := p.Run()

	// The quit path stops polling and unsubscribes already; this covers
	// Run failing. Both calls are safe to repeat.
	eng.StopPolling()
	model.unsubscribe()

	if verbose {
		snap := collector.Snapshot()
		logger.Debug("session stats", "uptime_s", snap.UptimeSeconds)
		for op, stats := range snap.Operations {
			logger.Debug("session stats",
				"op", op,
				"count", stats.Count,
				"failures", stats.Failures,
				"avg_ms", stats.AvgTimeMs,
			)
		}
	}

	if err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
