package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"auroracast/cmd/auroracast/ui"
	"auroracast/internal/oracle"
)

// chatCmd opens the interactive sky-watcher session
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the aurora guide",
	Long: `Opens an interactive session with the forecast persona. Ask about
tonight's chances, where to drive, camera settings, or anything else
aurora. The conversation keeps its context until you quit.`,
	RunE: runChat,
}

const chatGreeting = "Sky watcher's line is open. Ask about tonight's chances, " +
	"where to drive for clearer skies, or what settings your camera needs."

// chatApology is shown when a single turn fails. The session itself
// survives; the next message goes out on the same conversation.
const chatApology = "Sorry, the connection to the sky desk dropped for a moment. " +
	"Give it a breath and ask me again."

func runChat(cmd *cobra.Command, args []string) error {
	session, err := capability.NewChat(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to open chat session: %w", err)
	}

	m := newChatModel(session, capability.Live(), cfg.GetRequestTimeout())
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}

// chatEntry is one line of display history. The provider holds the real
// conversational state; this exists only to render the screen.
type chatEntry struct {
	role    string // "you" or "guide"
	content string
}

// Messages for tea updates
type (
	chatReplyMsg string
	chatFailMsg  error
)

type chatModel struct {
	styles    ui.Styles
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
	session   oracle.ChatSession
	live      bool
	timeout   time.Duration
	history   []chatEntry
	isLoading bool
	width     int
	height    int
	ready     bool
}

func newChatModel(session oracle.ChatSession, live bool, timeout time.Duration) chatModel {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about tonight's sky... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "| "
	ti.CharLimit = 2048
	ti.Width = 76
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	history := []chatEntry{{role: "guide", content: chatGreeting}}
	if !live {
		history = append(history, chatEntry{
			role:    "guide",
			content: "Running in demo mode. Add a Gemini API key for live answers.",
		})
	}

	return chatModel{
		styles:   styles,
		viewport: vp,
		input:    ti,
		spinner:  sp,
		renderer: renderer,
		session:  session,
		live:     live,
		timeout:  timeout,
		history:  history,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 5
		m.input.Width = msg.Width - 6
		wrap := msg.Width - 8
		if wrap > 100 {
			wrap = 100
		}
		if wrap > 20 {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(wrap),
			)
		}
		m.ready = true
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.history = append(m.history, chatEntry{role: "you", content: text})
			m.input.Reset()
			m.isLoading = true
			m.refreshViewport()
			return m, tea.Batch(m.spinner.Tick, m.sendTurn(text))
		}

	case chatReplyMsg:
		m.isLoading = false
		m.history = append(m.history, chatEntry{role: "guide", content: string(msg)})
		m.refreshViewport()
		return m, nil

	case chatFailMsg:
		m.isLoading = false
		m.history = append(m.history, chatEntry{role: "guide", content: chatApology})
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var tiCmd, vpCmd tea.Cmd
	m.input, tiCmd = m.input.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// sendTurn forwards one message off the UI goroutine. Failures come back
// as a message, never as a crash; the session handle stays valid.
func (m chatModel) sendTurn(text string) tea.Cmd {
	session, timeout := m.session, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply, err := session.Send(ctx, text)
		if err != nil {
			return chatFailMsg(err)
		}
		return chatReplyMsg(reply)
	}
}

func (m *chatModel) refreshViewport() {
	var lines []string
	for _, entry := range m.history {
		if entry.role == "you" {
			lines = append(lines, m.styles.Prompt.Render("You ")+m.styles.UserInput.Render(entry.content))
			continue
		}
		content := entry.content
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		lines = append(lines, m.styles.AgentResponse.Render(content))
	}
	m.viewport.SetContent(strings.Join(lines, "\n\n"))
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Opening the sky line..."
	}

	badge := m.styles.DemoBadge.Render("DEMO")
	if m.live {
		badge = m.styles.Badge.Render("LIVE")
	}
	header := m.styles.Header.Render("Aurora guide") + " " + badge

	inputLine := m.input.View()
	if m.isLoading {
		inputLine = m.spinner.View() + m.styles.Muted.Render(" consulting the sky desk...")
	}

	footer := m.styles.Footer.Render("Enter send · Ctrl+C quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		inputLine,
		footer,
	)
}
