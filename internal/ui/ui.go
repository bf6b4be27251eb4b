// Package ui provides the terminal chat interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/valet-ai/valet/internal/types"
)

// Hooks are the agent-side callbacks injected into the UI. ProcessTurn
// runs one conversation turn; NewSession starts a fresh session and
// reports its ID back as an AgentEvent. ListSessions returns a plain-text
// listing of stored sessions. CancelTurn interrupts the in-flight turn so
// quitting does not abandon it mid-save.
type Hooks struct {
	ProcessTurn  func(input string) tea.Cmd
	NewSession   func() tea.Cmd
	ListSessions func() string
	CancelTurn   func()
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	state     types.AgentState
	messages  []chatMessage
	sessionID string
	modelName string
	width     int
	height    int
	ready     bool
	quitting  bool
	err       error

	hooks Hooks
}

// chatMessage represents a message in the chat history.
type chatMessage struct {
	role    string // "user", "assistant", "system", "tool"
	content string
	tool    *toolExecution
}

// toolExecution tracks a completed tool call for rendering.
type toolExecution struct {
	name     string
	params   map[string]any
	output   string
	success  bool
	duration string
}

// NewModel creates a new UI model.
func NewModel(hooks Hooks, sessionID, modelName string) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything... (e.g., 'What files are in my workspace?')"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultStyles().Spinner

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.DefaultKeyMap()

	return Model{
		textInput: ti,
		spinner:   s,
		viewport:  vp,
		styles:    DefaultStyles(),
		state:     types.StateIdle,
		messages:  make([]chatMessage, 0),
		sessionID: sessionID,
		modelName: modelName,
		hooks:     hooks,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// headerHeight returns the number of terminal lines occupied by the banner.
func (m Model) headerHeight() int {
	banner := m.styles.BannerTitle.Render(Banner())
	return strings.Count(banner, "\n") + 3
}

// footerHeight returns the number of terminal lines occupied by the input + help bar.
func (m Model) footerHeight() int {
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.state != types.StateIdle {
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.hooks.CancelTurn != nil {
				m.hooks.CancelTurn()
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.state != types.StateIdle {
				return m, nil
			}

			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if handled, cmd := m.handleCommand(input); handled {
				m.updateViewport()
				return m, cmd
			}

			m.messages = append(m.messages, chatMessage{
				role:    "user",
				content: input,
			})

			m.textInput.SetValue("")
			m.state = types.StateThinking
			m.updateViewport()

			if m.hooks.ProcessTurn != nil {
				cmds = append(cmds, m.hooks.ProcessTurn(input))
			}

			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpWidth := msg.Width
		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.KeyMap = viewport.DefaultKeyMap()
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}

		m.ready = true
		m.updateViewport()

	case types.AgentEvent:
		newModel, cmd := m.handleAgentEvent(msg)
		nm := newModel.(Model)
		nm.updateViewport()
		return nm, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.updateViewport()
	}

	if m.state == types.StateIdle {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes slash commands. Returns false when the input
// should go to the agent instead.
func (m *Model) handleCommand(input string) (bool, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/quit", "/exit", "exit", "quit":
		m.quitting = true
		return true, tea.Quit

	case "/clear":
		m.messages = make([]chatMessage, 0)
		m.textInput.SetValue("")
		return true, nil

	case "/new":
		m.messages = make([]chatMessage, 0)
		m.textInput.SetValue("")
		if m.hooks.NewSession != nil {
			return true, m.hooks.NewSession()
		}
		return true, nil

	case "/sessions":
		m.textInput.SetValue("")
		if m.hooks.ListSessions != nil {
			m.messages = append(m.messages, chatMessage{
				role:    "system",
				content: m.hooks.ListSessions(),
			})
		}
		return true, nil

	case "/help", "/?":
		m.messages = append(m.messages, chatMessage{
			role: "system",
			content: `Commands:
  /help      Show this help
  /clear     Clear the screen (history is kept)
  /new       Start a fresh session
  /sessions  List stored sessions
  /quit      Exit

Session: ` + m.sessionID + `
Model:   ` + m.modelName,
		})
		m.textInput.SetValue("")
		return true, nil
	}

	return false, nil
}

// handleAgentEvent processes events from the agent.
func (m Model) handleAgentEvent(event types.AgentEvent) (tea.Model, tea.Cmd) {
	if event.SessionID != "" {
		m.sessionID = event.SessionID
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: "Started session " + shortID(event.SessionID),
		})
	}

	switch event.State {
	case types.StateResponding:
		if event.Result != nil {
			for _, entry := range event.Result.Trace {
				m.messages = append(m.messages, chatMessage{
					role: "tool",
					tool: traceToExecution(entry),
				})
			}
			if event.Result.Answer != "" {
				m.messages = append(m.messages, chatMessage{
					role:    "assistant",
					content: event.Result.Answer,
				})
			}
			if event.Result.Outcome == types.OutcomeIterationLimit {
				m.messages = append(m.messages, chatMessage{
					role:    "system",
					content: "Stopped: iteration limit reached.",
				})
			}
			if event.Result.SaveErr != nil {
				m.messages = append(m.messages, chatMessage{
					role:    "system",
					content: "Warning: " + event.Result.SaveErr.Error(),
				})
			}
		}
		m.state = types.StateIdle

	case types.StateError:
		m.err = event.Err
		errText := "An error occurred"
		if event.Err != nil {
			errText = event.Err.Error()
		}
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: fmt.Sprintf("Error: %s", errText),
		})
		if event.Result != nil && event.Result.SaveErr != nil {
			m.messages = append(m.messages, chatMessage{
				role:    "system",
				content: "Warning: " + event.Result.SaveErr.Error(),
			})
		}
		m.state = types.StateIdle

	default:
		m.state = event.State
	}

	return m, m.spinner.Tick
}

// timeRounding keeps rendered durations readable.
const timeRounding = 10 * time.Millisecond

func traceToExecution(entry types.TraceEntry) *toolExecution {
	return &toolExecution{
		name:     entry.Call.Function.Name,
		params:   entry.Call.Function.Arguments,
		output:   entry.Result.Content,
		success:  !entry.Result.IsError,
		duration: entry.Duration.Round(timeRounding).String(),
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("> "))
	if m.state == types.StateIdle {
		b.WriteString(m.textInput.View())
	} else {
		b.WriteString(m.styles.StatusText.Render("(processing...)"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderMessage renders a single chat message.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)

	case "assistant":
		return m.styles.AssistantMessage.Render("Valet: " + msg.content)

	case "system":
		return m.styles.SystemMessage.Render(msg.content)

	case "tool":
		if msg.tool != nil {
			return m.renderToolResult(msg.tool)
		}
	}
	return ""
}

// renderToolResult renders a completed tool execution.
func (m Model) renderToolResult(t *toolExecution) string {
	var b strings.Builder

	b.WriteString(m.styles.ToolName.Render("Tool: " + t.name))

	if len(t.params) > 0 {
		params := make([]string, 0, len(t.params))
		for k, v := range t.params {
			params = append(params, fmt.Sprintf("%s=%v", k, v))
		}
		b.WriteString(" ")
		b.WriteString(m.styles.ToolParams.Render("(" + strings.Join(params, ", ") + ")"))
	}
	b.WriteString("\n")

	if t.success {
		b.WriteString(m.styles.ToolSuccess.Render("  ok"))
		if t.duration != "" && t.duration != "0s" {
			b.WriteString(m.styles.ToolParams.Render(fmt.Sprintf(" (%s)", t.duration)))
		}
		b.WriteString("\n")
		output := t.output
		if len(output) > 300 {
			output = output[:300] + "..."
		}
		for _, line := range strings.Split(output, "\n") {
			if line != "" {
				b.WriteString(m.styles.ToolOutput.Render("  | " + line))
				b.WriteString("\n")
			}
		}
	} else {
		b.WriteString(m.styles.ToolError.Render("  failed: " + t.output))
		b.WriteString("\n")
	}

	return m.styles.ToolBox.Render(b.String())
}

// renderStatus renders the current processing status.
func (m Model) renderStatus() string {
	return fmt.Sprintf("%s %s",
		m.spinner.View(),
		m.styles.StateLabel.Render(m.state.String()+"..."),
	)
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("/help") + m.styles.HelpValue.Render(" commands"),
		m.styles.HelpValue.Render("session " + shortID(m.sessionID)),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
