package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/agent"
	"github.com/valet-ai/valet/internal/config"
	"github.com/valet-ai/valet/internal/convo"
	"github.com/valet-ai/valet/internal/executor"
	"github.com/valet-ai/valet/internal/llm"
	"github.com/valet-ai/valet/internal/ollama"
	"github.com/valet-ai/valet/internal/session"
	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/internal/types"
	"github.com/valet-ai/valet/internal/ui"
)

// app wires the full stack for one chat process: tool registry, Ollama
// transport, retrying client, session record, and the agent loop.
type app struct {
	mu sync.Mutex

	cancelMu   sync.Mutex
	cancelTurn context.CancelFunc

	cfg      *config.Config
	agentCfg config.AgentConfig
	logger   *zap.Logger

	registry *tools.Registry
	oll      *ollama.Client
	manager  *session.Manager

	agent *agent.Agent
	rec   *session.Record
}

func buildRegistry(cfg *config.Config) *tools.Registry {
	r := tools.NewRegistry()
	tools.RegisterFsTools(r, cfg.Workspace.Root)
	tools.RegisterWebTools(r, cfg.Web.TavilyAPIKey)
	r.MustRegister(tools.NewClockTool())
	return r
}

// newApp builds the stack. When sessionRef is non-empty the session is
// resumed and its stored config snapshot drives the agent, so resumed
// sessions behave as they did when created.
func newApp(cfg *config.Config, logger *zap.Logger, sessionRef string) (*app, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	manager, err := session.NewManager(cfg.Sessions.Dir, logger)
	if err != nil {
		return nil, err
	}

	var rec *session.Record
	if sessionRef != "" {
		rec, err = manager.Get(sessionRef)
		if err != nil {
			return nil, err
		}
	} else {
		prompt := llm.BuildSystemPrompt(cfg.Workspace.Root)
		rec, err = manager.Create("", prompt, cfg.Agent)
		if err != nil {
			return nil, err
		}
	}

	agentCfg := mergeAgentConfig(rec.Config, cfg.Agent)

	a := &app{
		cfg:      cfg,
		agentCfg: agentCfg,
		logger:   logger,
		registry: buildRegistry(cfg),
		manager:  manager,
	}
	a.attach(rec)
	return a, nil
}

// attach points the app at a session record, rebuilding the conversation
// and agent around it.
func (a *app) attach(rec *session.Record) {
	a.rec = rec

	a.oll = ollama.NewClient(ollama.Config{
		BaseURL: a.agentCfg.BaseURL,
		Model:   a.agentCfg.Model,
		Timeout: a.agentCfg.Timeout,
	})
	client := llm.NewClient(a.oll, llm.Config{
		MaxRetries:     a.agentCfg.MaxRetries,
		InitialBackoff: a.agentCfg.InitialBackoff,
		MaxBackoff:     a.agentCfg.MaxBackoff,
	}, a.logger)

	conversation := convo.New(rec.SystemPrompt)
	conversation.SetHistory(rec.Messages)

	exec := executor.New(a.registry, a.logger)
	a.agent = agent.New(conversation, client, exec, a.registry, a.agentCfg, a.logger)
}

// mergeAgentConfig fills zero fields of a stored snapshot from current
// defaults. Records written by older versions stay usable.
func mergeAgentConfig(stored, fallback config.AgentConfig) config.AgentConfig {
	if stored.Model == "" {
		stored.Model = fallback.Model
	}
	if stored.BaseURL == "" {
		stored.BaseURL = fallback.BaseURL
	}
	if stored.MaxIterations == 0 {
		stored.MaxIterations = fallback.MaxIterations
	}
	if stored.MaxToolCalls == 0 {
		stored.MaxToolCalls = fallback.MaxToolCalls
	}
	if stored.MaxRetries == 0 {
		stored.MaxRetries = fallback.MaxRetries
	}
	if stored.InitialBackoff == 0 {
		stored.InitialBackoff = fallback.InitialBackoff
	}
	if stored.MaxBackoff == 0 {
		stored.MaxBackoff = fallback.MaxBackoff
	}
	if stored.Timeout == 0 {
		stored.Timeout = fallback.Timeout
	}
	return stored
}

// turn runs one conversation turn and persists the session afterward,
// including partial turns cut short by cancellation or a model failure.
// A persistence failure does not discard the turn: it is reported on the
// result so the caller can show it.
func (a *app) turn(ctx context.Context, input string) (*types.TurnResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := a.agent.Chat(ctx, input)

	a.rec.Messages = a.agent.Conversation().History()
	if saveErr := a.manager.Save(a.rec); saveErr != nil {
		a.logger.Error("save session", zap.Error(saveErr))
		result.SaveErr = fmt.Errorf("session not saved: %w", saveErr)
	}
	return result, err
}

// beginTurn derives a cancellable context for one turn and remembers its
// cancel func so quitting the UI can interrupt an in-flight turn.
func (a *app) beginTurn(parent context.Context) context.Context {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	ctx, cancel := context.WithCancel(parent)
	a.cancelTurn = cancel
	return ctx
}

// cancelActiveTurn interrupts the in-flight turn, if any.
func (a *app) cancelActiveTurn() {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	if a.cancelTurn != nil {
		a.cancelTurn()
	}
}

// waitTurn blocks until no turn is in flight.
func (a *app) waitTurn() {
	a.mu.Lock()
	defer a.mu.Unlock()
}

// listSessions renders the stored sessions as plain text for the chat UI.
func (a *app) listSessions() string {
	a.mu.Lock()
	current := a.rec.ID
	a.mu.Unlock()

	records, failures, err := a.manager.List()
	if err != nil {
		return "Could not list sessions: " + err.Error()
	}
	if len(records) == 0 && len(failures) == 0 {
		return "No sessions yet."
	}

	var b strings.Builder
	b.WriteString("Sessions:\n")
	for _, rec := range records {
		marker := "  "
		if rec.ID == current {
			marker = "* "
		}
		b.WriteString(fmt.Sprintf("%s%s  %s\n", marker, shortID(rec.ID), rec.Title()))
		b.WriteString(fmt.Sprintf("     %d messages, updated %s\n",
			len(rec.Messages), rec.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	for _, failure := range failures {
		b.WriteString("  skipped unreadable record: " + failure.Path + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// newSession creates a fresh session and switches the agent to it.
func (a *app) newSession() (*session.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.agentCfg = a.cfg.Agent
	prompt := llm.BuildSystemPrompt(a.cfg.Workspace.Root)
	rec, err := a.manager.Create("", prompt, a.cfg.Agent)
	if err != nil {
		return nil, err
	}
	a.attach(rec)
	return rec, nil
}

// runOneShot executes a single message and prints the trace and answer.
func runOneShot(args []string) {
	input := strings.Join(args, " ")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	toolStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	a, err := newApp(cfg, logger, flagSession)
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}

	if err := a.oll.Ping(context.Background()); err != nil {
		printConnectionHelp(a.agentCfg)
		os.Exit(1)
	}

	// Ctrl-C cancels the turn; whatever completed so far is saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := a.turn(ctx, input)
	if result != nil && result.SaveErr != nil {
		fmt.Println(errorStyle.Render("Warning: " + result.SaveErr.Error()))
	}
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		if result == nil || result.SaveErr == nil {
			fmt.Println(dimStyle.Render("Session " + a.rec.ID + " saved; resume with -s " + shortID(a.rec.ID)))
		}
		os.Exit(1)
	}

	for _, entry := range result.Trace {
		status := "ok"
		if entry.Result.IsError {
			status = "failed"
		}
		fmt.Printf("%s %s %s\n",
			toolStyle.Render("◆ "+entry.Call.Function.Name),
			dimStyle.Render(status),
			dimStyle.Render("("+entry.Duration.String()+")"))
	}
	if len(result.Trace) > 0 {
		fmt.Println()
	}

	switch result.Outcome {
	case types.OutcomeIterationLimit:
		fmt.Println(headerStyle.Render(result.Answer))
	default:
		fmt.Println(result.Answer)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("Session " + shortID(a.rec.ID) + "  |  resume with: valet -s " + shortID(a.rec.ID)))
}

// runInteractive starts the Bubble Tea chat UI.
func runInteractive() {
	connectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))

	// Logs would corrupt the alternate screen; swap to a file logger.
	fileLogger, err := config.NewFileLogger(verbose)
	if err == nil {
		logger = fileLogger
	}

	a, err := newApp(cfg, logger, flagSession)
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}

	fmt.Print(connectStyle.Render("Connecting to Ollama... "))
	if err := a.oll.Ping(context.Background()); err != nil {
		fmt.Println(errorStyle.Render("✗"))
		fmt.Println()
		printConnectionHelp(a.agentCfg)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("✓"))
	fmt.Printf("Using model: %s\n\n", a.agentCfg.Model)

	hooks := ui.Hooks{
		ProcessTurn: func(input string) tea.Cmd {
			return func() tea.Msg {
				result, err := a.turn(a.beginTurn(context.Background()), input)
				if err != nil {
					return types.AgentEvent{State: types.StateError, Result: result, Err: err}
				}
				return types.AgentEvent{State: types.StateResponding, Result: result}
			}
		},
		NewSession: func() tea.Cmd {
			return func() tea.Msg {
				rec, err := a.newSession()
				if err != nil {
					return types.AgentEvent{State: types.StateError, Err: err}
				}
				return types.AgentEvent{State: types.StateIdle, SessionID: rec.ID}
			}
		},
		ListSessions: a.listSessions,
		CancelTurn:   a.cancelActiveTurn,
	}

	model := ui.NewModel(hooks, a.rec.ID, a.agentCfg.Model)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running UI: %v\n", err)
		os.Exit(1)
	}

	// Quitting cancels any in-flight turn; wait for it to finish saving.
	a.cancelActiveTurn()
	a.waitTurn()
}

// printConnectionHelp displays instructions for connecting to Ollama.
func printConnectionHelp(agentCfg config.AgentConfig) {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#818CF8"))

	fmt.Println(errorStyle.Render("Could not connect to Ollama at " + agentCfg.BaseURL))
	fmt.Println()
	fmt.Println(helpStyle.Render("Make sure Ollama is running:"))
	fmt.Println(cmdStyle.Render("  ollama serve"))
	fmt.Println()
	fmt.Println(helpStyle.Render("And pull the required model:"))
	fmt.Println(cmdStyle.Render("  ollama pull " + agentCfg.Model))
	fmt.Println()
	fmt.Println(helpStyle.Render("Or configure a different endpoint:"))
	fmt.Println(cmdStyle.Render("  valet config --ollama-url http://your-server:11434"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
