// Package agent implements the core turn-resolution loop between the
// model and the tools.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/config"
	"github.com/valet-ai/valet/internal/convo"
	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/internal/types"
	"github.com/valet-ai/valet/pkg/models"
)

// Completer produces one assistant turn for the given conversation.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message, schemas []tools.Schema) (models.Message, error)
}

// ToolExecutor resolves one tool call. *executor.Executor satisfies it.
// Execute never fails; unknown tools and bad arguments come back as
// failure results.
type ToolExecutor interface {
	Execute(ctx context.Context, call models.ToolCall) models.ToolResult
}

// Agent orchestrates one conversation: user input in, zero or more model
// and tool round trips, final answer out.
type Agent struct {
	conversation *convo.Context
	completer    Completer
	executor     ToolExecutor
	registry     *tools.Registry
	cfg          config.AgentConfig
	logger       *zap.Logger
}

// New creates an agent over an existing conversation.
func New(conversation *convo.Context, completer Completer, exec ToolExecutor, registry *tools.Registry, cfg config.AgentConfig, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		conversation: conversation,
		completer:    completer,
		executor:     exec,
		registry:     registry,
		cfg:          cfg,
		logger:       logger,
	}
}

// Conversation returns the context the agent mutates.
func (a *Agent) Conversation() *convo.Context { return a.conversation }

// Chat resolves one user turn.
//
// The user message is appended first and stays in the conversation even if
// the turn fails, so the whole turn can be retried by resubmission. Each
// iteration sends the conversation snapshot plus the full tool schema list
// to the model; tool-call responses are resolved sequentially in emission
// order, results appended immediately after production. A model failure
// aborts the turn without appending a partial assistant message. Hitting
// the iteration ceiling appends a synthesized assistant message and
// returns normally: it is a stop condition, not an error.
func (a *Agent) Chat(ctx context.Context, input string) (*types.TurnResult, error) {
	a.conversation.AddUser(input)
	schemas := a.registry.Schemas()

	result := &types.TurnResult{}

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		a.logger.Info("model call",
			zap.Int("iteration", iteration),
			zap.Int("max_iterations", a.cfg.MaxIterations),
			zap.Int("messages", a.conversation.Len()))

		reply, err := a.completer.Complete(ctx, a.conversation.Snapshot(), schemas)
		if err != nil {
			a.logger.Error("model call failed", zap.Error(err))
			result.Outcome = types.OutcomeFailed
			return result, fmt.Errorf("model call: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			a.conversation.AddAssistant(reply.Content, nil)
			result.Answer = reply.Content
			result.Outcome = types.OutcomeAnswered
			return result, nil
		}

		a.conversation.AddAssistant(reply.Content, reply.ToolCalls)

		if err := a.resolveToolCalls(ctx, reply.ToolCalls, result); err != nil {
			result.Outcome = types.OutcomeFailed
			return result, err
		}
	}

	limitMsg := fmt.Sprintf(
		"I hit the limit of %d tool-resolution rounds for this request without reaching a final answer. "+
			"The tool results so far are in the conversation; please simplify the request or ask me to continue.",
		a.cfg.MaxIterations)
	a.conversation.AddAssistant(limitMsg, nil)

	a.logger.Warn("iteration limit reached", zap.Int("max_iterations", a.cfg.MaxIterations))

	result.Answer = limitMsg
	result.Outcome = types.OutcomeIterationLimit
	return result, nil
}

// resolveToolCalls executes one assistant turn's calls sequentially, in
// emission order — later calls may depend on state written by earlier
// ones. Every call gets a tool message appended immediately, keeping the
// request/result identifier linkage intact. Cancellation between calls
// stops the turn but leaves results already appended in place.
func (a *Agent) resolveToolCalls(ctx context.Context, calls []models.ToolCall, result *types.TurnResult) error {
	overLimit := a.cfg.MaxToolCalls > 0 && len(calls) > a.cfg.MaxToolCalls

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			a.logger.Warn("turn canceled during tool resolution",
				zap.Int("resolved", len(result.Trace)),
				zap.Int("requested", len(calls)))
			return fmt.Errorf("turn canceled: %w", err)
		}

		var res models.ToolResult
		start := time.Now()
		if overLimit {
			// Too many calls in one turn; refuse each one with a result the
			// model can react to, keeping every request answered.
			res = models.ToolResult{
				CallID:  call.ID,
				Content: fmt.Sprintf("rejected: %d tool calls requested at once, limit is %d", len(calls), a.cfg.MaxToolCalls),
				IsError: true,
			}
		} else {
			res = a.executor.Execute(ctx, call)
		}

		a.conversation.AddToolResult(res)
		result.Trace = append(result.Trace, types.TraceEntry{
			Call:     call,
			Result:   res,
			Duration: time.Since(start),
		})
	}
	return nil
}
