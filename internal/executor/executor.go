// Package executor resolves tool-call requests into tool results.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/internal/validator"
	"github.com/valet-ai/valet/pkg/models"
)

// Executor dispatches tool calls through the registry. It is the sole
// producer of ToolResult values.
type Executor struct {
	registry *tools.Registry
	logger   *zap.Logger
}

// New creates an executor over the given registry.
func New(registry *tools.Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, logger: logger}
}

// Execute resolves one tool call and returns its result. Every failure
// path — unknown tool, invalid arguments, tool error, even a panicking
// tool — terminates in a failure ToolResult rather than an error: tool
// failures are data fed back to the model, not loop failures. The executor
// performs no retries; whether to retry a failed tool is the model's call.
func (e *Executor) Execute(ctx context.Context, call models.ToolCall) (result models.ToolResult) {
	name := call.Function.Name
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked",
				zap.String("tool", name),
				zap.Any("panic", r))
			result = failure(call.ID, fmt.Sprintf("tool %s panicked: %v", name, r))
		}
	}()

	tool, err := e.registry.Get(name)
	if err != nil {
		e.logger.Warn("tool not found", zap.String("tool", name))
		return failure(call.ID, err.Error())
	}

	if err := validator.Arguments(tool.Parameters(), call.Function.Arguments); err != nil {
		e.logger.Warn("invalid tool arguments",
			zap.String("tool", name),
			zap.Error(err))
		return failure(call.ID, fmt.Sprintf("invalid arguments for %s: %v", name, err))
	}

	e.logger.Info("executing tool",
		zap.String("tool", name),
		zap.Any("args", call.Function.Arguments))

	output, err := tool.Execute(ctx, call.Function.Arguments)
	if err != nil {
		e.logger.Warn("tool failed",
			zap.String("tool", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return failure(call.ID, fmt.Sprintf("tool %s failed: %v", name, err))
	}

	e.logger.Info("tool succeeded",
		zap.String("tool", name),
		zap.Duration("duration", time.Since(start)))

	return models.ToolResult{CallID: call.ID, Content: output}
}

func failure(callID, description string) models.ToolResult {
	return models.ToolResult{CallID: callID, Content: description, IsError: true}
}
