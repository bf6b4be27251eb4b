package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/pkg/models"
)

// stubTool lets each test script one behavior.
type stubTool struct {
	name   string
	params []tools.Parameter
	run    func(ctx context.Context, args map[string]any) (string, error)
}

func (s *stubTool) Name() string                  { return s.name }
func (s *stubTool) Description() string           { return "stub" }
func (s *stubTool) Parameters() []tools.Parameter { return s.params }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.run(ctx, args)
}

func call(name string, args map[string]any) models.ToolCall {
	return models.ToolCall{
		ID:       "call_0",
		Function: models.FunctionCall{Name: name, Arguments: args},
	}
}

func TestExecute_Success(t *testing.T) {
	r := tools.NewRegistry()
	r.MustRegister(&stubTool{
		name: "echo",
		run: func(_ context.Context, args map[string]any) (string, error) {
			return "echoed", nil
		},
	})
	e := New(r, zap.NewNop())

	result := e.Execute(context.Background(), call("echo", map[string]any{}))
	if result.IsError {
		t.Fatalf("unexpected failure: %s", result.Content)
	}
	if result.Content != "echoed" {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if result.CallID != "call_0" {
		t.Errorf("call ID not propagated: %q", result.CallID)
	}
}

func TestExecute_UnknownTool_FailureResult(t *testing.T) {
	e := New(tools.NewRegistry(), zap.NewNop())

	result := e.Execute(context.Background(), call("ghost", nil))
	if !result.IsError {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if result.CallID != "call_0" {
		t.Errorf("call ID not propagated: %q", result.CallID)
	}
}

func TestExecute_InvalidArguments_FailureResult(t *testing.T) {
	r := tools.NewRegistry()
	executed := false
	r.MustRegister(&stubTool{
		name:   "strict",
		params: []tools.Parameter{{Name: "path", Type: "string", Required: true}},
		run: func(_ context.Context, _ map[string]any) (string, error) {
			executed = true
			return "", nil
		},
	})
	e := New(r, zap.NewNop())

	result := e.Execute(context.Background(), call("strict", map[string]any{}))
	if !result.IsError {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.Content, "invalid arguments") {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if executed {
		t.Error("tool must not run on invalid arguments")
	}
}

func TestExecute_ToolError_FailureResult(t *testing.T) {
	r := tools.NewRegistry()
	r.MustRegister(&stubTool{
		name: "broken",
		run: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.New("disk on fire")
		},
	})
	e := New(r, zap.NewNop())

	result := e.Execute(context.Background(), call("broken", nil))
	if !result.IsError {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.Content, "disk on fire") {
		t.Errorf("tool error not surfaced: %q", result.Content)
	}
}

func TestExecute_PanickingTool_FailureResult(t *testing.T) {
	r := tools.NewRegistry()
	r.MustRegister(&stubTool{
		name: "bomb",
		run: func(_ context.Context, _ map[string]any) (string, error) {
			panic("boom")
		},
	})
	e := New(r, zap.NewNop())

	result := e.Execute(context.Background(), call("bomb", nil))
	if !result.IsError {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.Content, "panicked") || !strings.Contains(result.Content, "boom") {
		t.Errorf("panic not surfaced: %q", result.Content)
	}
}

func TestExecute_NilLogger_OK(t *testing.T) {
	e := New(tools.NewRegistry(), nil)
	result := e.Execute(context.Background(), call("anything", nil))
	if !result.IsError {
		t.Error("expected failure result for unknown tool")
	}
}
