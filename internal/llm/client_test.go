package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valet-ai/valet/internal/ollama"
	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/pkg/models"
)

// scriptedTransport returns canned responses in order, then repeats the
// last one.
type scriptedTransport struct {
	calls     int
	responses []func() (models.Message, error)
}

func (s *scriptedTransport) Chat(_ context.Context, _ []models.Message, _ []tools.Schema) (models.Message, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i]()
}

func answer(content string) func() (models.Message, error) {
	return func() (models.Message, error) {
		return models.Message{Role: models.RoleAssistant, Content: content}, nil
	}
}

func fail(err error) func() (models.Message, error) {
	return func() (models.Message, error) { return models.Message{}, err }
}

func fastConfig(maxRetries int) Config {
	return Config{MaxRetries: maxRetries, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

// ─── Retry policy ────────────────────────────────────────────────────────────

func TestComplete_SucceedsFirstTry(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (models.Message, error){answer("hi")}}
	client := NewClient(transport, fastConfig(3), nil)

	msg, err := client.Complete(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "hi" {
		t.Errorf("unexpected content: %q", msg.Content)
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 call, got %d", transport.calls)
	}
}

func TestComplete_RetriesTransientThenSucceeds(t *testing.T) {
	transient := &ollama.StatusError{StatusCode: 503, Body: "busy"}
	transport := &scriptedTransport{responses: []func() (models.Message, error){
		fail(transient),
		fail(transient),
		answer("recovered"),
	}}
	client := NewClient(transport, fastConfig(3), nil)

	msg, err := client.Complete(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "recovered" {
		t.Errorf("unexpected content: %q", msg.Content)
	}
	if transport.calls != 3 {
		t.Errorf("expected 3 calls, got %d", transport.calls)
	}
}

func TestComplete_ExhaustsRetries_Unavailable(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (models.Message, error){
		fail(fmt.Errorf("dial tcp: connection refused")),
	}}
	client := NewClient(transport, fastConfig(2), nil)

	_, err := client.Complete(context.Background(), nil, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// MaxRetries=2 means 3 attempts total.
	if transport.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", transport.calls)
	}
}

func TestComplete_ClientError_NoRetry(t *testing.T) {
	notFound := &ollama.StatusError{StatusCode: 404, Body: "no such model"}
	transport := &scriptedTransport{responses: []func() (models.Message, error){fail(notFound)}}
	client := NewClient(transport, fastConfig(3), nil)

	_, err := client.Complete(context.Background(), nil, nil)

	var statusErr *ollama.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("4xx must not be wrapped in ErrUnavailable")
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 call, got %d", transport.calls)
	}
}

func TestComplete_MalformedResponse_NoRetry(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (models.Message, error){
		fail(fmt.Errorf("%w: bad envelope", ollama.ErrMalformedResponse)),
	}}
	client := NewClient(transport, fastConfig(3), nil)

	_, err := client.Complete(context.Background(), nil, nil)
	if !errors.Is(err, ollama.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 call, got %d", transport.calls)
	}
}

func TestComplete_CanceledContext_NoRetry(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (models.Message, error){
		fail(context.Canceled),
	}}
	client := NewClient(transport, fastConfig(3), nil)

	_, err := client.Complete(context.Background(), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 call, got %d", transport.calls)
	}
}

// ─── Normalization ───────────────────────────────────────────────────────────

func TestComplete_NormalizesToolCallIDs(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (models.Message, error){
		func() (models.Message, error) {
			return models.Message{
				Role: models.RoleAssistant,
				ToolCalls: []models.ToolCall{
					{Function: models.FunctionCall{Name: "fs_read"}},
					{Function: models.FunctionCall{Name: "get_time"}},
				},
			}, nil
		},
	}}
	client := NewClient(transport, fastConfig(0), nil)

	msg, err := client.Complete(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ToolCalls[0].ID == "" || msg.ToolCalls[1].ID == "" {
		t.Error("tool call IDs must be assigned")
	}
	if msg.ToolCalls[0].ID == msg.ToolCalls[1].ID {
		t.Error("tool call IDs must be unique within the turn")
	}
}

func TestComplete_NamelessToolCall_Malformed(t *testing.T) {
	transport := &scriptedTransport{responses: []func() (models.Message, error){
		func() (models.Message, error) {
			return models.Message{
				Role:      models.RoleAssistant,
				ToolCalls: []models.ToolCall{{Function: models.FunctionCall{}}},
			}, nil
		},
	}}
	client := NewClient(transport, fastConfig(3), nil)

	_, err := client.Complete(context.Background(), nil, nil)
	if !errors.Is(err, ollama.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("normalization failure must not be retried, got %d calls", transport.calls)
	}
}

// ─── backoff ─────────────────────────────────────────────────────────────────

func TestBackoff_DoublesUpToCeiling(t *testing.T) {
	b := backoff{next: 10 * time.Millisecond, max: 25 * time.Millisecond}
	ctx := context.Background()

	b.wait(ctx)
	if b.next != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", b.next)
	}
	b.wait(ctx)
	if b.next != 25*time.Millisecond {
		t.Errorf("expected ceiling 25ms, got %v", b.next)
	}
}

func TestBackoff_CanceledWhileWaiting(t *testing.T) {
	b := backoff{next: time.Minute, max: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	if err := b.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
