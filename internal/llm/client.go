// Package llm wraps the wire client with the retry policy and response
// normalization used by the agent loop.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/ollama"
	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/internal/validator"
	"github.com/valet-ai/valet/pkg/models"
)

// ErrUnavailable is reported after retries for transient failures are
// exhausted. The last underlying failure is wrapped alongside it.
var ErrUnavailable = errors.New("llm unavailable")

// Transport sends one chat completion request. *ollama.Client satisfies it.
type Transport interface {
	Chat(ctx context.Context, messages []models.Message, schemas []tools.Schema) (models.Message, error)
}

// Client retries transient completion failures with exponential backoff.
type Client struct {
	transport      Transport
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
}

// Config holds retry policy settings.
type Config struct {
	MaxRetries     int           // additional attempts after the first
	InitialBackoff time.Duration // delay before the first retry
	MaxBackoff     time.Duration // backoff ceiling
}

// NewClient creates a retrying client over the given transport.
func NewClient(transport Transport, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Client{
		transport:      transport,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger,
	}
}

// Complete sends the conversation and tool declarations to the model and
// returns the normalized assistant turn.
//
// Transport-level failures and 5xx responses are retried up to MaxRetries
// times. 4xx responses and malformed bodies are reported immediately: a
// request the endpoint rejected, or a protocol mismatch, will not improve
// on retry. After exhausting retries the client fails with ErrUnavailable
// wrapping the last underlying failure.
func (c *Client) Complete(ctx context.Context, messages []models.Message, schemas []tools.Schema) (models.Message, error) {
	attempts := c.maxRetries + 1
	delay := backoff{next: c.initialBackoff, max: c.maxBackoff}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		msg, err := c.transport.Chat(ctx, messages, schemas)
		if err == nil {
			if nerr := validator.NormalizeToolCalls(&msg); nerr != nil {
				return models.Message{}, fmt.Errorf("%w: %v", ollama.ErrMalformedResponse, nerr)
			}
			return msg, nil
		}

		if !retriable(err) {
			return models.Message{}, err
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		c.logger.Warn("llm call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if werr := delay.wait(ctx); werr != nil {
			return models.Message{}, werr
		}
	}

	return models.Message{}, fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, attempts, lastErr)
}

// retriable classifies a completion failure. Transport errors and 5xx
// responses are transient; cancellation, 4xx responses, and malformed
// bodies are not.
func retriable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ollama.ErrMalformedResponse) {
		return false
	}
	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retriable()
	}
	return true
}

// backoff is the retry delay state machine: it tracks the next delay and
// doubles it up to the ceiling on every wait. The wait itself is a
// suspension point that honors cancellation.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func (b *backoff) wait(ctx context.Context) error {
	d := b.next
	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
