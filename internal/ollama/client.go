// Package ollama provides a client for the Ollama chat API, including
// native tool calling.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valet-ai/valet/internal/tools"
	"github.com/valet-ai/valet/pkg/models"
)

// ErrMalformedResponse marks a response body that failed to parse into the
// expected envelope. Retrying will not fix a protocol mismatch, so callers
// must not retry it.
var ErrMalformedResponse = errors.New("malformed ollama response")

// StatusError is a non-2xx HTTP response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama returned status %d: %s", e.StatusCode, e.Body)
}

// Retriable reports whether the failure is server-side and worth retrying.
func (e *StatusError) Retriable() bool { return e.StatusCode >= 500 }

// Client handles communication with the Ollama API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string        // e.g. "http://localhost:11434"
	Model   string        // e.g. "qwen2.5:7b"
	Timeout time.Duration // per-request timeout
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
	Tools    []tools.Schema   `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

// ChatResponse is the response from /api/chat.
type ChatResponse struct {
	Model     string         `json:"model"`
	CreatedAt string         `json:"created_at"`
	Message   models.Message `json:"message"`
	Done      bool           `json:"done"`
	Error     string         `json:"error,omitempty"`

	// Timing info (present when done=true)
	TotalDuration   int64 `json:"total_duration,omitempty"`
	PromptEvalCount int   `json:"prompt_eval_count,omitempty"`
	EvalCount       int   `json:"eval_count,omitempty"`
}

// Chat sends one non-streaming chat completion request and returns the
// assistant message. Tool calls embedded as JSON in the content (instead of
// the native tool_calls field) are recovered when possible.
func (c *Client) Chat(ctx context.Context, messages []models.Message, schemas []tools.Schema) (models.Message, error) {
	req := ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    schemas,
		Stream:   false,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return models.Message{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return models.Message{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.Message{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Message{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.Message{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if chatResp.Error != "" {
		return models.Message{}, fmt.Errorf("%w: endpoint error: %s", ErrMalformedResponse, chatResp.Error)
	}

	msg := chatResp.Message
	if len(msg.ToolCalls) == 0 && msg.Content != "" {
		if parsed := parseTextToolCalls(msg.Content); len(parsed) > 0 {
			msg.ToolCalls = parsed
			msg.Content = ""
		}
	}
	msg.Role = models.RoleAssistant

	return msg, nil
}

// parseTextToolCalls attempts to extract tool calls from content text.
// Some models emit tool calls as JSON in the content rather than using the
// native tool_calls field. Handled formats:
//   - raw JSON object: {"name": "...", "arguments": {...}}
//   - JSON array of such objects
//   - tagged: <tool_call>...</tool_call>
func parseTextToolCalls(content string) []models.ToolCall {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if strings.Contains(content, "<tool_call>") {
		start := strings.Index(content, "<tool_call>")
		end := strings.Index(content, "</tool_call>")
		if start != -1 && end > start {
			content = strings.TrimSpace(content[start+len("<tool_call>") : end])
		} else if start != -1 {
			content = strings.TrimSpace(content[start+len("<tool_call>"):])
		}
	}

	type textCall struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}

	var calls []textCall
	if err := json.Unmarshal([]byte(content), &calls); err == nil && len(calls) > 0 {
		result := make([]models.ToolCall, len(calls))
		for i, c := range calls {
			result[i] = models.ToolCall{Function: models.FunctionCall{Name: c.Name, Arguments: c.Arguments}}
		}
		return result
	}

	var single textCall
	if err := json.Unmarshal([]byte(content), &single); err == nil && single.Name != "" {
		return []models.ToolCall{{Function: models.FunctionCall{Name: single.Name, Arguments: single.Arguments}}}
	}

	return nil
}

// Ping checks if the Ollama server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// ListModels returns the available model names.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ModelInfo returns a display string for the configured model.
func (c *Client) ModelInfo() string {
	return fmt.Sprintf("%s @ %s", c.model, c.baseURL)
}
