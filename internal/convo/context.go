// Package convo holds the in-memory conversation state for one session.
package convo

import (
	"sync"

	"github.com/valet-ai/valet/pkg/models"
)

// Context owns the ordered conversation buffer and the system prompt. The
// system prompt is set once at construction; it always appears as the first
// message in snapshots and is never part of the appendable history.
//
// The agent loop is the single writer during a turn; the mutex only guards
// against concurrent reads from the UI while a turn is in flight.
type Context struct {
	mu           sync.RWMutex
	systemPrompt string
	messages     []models.Message
}

// New creates a Context with the given system prompt and empty history.
func New(systemPrompt string) *Context {
	return &Context{systemPrompt: systemPrompt}
}

// AddUser appends a user message.
func (c *Context) AddUser(content string) {
	c.append(models.UserMessage(content))
}

// AddAssistant appends an assistant message, optionally carrying tool calls.
func (c *Context) AddAssistant(content string, calls []models.ToolCall) {
	c.append(models.AssistantMessage(content, calls))
}

// AddToolResult appends the tool-role message for one executed call.
func (c *Context) AddToolResult(result models.ToolResult) {
	c.append(result.Message())
}

// Append adds an already-built message to the history.
func (c *Context) Append(msg models.Message) {
	c.append(msg)
}

func (c *Context) append(msg models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Snapshot returns the conversation as sent to the model: the system
// prompt (when present) followed by a copy of the history.
func (c *Context) Snapshot() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Message, 0, len(c.messages)+1)
	if c.systemPrompt != "" {
		out = append(out, models.Message{Role: models.RoleSystem, Content: c.systemPrompt})
	}
	out = append(out, c.messages...)
	return out
}

// History returns a copy of the history without the system prompt, as
// stored in session records.
func (c *Context) History() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SetHistory replaces the history wholesale. Used when loading a persisted
// session.
func (c *Context) SetHistory(messages []models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]models.Message, len(messages))
	copy(c.messages, messages)
}

// SystemPrompt returns the prompt set at construction.
func (c *Context) SystemPrompt() string {
	return c.systemPrompt
}

// Len returns the number of history messages (system prompt excluded).
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Clear drops the history, keeping the system prompt.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
