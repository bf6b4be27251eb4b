// Package models defines the conversation value types shared across the
// agent loop, the wire client, and session persistence.
package models

// Message roles. These match the roles understood by the Ollama chat API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one turn in a conversation.
//
// A tool-role message answers the tool call identified by ToolCallID, which
// must have been emitted by the immediately preceding assistant message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall represents a request from the model to execute a tool.
//
// Ollama does not always populate an ID; missing IDs are filled in with
// bookkeeping values before the call reaches the executor so that result
// messages can be linked back to their request.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its argument payload.
type FunctionCall struct {
	Name      string         `json:"name"`
	Index     int            `json:"index,omitempty"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of executing one tool call. It is produced
// exclusively by the executor and is immutable once created.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// Message converts the result into the tool-role message fed back to the
// model, preserving the identifier linkage to the originating call.
func (r ToolResult) Message() Message {
	return Message{Role: RoleTool, Content: r.Content, ToolCallID: r.CallID}
}
