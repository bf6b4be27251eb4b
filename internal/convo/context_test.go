package convo

import (
	"testing"

	"github.com/valet-ai/valet/pkg/models"
)

func TestSnapshot_SystemPromptFirst(t *testing.T) {
	c := New("you are a test")
	c.AddUser("hi")

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snap))
	}
	if snap[0].Role != models.RoleSystem || snap[0].Content != "you are a test" {
		t.Errorf("first message should be the system prompt, got %+v", snap[0])
	}
	if snap[1].Role != models.RoleUser {
		t.Errorf("second message should be the user turn, got %+v", snap[1])
	}
}

func TestSnapshot_EmptyPrompt_NoSystemMessage(t *testing.T) {
	c := New("")
	c.AddUser("hi")

	snap := c.Snapshot()
	if len(snap) != 1 || snap[0].Role != models.RoleUser {
		t.Errorf("empty prompt should produce no system message: %+v", snap)
	}
}

func TestHistory_ExcludesSystemPrompt(t *testing.T) {
	c := New("prompt")
	c.AddUser("hi")
	c.AddAssistant("hello", nil)

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	for _, msg := range history {
		if msg.Role == models.RoleSystem {
			t.Error("history must not contain the system prompt")
		}
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := New("prompt")
	c.AddUser("hi")

	snap := c.Snapshot()
	snap[1].Content = "mutated"

	if c.History()[0].Content != "hi" {
		t.Error("mutating a snapshot must not affect the conversation")
	}
}

func TestSetHistory_RestoresMessages(t *testing.T) {
	c := New("prompt")
	c.SetHistory([]models.Message{
		models.UserMessage("earlier"),
		models.AssistantMessage("reply", nil),
	})

	if c.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", c.Len())
	}

	c.AddUser("next")
	snap := c.Snapshot()
	if snap[len(snap)-1].Content != "next" {
		t.Error("appends after SetHistory should extend the restored history")
	}
}

func TestAddToolResult_LinksCallID(t *testing.T) {
	c := New("")
	c.AddToolResult(models.ToolResult{CallID: "call_0", Content: "out"})

	history := c.History()
	if history[0].Role != models.RoleTool || history[0].ToolCallID != "call_0" {
		t.Errorf("tool result not linked: %+v", history[0])
	}
}

func TestClear_KeepsSystemPrompt(t *testing.T) {
	c := New("prompt")
	c.AddUser("hi")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty history, got %d", c.Len())
	}
	if c.SystemPrompt() != "prompt" {
		t.Error("clear must keep the system prompt")
	}
}
