package validator

import (
	"testing"

	"github.com/valet-ai/valet/pkg/models"
)

func TestNormalizeToolCalls_AssignsMissingIDs(t *testing.T) {
	msg := models.Message{
		Role: models.RoleAssistant,
		ToolCalls: []models.ToolCall{
			{Function: models.FunctionCall{Name: "fs_read"}},
			{Function: models.FunctionCall{Name: "get_time"}},
		},
	}

	if err := NormalizeToolCalls(&msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ToolCalls[0].ID != "call_0" || msg.ToolCalls[1].ID != "call_1" {
		t.Errorf("expected call_0/call_1, got %q/%q", msg.ToolCalls[0].ID, msg.ToolCalls[1].ID)
	}
}

func TestNormalizeToolCalls_KeepsExistingIDs(t *testing.T) {
	msg := models.Message{
		Role: models.RoleAssistant,
		ToolCalls: []models.ToolCall{
			{ID: "native-7", Function: models.FunctionCall{Name: "fs_read"}},
		},
	}

	if err := NormalizeToolCalls(&msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ToolCalls[0].ID != "native-7" {
		t.Errorf("native ID should be preserved, got %q", msg.ToolCalls[0].ID)
	}
}

func TestNormalizeToolCalls_DeduplicatesIDs(t *testing.T) {
	msg := models.Message{
		Role: models.RoleAssistant,
		ToolCalls: []models.ToolCall{
			{ID: "x", Function: models.FunctionCall{Name: "a"}},
			{ID: "x", Function: models.FunctionCall{Name: "b"}},
		},
	}

	if err := NormalizeToolCalls(&msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ToolCalls[0].ID == msg.ToolCalls[1].ID {
		t.Errorf("duplicate IDs not resolved: %q", msg.ToolCalls[1].ID)
	}
}

func TestNormalizeToolCalls_BookkeepingIDSkipsTakenNames(t *testing.T) {
	cases := []struct {
		name  string
		calls []models.ToolCall
	}{
		{
			name: "missing ID collides with native call_1",
			calls: []models.ToolCall{
				{ID: "call_1", Function: models.FunctionCall{Name: "a"}},
				{Function: models.FunctionCall{Name: "b"}},
			},
		},
		{
			name: "duplicate native call_1",
			calls: []models.ToolCall{
				{ID: "call_1", Function: models.FunctionCall{Name: "a"}},
				{ID: "call_1", Function: models.FunctionCall{Name: "b"}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := models.Message{Role: models.RoleAssistant, ToolCalls: tc.calls}
			if err := NormalizeToolCalls(&msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			seen := make(map[string]bool, len(msg.ToolCalls))
			for i, call := range msg.ToolCalls {
				if call.ID == "" {
					t.Errorf("call %d has no ID", i)
				}
				if seen[call.ID] {
					t.Errorf("call %d reuses ID %q", i, call.ID)
				}
				seen[call.ID] = true
			}
		})
	}
}

func TestNormalizeToolCalls_EmptyName_Errors(t *testing.T) {
	msg := models.Message{
		Role:      models.RoleAssistant,
		ToolCalls: []models.ToolCall{{Function: models.FunctionCall{}}},
	}

	if err := NormalizeToolCalls(&msg); err == nil {
		t.Error("expected error for empty function name")
	}
}

func TestNormalizeToolCalls_NilArguments_BecomeEmptyMap(t *testing.T) {
	msg := models.Message{
		Role:      models.RoleAssistant,
		ToolCalls: []models.ToolCall{{Function: models.FunctionCall{Name: "get_time"}}},
	}

	if err := NormalizeToolCalls(&msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ToolCalls[0].Function.Arguments == nil {
		t.Error("nil arguments should be replaced with an empty map")
	}
}

func TestNormalizeToolCalls_NoCalls_NoOp(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant, Content: "plain answer"}
	if err := NormalizeToolCalls(&msg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
