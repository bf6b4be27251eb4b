package validator

import (
	"strings"
	"testing"

	"github.com/valet-ai/valet/internal/tools"
)

func TestArguments_AllValid(t *testing.T) {
	params := []tools.Parameter{
		{Name: "path", Type: "string", Required: true},
		{Name: "limit", Type: "integer"},
	}
	args := map[string]any{"path": "a.txt", "limit": float64(3)}

	if err := Arguments(params, args); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestArguments_MissingRequired(t *testing.T) {
	params := []tools.Parameter{{Name: "path", Type: "string", Required: true}}

	err := Arguments(params, map[string]any{})
	if err == nil || !strings.Contains(err.Error(), `missing required argument "path"`) {
		t.Errorf("expected missing-argument error, got %v", err)
	}
}

func TestArguments_MissingOptional_OK(t *testing.T) {
	params := []tools.Parameter{{Name: "limit", Type: "integer"}}

	if err := Arguments(params, map[string]any{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestArguments_TypeMismatches(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		value    any
		ok       bool
	}{
		{"string ok", "string", "x", true},
		{"string vs number", "string", float64(1), false},
		{"number ok", "number", 1.5, true},
		{"number vs string", "number", "1.5", false},
		{"integer ok float form", "integer", float64(3), true},
		{"integer rejects fraction", "integer", 3.5, false},
		{"boolean ok", "boolean", true, true},
		{"boolean vs string", "boolean", "true", false},
		{"object ok", "object", map[string]any{"k": "v"}, true},
		{"array ok", "array", []any{1, 2}, true},
		{"array vs object", "array", map[string]any{}, false},
		{"unknown type accepted", "blob", struct{}{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := []tools.Parameter{{Name: "v", Type: tt.declared, Required: true}}
			err := Arguments(params, map[string]any{"v": tt.value})
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected type mismatch error")
			}
		})
	}
}

func TestArguments_EnumViolation(t *testing.T) {
	params := []tools.Parameter{
		{Name: "mode", Type: "string", Required: true, Enum: []string{"fast", "slow"}},
	}

	if err := Arguments(params, map[string]any{"mode": "fast"}); err != nil {
		t.Errorf("unexpected error for valid enum value: %v", err)
	}

	err := Arguments(params, map[string]any{"mode": "medium"})
	if err == nil || !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("expected enum error, got %v", err)
	}
}

func TestArguments_ExtraArgsIgnored(t *testing.T) {
	params := []tools.Parameter{{Name: "path", Type: "string", Required: true}}
	args := map[string]any{"path": "a.txt", "surplus": 42}

	if err := Arguments(params, args); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
