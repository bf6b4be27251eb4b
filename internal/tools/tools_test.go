package tools

import (
	"context"
	"errors"
	"testing"
)

// fakeTool is a minimal tool for registry tests.
type fakeTool struct {
	name   string
	params []Parameter
}

func (f *fakeTool) Name() string            { return f.name }
func (f *fakeTool) Description() string     { return "fake tool " + f.name }
func (f *fakeTool) Parameters() []Parameter { return f.params }
func (f *fakeTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return "ok", nil
}

// ─── Registry ────────────────────────────────────────────────────────────────

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeTool{name: "alpha"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tool, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Name() != "alpha" {
		t.Errorf("expected alpha, got %q", tool.Name())
	}
}

func TestRegistry_DuplicateName_Rejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeTool{name: "alpha"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Register(&fakeTool{name: "alpha"})
	if !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("expected ErrDuplicateTool, got %v", err)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRegistry_All_PreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		r.MustRegister(&fakeTool{name: name})
	}

	all := r.All()
	if len(all) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(all))
	}
	for i, tool := range all {
		if tool.Name() != names[i] {
			t.Errorf("position %d: expected %q, got %q", i, names[i], tool.Name())
		}
	}
}

func TestRegistry_Schemas_MatchesToolCount(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&fakeTool{name: "a"})
	r.MustRegister(&fakeTool{name: "b"})

	schemas := r.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(schemas))
	}
	if schemas[0].Function.Name != "a" || schemas[1].Function.Name != "b" {
		t.Errorf("schemas out of order: %q, %q", schemas[0].Function.Name, schemas[1].Function.Name)
	}
}

// ─── SchemaFor ───────────────────────────────────────────────────────────────

func TestSchemaFor_RequiredAndOptionalParams(t *testing.T) {
	tool := &fakeTool{
		name: "demo",
		params: []Parameter{
			{Name: "path", Type: "string", Description: "a path", Required: true},
			{Name: "limit", Type: "integer", Description: "a limit"},
		},
	}

	schema := SchemaFor(tool)
	if schema.Type != "function" {
		t.Errorf("expected type function, got %q", schema.Type)
	}
	if schema.Function.Name != "demo" {
		t.Errorf("expected name demo, got %q", schema.Function.Name)
	}

	props, ok := schema.Function.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing or wrong type: %#v", schema.Function.Parameters)
	}
	if len(props) != 2 {
		t.Errorf("expected 2 properties, got %d", len(props))
	}

	required, ok := schema.Function.Parameters["required"].([]string)
	if !ok {
		t.Fatalf("required missing or wrong type: %#v", schema.Function.Parameters)
	}
	if len(required) != 1 || required[0] != "path" {
		t.Errorf("expected required [path], got %v", required)
	}
}

func TestSchemaFor_NoParams_EmptyRequiredList(t *testing.T) {
	schema := SchemaFor(&fakeTool{name: "bare"})

	required, ok := schema.Function.Parameters["required"].([]string)
	if !ok {
		t.Fatalf("required missing: %#v", schema.Function.Parameters)
	}
	if len(required) != 0 {
		t.Errorf("expected empty required list, got %v", required)
	}
}

func TestSchemaFor_EnumIncluded(t *testing.T) {
	tool := &fakeTool{
		name: "pick",
		params: []Parameter{
			{Name: "mode", Type: "string", Required: true, Enum: []string{"fast", "slow"}},
		},
	}

	schema := SchemaFor(tool)
	props := schema.Function.Parameters["properties"].(map[string]any)
	mode := props["mode"].(map[string]any)
	enum, ok := mode["enum"].([]string)
	if !ok || len(enum) != 2 {
		t.Errorf("expected enum [fast slow], got %v", mode["enum"])
	}
}
