// Package validator checks model-produced payloads before they reach the
// rest of the system: tool-call argument payloads against the declared
// parameter schema, and assistant tool-call lists for well-formedness.
package validator

import (
	"fmt"

	"github.com/valet-ai/valet/internal/tools"
)

// Arguments validates an argument payload against a tool's declared
// parameters. It reports the first missing required field or type mismatch
// with a human-readable description.
func Arguments(params []tools.Parameter, args map[string]any) error {
	for _, p := range params {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("missing required argument %q", p.Name)
			}
			continue
		}

		if !typeMatches(p.Type, value) {
			return fmt.Errorf("argument %q must be a %s, got %T", p.Name, p.Type, value)
		}

		if len(p.Enum) > 0 {
			if s, ok := value.(string); ok && !contains(p.Enum, s) {
				return fmt.Errorf("argument %q must be one of %v", p.Name, p.Enum)
			}
		}
	}
	return nil
}

// typeMatches checks a JSON-decoded value against a declared schema type.
// Numbers arrive as float64 from encoding/json, so integer accepts any
// numeric value without a fractional part.
func typeMatches(declared string, value any) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		f, ok := asFloat(value)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		// Unknown declared type: leave it to the tool.
		return true
	}
}

func isNumber(value any) bool {
	_, ok := asFloat(value)
	return ok
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
