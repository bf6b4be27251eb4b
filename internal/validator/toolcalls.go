package validator

import (
	"fmt"

	"github.com/valet-ai/valet/pkg/models"
)

// NormalizeToolCalls prepares an assistant message's tool calls for
// execution: every call must name a tool, and calls without an identifier
// get a bookkeeping one so result messages can be linked back to them. IDs
// are made unique within the turn.
func NormalizeToolCalls(msg *models.Message) error {
	seen := make(map[string]bool, len(msg.ToolCalls))

	for i := range msg.ToolCalls {
		call := &msg.ToolCalls[i]
		if call.Function.Name == "" {
			return fmt.Errorf("tool call %d has no function name", i)
		}
		if call.Function.Arguments == nil {
			call.Function.Arguments = map[string]any{}
		}

		if call.ID == "" || seen[call.ID] {
			for n := i; ; n++ {
				id := fmt.Sprintf("call_%d", n)
				if !seen[id] {
					call.ID = id
					break
				}
			}
		}
		seen[call.ID] = true
	}
	return nil
}
