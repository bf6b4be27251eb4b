package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace files assembled into the system prompt.
const (
	AgentFile = "AGENT.md"
	SoulFile  = "SOUL.md"
	UserFile  = "USER.md"
)

const defaultSystemPrompt = `You are a helpful assistant with access to tools.
After calling a tool, answer the user's question from the tool result. Do not invent information.
If a tool already produced the complete answer, relay it concisely without adding filler.`

// BuildSystemPrompt assembles the system prompt from the workspace's
// AGENT.md (role), SOUL.md (style), and USER.md (user profile) files.
// Missing files are skipped; if all are missing or empty, a built-in
// default prompt is used. Assembly happens once per Context construction.
func BuildSystemPrompt(workspaceRoot string) string {
	sections := []struct {
		file    string
		heading string
	}{
		{AgentFile, "Role"},
		{SoulFile, "Style"},
		{UserFile, "User"},
	}

	var b strings.Builder
	for _, s := range sections {
		data, err := os.ReadFile(filepath.Join(workspaceRoot, s.file))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", s.heading, text)
	}

	prompt := strings.TrimSpace(b.String())
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
