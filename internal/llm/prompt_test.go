package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSystemPrompt_AllFiles(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		AgentFile: "You are Valet.",
		SoulFile:  "Be direct.",
		UserFile:  "The user likes Go.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	prompt := BuildSystemPrompt(root)
	for _, heading := range []string{"## Role", "## Style", "## User"} {
		if !strings.Contains(prompt, heading) {
			t.Errorf("missing section %q in prompt:\n%s", heading, prompt)
		}
	}
	if !strings.Contains(prompt, "You are Valet.") {
		t.Errorf("AGENT.md content missing:\n%s", prompt)
	}
}

func TestBuildSystemPrompt_MissingFilesSkipped(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, SoulFile), []byte("Be brief."), 0o644); err != nil {
		t.Fatal(err)
	}

	prompt := BuildSystemPrompt(root)
	if !strings.Contains(prompt, "## Style") {
		t.Errorf("expected style section:\n%s", prompt)
	}
	if strings.Contains(prompt, "## Role") || strings.Contains(prompt, "## User") {
		t.Errorf("missing files must not produce sections:\n%s", prompt)
	}
}

func TestBuildSystemPrompt_EmptyWorkspace_Default(t *testing.T) {
	prompt := BuildSystemPrompt(t.TempDir())
	if prompt != defaultSystemPrompt {
		t.Errorf("expected default prompt, got:\n%s", prompt)
	}
}

func TestBuildSystemPrompt_BlankFileIgnored(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, AgentFile), []byte("  \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if prompt := BuildSystemPrompt(root); prompt != defaultSystemPrompt {
		t.Errorf("blank file should fall back to default, got:\n%s", prompt)
	}
}
