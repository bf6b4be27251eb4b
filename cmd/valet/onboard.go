package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/config"
	"github.com/valet-ai/valet/internal/llm"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "First-time setup",
	Long: `Set up valet for first use.

Creates ~/.valet with a default config file, the workspace and
sessions directories, and starter prompt files (AGENT.md, SOUL.md,
USER.md) in the workspace. Existing files are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		runOnboard()
	},
}

const seedAgent = `You are Valet, a personal assistant running locally on the user's machine.
You can read and write files in your workspace, search the web, fetch pages,
and tell the time. Prefer doing over asking; keep answers short and concrete.
`

const seedSoul = `Be direct and warm. No filler, no corporate tone.
When a task is ambiguous, make the reasonable choice and say what you chose.
`

const seedUser = `# About the user

(Describe yourself here. Valet reads this file at the start of every session.)
`

func runOnboard() {
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)

	fmt.Println(headerStyle.Render("Setting up valet"))
	fmt.Println()

	if err := cfg.EnsureDirs(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("✓ ") + "workspace " + dimStyle.Render(cfg.Workspace.Root))
	fmt.Println(successStyle.Render("✓ ") + "sessions  " + dimStyle.Render(cfg.Sessions.Dir))

	path, err := config.ConfigPath()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(path); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("✓ ") + "config    " + dimStyle.Render(path))
	} else {
		fmt.Println(dimStyle.Render("  config exists, keeping " + path))
	}

	seeds := map[string]string{
		llm.AgentFile: seedAgent,
		llm.SoulFile:  seedSoul,
		llm.UserFile:  seedUser,
	}
	for name, content := range seeds {
		target := filepath.Join(cfg.Workspace.Root, name)
		if _, err := os.Stat(target); err == nil {
			fmt.Println(dimStyle.Render("  " + name + " exists, keeping"))
			continue
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			fmt.Printf("Error writing %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("✓ ") + name)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println(dimStyle.Render("  1. ollama serve"))
	fmt.Println(dimStyle.Render("  2. ollama pull " + cfg.Agent.Model))
	fmt.Println(dimStyle.Render("  3. valet --it"))
}
