package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/ollama"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the Ollama server",
	Run: func(cmd *cobra.Command, args []string) {
		runModels()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels() {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	client := ollama.NewClient(ollama.Config{BaseURL: cfg.Agent.BaseURL, Model: cfg.Agent.Model})

	names, err := client.ListModels(context.Background())
	if err != nil {
		printConnectionHelp(cfg.Agent)
		os.Exit(1)
	}

	fmt.Println(headerStyle.Render("Models @ " + cfg.Agent.BaseURL))
	fmt.Println()

	if len(names) == 0 {
		fmt.Println(dimStyle.Render("  No models pulled yet. Try: ollama pull " + cfg.Agent.Model))
		return
	}

	for _, name := range names {
		if name == cfg.Agent.Model {
			fmt.Println(activeStyle.Render("  ● " + name + "  (configured)"))
			continue
		}
		fmt.Println(nameStyle.Render("    " + name))
	}
}
