package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/config"
)

var (
	setOllamaURL string
	setModel     string
	initConfig   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	Long: `View or modify valet configuration.

Configuration is stored in ~/.valet/config.yaml. Environment
variables (VALET_*, OLLAMA_URL, OLLAMA_MODEL, TAVILY_API_KEY)
override the file.

Examples:
  valet config                           # View current config
  valet config --init                    # Write the default config file
  valet config --ollama-url http://...   # Set Ollama URL
  valet config --model qwen2.5:14b       # Set model`,
	Run: func(cmd *cobra.Command, args []string) {
		runConfig()
	},
}

func init() {
	configCmd.Flags().BoolVar(&initConfig, "init", false, "Write the default config file")
	configCmd.Flags().StringVar(&setOllamaURL, "ollama-url", "", "Set Ollama API URL")
	configCmd.Flags().StringVar(&setModel, "model", "", "Set LLM model")
}

func runConfig() {
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))

	path, err := config.ConfigPath()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if initConfig {
		defaults := config.DefaultConfig()
		if err := defaults.Save(path); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Println(successStyle.Render("✓ Wrote " + path))
		printConfig(defaults, path)
		return
	}

	modified := false
	if setOllamaURL != "" {
		cfg.Agent.BaseURL = setOllamaURL
		modified = true
	}
	if setModel != "" {
		cfg.Agent.Model = setModel
		modified = true
	}

	if modified {
		if err := cfg.Save(path); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Println(successStyle.Render("✓ Configuration saved"))
		fmt.Println()
	}

	printConfig(cfg, path)
}

func printConfig(c *config.Config, path string) {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2DD4BF")).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF")).
		Width(20)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F9FAFB"))

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	fmt.Println(headerStyle.Render("valet Configuration"))
	fmt.Println()

	fmt.Printf("%s %s\n", keyStyle.Render("Ollama URL:"), valueStyle.Render(c.Agent.BaseURL))
	fmt.Printf("%s %s\n", keyStyle.Render("Model:"), valueStyle.Render(c.Agent.Model))
	fmt.Printf("%s %s\n", keyStyle.Render("Max iterations:"), valueStyle.Render(fmt.Sprint(c.Agent.MaxIterations)))
	fmt.Printf("%s %s\n", keyStyle.Render("Max tool calls:"), valueStyle.Render(fmt.Sprint(c.Agent.MaxToolCalls)))
	fmt.Printf("%s %s\n", keyStyle.Render("Max retries:"), valueStyle.Render(fmt.Sprint(c.Agent.MaxRetries)))
	fmt.Printf("%s %s\n", keyStyle.Render("Workspace:"), valueStyle.Render(c.Workspace.Root))
	fmt.Printf("%s %s\n", keyStyle.Render("Sessions dir:"), valueStyle.Render(c.Sessions.Dir))

	tavily := "(not set)"
	if c.Web.TavilyAPIKey != "" {
		tavily = "set"
	}
	fmt.Printf("%s %s\n", keyStyle.Render("Tavily API key:"), valueStyle.Render(tavily))

	fmt.Println()
	fmt.Printf("%s %s\n", keyStyle.Render("Config file:"), dimStyle.Render(path))
}
