package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools the assistant can call.

The model decides when to use them; you can also nudge it in plain
language ("read todo.md", "search the web for ...").

Examples:
  valet tools           # List all tools
  valet tools --verbose # Show parameter details`,
	Run: func(cmd *cobra.Command, args []string) {
		runTools()
	},
}

func runTools() {
	registry := buildRegistry(cfg)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2DD4BF")).
		Bold(true)

	toolStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FBBF24")).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF"))

	paramStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#818CF8"))

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	fmt.Println(headerStyle.Render("Available Tools"))
	fmt.Println()

	for _, tool := range registry.All() {
		fmt.Printf("  %s\n", toolStyle.Render("◆ "+tool.Name()))
		fmt.Printf("    %s\n", descStyle.Render(tool.Description()))

		params := tool.Parameters()
		if len(params) > 0 && verbose {
			fmt.Println("    Parameters:")
			for _, p := range params {
				req := ""
				if p.Required {
					req = " (required)"
				}
				fmt.Printf("      %s%s\n", paramStyle.Render(p.Name), req)
				fmt.Printf("        %s\n", descStyle.Render(p.Description))
			}
		}
		fmt.Println()
	}

	if !verbose {
		fmt.Println(dimStyle.Render("  Use --verbose for parameter details"))
	}
}
