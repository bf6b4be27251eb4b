package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	Long: `List stored conversation sessions, newest first.

Each session is a JSON file under the sessions directory. Resume one
with 'valet -s <id>' or 'valet --it -s <id>'; any unambiguous ID
prefix works.

Examples:
  valet sessions                 # List sessions
  valet sessions show 3fa8       # Print a session transcript
  valet sessions rename 3fa8 "refactor notes"
  valet sessions delete 3fa8     # Delete by ID prefix`,
	Run: func(cmd *cobra.Command, args []string) {
		runSessionsList()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSessionsShow(args[0])
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Set a session's display name",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runSessionsRename(args[0], args[1])
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSessionsDelete(args[0])
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func sessionManager() *session.Manager {
	manager, err := session.NewManager(cfg.Sessions.Dir, logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return manager
}

func runSessionsList() {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))

	records, failures, err := sessionManager().List()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 && len(failures) == 0 {
		fmt.Println(dimStyle.Render("No sessions yet. Start one with: valet \"hello\""))
		return
	}

	fmt.Println(headerStyle.Render("Sessions"))
	fmt.Println()
	for _, rec := range records {
		fmt.Printf("  %s  %s\n",
			idStyle.Render(shortID(rec.ID)),
			titleStyle.Render(rec.Title()))
		fmt.Printf("  %s\n",
			dimStyle.Render(fmt.Sprintf("%d messages, updated %s",
				len(rec.Messages), rec.UpdatedAt.Local().Format("2006-01-02 15:04"))))
		fmt.Println()
	}

	for _, failure := range failures {
		fmt.Println(warnStyle.Render("  skipped unreadable record: " + failure.Path))
	}
}

func runSessionsShow(idOrPrefix string) {
	userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#818CF8")).Bold(true)
	assistantStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	toolStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	rec, err := sessionManager().Get(idOrPrefix)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(dimStyle.Render("Session " + rec.ID))
	fmt.Println(dimStyle.Render("Model " + rec.Config.Model))
	fmt.Println()

	for _, msg := range rec.Messages {
		switch msg.Role {
		case "user":
			fmt.Println(userStyle.Render("You: ") + msg.Content)
		case "assistant":
			if msg.Content != "" {
				fmt.Println(assistantStyle.Render("Valet: " + msg.Content))
			}
			for _, call := range msg.ToolCalls {
				fmt.Println(toolStyle.Render("  ◆ " + call.Function.Name))
			}
		case "tool":
			fmt.Println(dimStyle.Render("  └ " + firstLine(msg.Content)))
		}
	}
}

func runSessionsRename(idOrPrefix, name string) {
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))

	rec, err := sessionManager().Rename(idOrPrefix, name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Session %s renamed to %q", shortID(rec.ID), name)))
}

func runSessionsDelete(idOrPrefix string) {
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))

	if err := sessionManager().Delete(idOrPrefix); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("✓ Session deleted"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80] + "..."
	}
	return s
}
