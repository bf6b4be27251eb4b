package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/config"
)

var (
	flagOllamaURL  string
	flagModel      string
	flagConfigPath string
	flagSession    string
	verbose        bool
	interactive    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "valet [message]",
	Short: "Local AI assistant powered by Ollama",
	Long: `
  ██╗   ██╗ █████╗ ██╗     ███████╗████████╗
  ██║   ██║██╔══██╗██║     ██╔════╝╚══██╔══╝
  ██║   ██║███████║██║     █████╗     ██║
  ╚██╗ ██╔╝██╔══██║██║     ██╔══╝     ██║
   ╚████╔╝ ██║  ██║███████╗███████╗   ██║
    ╚═══╝  ╚═╝  ╚═╝╚══════╝╚══════╝   ╚═╝

  A conversational assistant that runs entirely on your machine.
  It reads and writes files in its workspace, searches the web,
  and remembers every conversation as a resumable session.

Usage:
  valet "summarize notes.md"     Run a one-shot message
  valet --it                     Start interactive mode
  valet -s 3fa8 "and then?"      Continue an earlier session
  valet sessions                 List stored sessions
  valet onboard                  First-time setup

Examples:
  valet "what time is it in UTC?"
  valet "search the web for Go 1.24 release notes"
  valet --it`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment wins over it.
		_ = godotenv.Load()

		var err error
		logger, err = config.NewLogger(verbose)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		cfg, err = config.Load(flagConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagOllamaURL != "" {
			cfg.Agent.BaseURL = flagOllamaURL
		}
		if flagModel != "" {
			cfg.Agent.Model = flagModel
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		if interactive {
			runInteractive()
			return
		}

		if len(args) > 0 {
			runOneShot(args)
			return
		}

		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&interactive, "it", false, "Start interactive mode")

	rootCmd.PersistentFlags().StringVar(&flagOllamaURL, "ollama-url", "", "Ollama API URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "LLM model to use")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&flagSession, "session", "s", "", "Session ID or prefix to resume")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(versionCmd)
}
