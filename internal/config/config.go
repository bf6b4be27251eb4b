// Package config handles valet configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AgentConfig is the behavior snapshot attached to a session at creation.
// It is immutable thereafter: a session's behavior is reproducible from
// its stored config.
type AgentConfig struct {
	Model          string        `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	MaxIterations  int           `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations"`
	MaxToolCalls   int           `mapstructure:"max_tool_calls" yaml:"max_tool_calls" json:"max_tool_calls"`
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff" json:"max_backoff"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// WorkspaceConfig defines the root for file tools and system prompt files.
type WorkspaceConfig struct {
	Root string `mapstructure:"root" yaml:"root" json:"root"`
}

// SessionsConfig defines durable session storage.
type SessionsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// WebConfig holds web tool credentials. An absent key disables only the
// tools that require it.
type WebConfig struct {
	TavilyAPIKey string `mapstructure:"tavily_api_key" yaml:"tavily_api_key,omitempty" json:"-"`
}

// Config holds all valet configuration.
type Config struct {
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent" json:"agent"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace" json:"workspace"`
	Sessions  SessionsConfig  `mapstructure:"sessions" yaml:"sessions" json:"sessions"`
	Web       WebConfig       `mapstructure:"web" yaml:"web" json:"web"`
}

// BaseDir returns the valet configuration directory (~/.valet).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".valet"), nil
}

// ConfigPath returns the default configuration file path.
func ConfigPath() (string, error) {
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns the built-in defaults. Paths fall back to the
// current directory when the home directory cannot be resolved.
func DefaultConfig() *Config {
	base, err := BaseDir()
	if err != nil {
		base = ".valet"
	}
	return &Config{
		Agent: AgentConfig{
			Model:          "qwen2.5:7b",
			BaseURL:        "http://localhost:11434",
			MaxIterations:  10,
			MaxToolCalls:   5,
			MaxRetries:     3,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Timeout:        2 * time.Minute,
		},
		Workspace: WorkspaceConfig{Root: filepath.Join(base, "workspace")},
		Sessions:  SessionsConfig{Dir: filepath.Join(base, "sessions")},
	}
}

// Load reads configuration with viper. Precedence: explicit file, then
// ./config.yaml, then ~/.valet/config.yaml, then environment, then
// defaults. A missing config file is not an error; defaults apply.
//
// Environment variables: VALET_* override any key (VALET_AGENT_MODEL,
// VALET_SESSIONS_DIR, ...); OLLAMA_URL, OLLAMA_MODEL, and TAVILY_API_KEY
// are honored as shorthands.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("agent.model", defaults.Agent.Model)
	v.SetDefault("agent.base_url", defaults.Agent.BaseURL)
	v.SetDefault("agent.max_iterations", defaults.Agent.MaxIterations)
	v.SetDefault("agent.max_tool_calls", defaults.Agent.MaxToolCalls)
	v.SetDefault("agent.max_retries", defaults.Agent.MaxRetries)
	v.SetDefault("agent.initial_backoff", defaults.Agent.InitialBackoff)
	v.SetDefault("agent.max_backoff", defaults.Agent.MaxBackoff)
	v.SetDefault("agent.timeout", defaults.Agent.Timeout)
	v.SetDefault("workspace.root", defaults.Workspace.Root)
	v.SetDefault("sessions.dir", defaults.Sessions.Dir)
	v.SetDefault("web.tavily_api_key", "")

	v.SetEnvPrefix("VALET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("agent.base_url", "VALET_AGENT_BASE_URL", "OLLAMA_URL")
	v.BindEnv("agent.model", "VALET_AGENT_MODEL", "OLLAMA_MODEL")
	v.BindEnv("web.tavily_api_key", "VALET_WEB_TAVILY_API_KEY", "TAVILY_API_KEY")

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicitPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if base, err := BaseDir(); err == nil {
			v.AddConfigPath(base)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// EnsureDirs creates the workspace and session directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Workspace.Root, c.Sessions.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
