// Package session provides durable conversation storage as one JSON
// record per session on disk.
package session

import (
	"errors"
	"time"

	"github.com/valet-ai/valet/internal/config"
	"github.com/valet-ai/valet/pkg/models"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrAmbiguousID = errors.New("session id prefix is ambiguous")
)

// Record is the on-disk shape of a session. Unknown fields in stored
// records are ignored on load so older binaries' files stay readable.
type Record struct {
	ID           string             `json:"id"`
	Name         string             `json:"name,omitempty"`
	SystemPrompt string             `json:"system_prompt"`
	Messages     []models.Message   `json:"messages"`
	Config       config.AgentConfig `json:"config"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Title returns the display name, falling back to the first user message.
func (r *Record) Title() string {
	if r.Name != "" {
		return r.Name
	}
	for _, m := range r.Messages {
		if m.Role == models.RoleUser {
			return truncate(m.Content, 48)
		}
	}
	return "(empty)"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// LoadError reports a single record that could not be loaded. Corrupt
// records never abort loading the rest.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return "load session " + e.Path + ": " + e.Err.Error()
}

func (e LoadError) Unwrap() error { return e.Err }
