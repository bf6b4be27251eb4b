package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valet-ai/valet/internal/config"
	"github.com/valet-ai/valet/pkg/models"
)

// Manager stores session records under a directory, one <id>.json file
// per session. All methods are safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewManager creates the storage directory if needed.
func NewManager(dir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Manager{dir: dir, logger: logger}, nil
}

// Create allocates a new session with a fresh UUID and persists it
// immediately so it is resumable even if the first turn never completes.
func (m *Manager) Create(name, systemPrompt string, cfg config.AgentConfig) (*Record, error) {
	now := time.Now().UTC()
	rec := &Record{
		ID:           uuid.NewString(),
		Name:         name,
		SystemPrompt: systemPrompt,
		Messages:     []models.Message{},
		Config:       cfg,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.Save(rec); err != nil {
		return nil, err
	}
	m.logger.Info("session created", zap.String("id", rec.ID))
	return rec, nil
}

// Save persists a record atomically: write to a temp file in the same
// directory, then rename over the target. A crash mid-save leaves the
// previous version intact.
func (m *Manager) Save(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.ID, err)
	}

	target := m.path(rec.ID)
	tmp, err := os.CreateTemp(m.dir, rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename session %s: %w", rec.ID, err)
	}
	return nil
}

// Get resolves a full session ID or an unambiguous ID prefix.
func (m *Manager) Get(idOrPrefix string) (*Record, error) {
	path, err := m.resolve(idOrPrefix)
	if err != nil {
		return nil, err
	}
	rec, err := m.load(path)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Rename sets a session's display name and persists the change. The name
// may be empty, which reverts the listing title to the first user message.
func (m *Manager) Rename(idOrPrefix, name string) (*Record, error) {
	rec, err := m.Get(idOrPrefix)
	if err != nil {
		return nil, err
	}
	rec.Name = name
	if err := m.Save(rec); err != nil {
		return nil, err
	}
	m.logger.Info("session renamed", zap.String("id", rec.ID), zap.String("name", name))
	return rec, nil
}

// Delete removes a session by full ID or unambiguous prefix.
func (m *Manager) Delete(idOrPrefix string) error {
	path, err := m.resolve(idOrPrefix)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info("session deleted", zap.String("path", path))
	return nil
}

// List loads all readable sessions, newest first. Corrupt records are
// collected as LoadErrors and skipped rather than failing the listing.
func (m *Manager) List() ([]*Record, []LoadError, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read sessions dir: %w", err)
	}

	var records []*Record
	var failures []LoadError
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		rec, err := m.load(path)
		if err != nil {
			failures = append(failures, LoadError{Path: path, Err: err})
			m.logger.Warn("skipping unreadable session", zap.String("path", path), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, failures, nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func (m *Manager) load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("session record has no id")
	}
	if rec.Messages == nil {
		rec.Messages = []models.Message{}
	}
	return &rec, nil
}

// resolve maps an ID or prefix to exactly one session file.
func (m *Manager) resolve(idOrPrefix string) (string, error) {
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	exact := m.path(idOrPrefix)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return "", fmt.Errorf("read sessions dir: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if strings.HasPrefix(id, idOrPrefix) {
			matches = append(matches, filepath.Join(m.dir, name))
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d sessions", ErrAmbiguousID, idOrPrefix, len(matches))
	}
}
