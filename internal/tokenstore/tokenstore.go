// ABOUTME: Durable storage for the session bearer token
// ABOUTME: Keeps session.json in the XDG config directory, plus an in-memory variant

package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AppName names the config directory under XDG_CONFIG_HOME
const AppName = "blogpanel"

// FileName is the session file inside the config directory
const FileName = "session.json"

// FileStore persists the token to a JSON file with owner-only permissions
type FileStore struct {
	configDir string
	mu        sync.Mutex
}

type sessionData struct {
	AccessToken string    `json:"access_token"`
	SavedAt     time.Time `json:"saved_at"`
}

// New creates a FileStore rooted at configDir
func New(configDir string) *FileStore {
	return &FileStore{configDir: configDir}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// Path returns the location of the session file
func (s *FileStore) Path() string {
	return filepath.Join(s.configDir, FileName)
}

// Load returns the saved token, or "" when the file is missing or unreadable JSON
func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}

	var saved sessionData
	if err := json.Unmarshal(data, &saved); err != nil {
		// Corrupt file, treat as logged out
		return "", nil
	}
	return saved.AccessToken, nil
}

// Save writes token atomically. An empty token clears the file instead.
func (s *FileStore) Save(token string) error {
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(sessionData{
		AccessToken: token,
		SavedAt:     time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.configDir, FileName+".*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("save session file: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing a missing file is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Memory keeps the token in process only
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the held token
func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save replaces the held token
func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear forgets the held token
func (m *Memory) Clear() error {
	return m.Save("")
}
