package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/existflow/vibetrack/internal/model"
)

// Session is the persisted sign-in state shared by every vibe process
type Session struct {
	Backend string     `json:"backend"`
	User    model.User `json:"user"`
	Token   string     `json:"token,omitempty"`
}

// SessionFile stores the session as JSON with owner-only permissions
type SessionFile struct {
	path string
}

// NewSessionFile returns a session file at path
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// Path returns the file location
func (f *SessionFile) Path() string {
	return f.path
}

// Dir returns the directory holding the file
func (f *SessionFile) Dir() string {
	return filepath.Dir(f.path)
}

// Load returns the session for backend, or false if there is none. A
// session written by another backend is ignored.
func (f *SessionFile) Load(backend string) (*Session, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read session: %w", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("parse session: %w", err)
	}
	if s.Backend != backend || s.User.UID == "" {
		return nil, false, nil
	}
	return &s, true, nil
}

// Save writes the session atomically
func (f *SessionFile) Save(s Session) error {
	if err := os.MkdirAll(f.Dir(), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.Dir(), ".session-*.json")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session
func (f *SessionFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// raw returns the file contents, used as a change token
func (f *SessionFile) raw() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return string(data), err
}
