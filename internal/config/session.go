package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/swapcircle/swapcircle-go/internal/api"
	"gopkg.in/yaml.v3"
)

// ErrNoSession indicates no stored session exists; the user must sign in.
var ErrNoSession = errors.New("no stored session")

// LoadSession reads the stored session from path.
func LoadSession(path string) (api.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return api.Session{}, ErrNoSession
		}
		return api.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var session api.Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return api.Session{}, fmt.Errorf("parse session file: %w", err)
	}
	if !session.Valid() {
		return api.Session{}, ErrNoSession
	}
	return session, nil
}

// SaveSession persists the session to path, creating parent
// directories as needed. The file is user-readable only.
func SaveSession(path string, session api.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// ClearSession removes the stored session (logout).
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
