package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arklim/rera-lookup-gateway/internal/repository"
)

// SessionStore persists the opaque credential blob in a single file.
// Writes go through a temp file and rename so a crash mid-write never leaves
// a corrupt blob behind.
type SessionStore struct {
	path string
}

// NewSessionStore constructs a file-backed session store at the given path.
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	return &SessionStore{path: path}, nil
}

// Load returns the persisted blob or repository.ErrNotFound when no session exists.
func (s *SessionStore) Load(_ context.Context) ([]byte, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(blob) == 0 {
		return nil, repository.ErrNotFound
	}
	return blob, nil
}

// Save atomically replaces the persisted blob.
func (s *SessionStore) Save(_ context.Context, blob []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear removes the persisted blob. A missing file is not an error.
func (s *SessionStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
