// Package secrets stores provider API keys as one file per key under the
// codewing home directory, kept out of config.toml so configs can be shared.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a file-backed secret store rooted at dir.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first Set.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Get returns the secret for key, or empty when unset.
func (s *Store) Get(key string) (string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read secret %q: %w", key, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Set writes the secret for key with owner-only permissions.
func (s *Store) Set(key, value string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create secrets dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0o600); err != nil {
		return fmt.Errorf("write secret %q: %w", key, err)
	}
	return nil
}

// Delete removes the secret for key. Deleting an unset key is not an error.
func (s *Store) Delete(key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}
	return nil
}

func (s *Store) pathFor(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("secret key is required")
	}
	if strings.ContainsAny(trimmed, "/\\") {
		return "", fmt.Errorf("invalid secret key %q", key)
	}
	return filepath.Join(s.dir, trimmed), nil
}
