// Package state persists the last notified public address in a plain text
// file holding nothing but the address.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ipsend/internal/types"
)

// FileStore is a single-value cache backed by one file
type FileStore struct {
	path string
}

// NewFileStore creates a store for path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the cache file location
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the cached address. ok is false when nothing has been cached
// yet; a missing or blank file is not an error.
func (s *FileStore) Load() (addr types.Address, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: failed to read %s: %v", types.ErrStore, s.path, err)
	}

	addr = types.Address(strings.TrimSpace(string(data)))
	if addr.IsEmpty() {
		return "", false, nil
	}
	return addr, true, nil
}

// Save replaces the cached address. The value goes to a temp file in the
// same directory which is then renamed over the cache file.
func (s *FileStore) Save(addr types.Address) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", types.ErrStore, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", types.ErrStore, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(addr.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write: %v", types.ErrStore, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close: %v", types.ErrStore, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to chmod: %v", types.ErrStore, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace %s: %v", types.ErrStore, s.path, err)
	}
	return nil
}
