package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// FileStore keeps each key as a file under a root directory.
// Writes go through a temp file plus rename so a crash mid-write never
// leaves a torn value behind.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return &FileStore{root: root}, nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), config.FilePermUserRW); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// keyPath validates the key and maps it to a file path. Keys must not
// escape the root directory.
func (s *FileStore) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%s: %q", config.ErrStoreKeyEmpty, key)
	}
	return filepath.Join(s.root, key), nil
}
