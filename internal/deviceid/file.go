// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package deviceid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

// FileBackend stores entries as one JSON object, replaced atomically on save.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend prepares the parent directory of path.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("deviceid: file backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("deviceid: create store dir: %w", err)
	}
	return &FileBackend{path: path}, nil
}

func (f *FileBackend) read() (map[string]string, error) {
	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return entries, nil
}

func (f *FileBackend) Load(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (f *FileBackend) Save(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return err
	}
	entries[key] = value
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	// temp file + fsync + rename, so a crash never leaves a torn identifier
	return renameio.WriteFile(f.path, data, 0o600)
}

func (f *FileBackend) Close() error { return nil }
