// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package deviceid persists the stable per-installation device identifier
// that binds playback URLs to one client.
package deviceid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/playguard/internal/log"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Key is the local storage entry holding the device identifier.
const Key = "playguard.device_id"

var ErrUnknownBackend = errors.New("deviceid: unknown store backend")

// Backend is the local key-value storage the identifier lives in.
type Backend interface {
	Load(ctx context.Context, key string) (value string, found bool, err error)
	Save(ctx context.Context, key, value string) error
	Close() error
}

// Store reads or lazily creates the device identifier.
type Store struct {
	backend Backend
	group   singleflight.Group
	newID   func() string
	logger  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithGenerator overrides identifier generation.
func WithGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New wraps a backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		newID:   uuid.NewString,
		logger:  log.WithComponent("deviceid"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a Store for the named backend kind (memory, file, badger, sqlite).
func Open(kind, path string) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch kind {
	case "", "memory":
		backend = NewMemoryBackend()
	case "file":
		backend, err = NewFileBackend(path)
	case "badger":
		backend, err = OpenBadgerBackend(path)
	case "sqlite":
		backend, err = OpenSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, kind)
	}
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}

// Get returns the persisted identifier, creating and saving one on first use.
// Concurrent first accesses collapse into a single create.
func (s *Store) Get(ctx context.Context) (string, error) {
	v, err, _ := s.group.Do(Key, func() (any, error) {
		id, found, err := s.backend.Load(ctx, Key)
		if err != nil {
			return "", fmt.Errorf("deviceid: load: %w", err)
		}
		if found && strings.TrimSpace(id) != "" {
			return id, nil
		}

		id = s.newID()
		if err := s.backend.Save(ctx, Key, id); err != nil {
			return "", fmt.Errorf("deviceid: save: %w", err)
		}
		s.logger.Info().Str(log.FieldDeviceID, id).Msg("created device identifier")
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
