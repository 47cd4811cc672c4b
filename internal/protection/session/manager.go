// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session owns the guarded playback lifecycle: start, heartbeats,
// verdict application and teardown. At most one session is current per
// Manager.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultHeartbeatInterval is the heartbeat cadence when none is configured.
const DefaultHeartbeatInterval = 5 * time.Second

var ErrMissingContent = errors.New("session: content id is required")

// Manager runs one session at a time.
type Manager struct {
	backend    Backend
	resolver   Resolver
	collectors CollectorFactory
	interval   time.Duration

	mu      sync.Mutex
	current *Session

	// draining tracks ended sessions whose in-flight calls are still running.
	draining sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithHeartbeatInterval sets the heartbeat cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithCollectors sets the per-session signal collector factory.
func WithCollectors(f CollectorFactory) Option {
	return func(m *Manager) { m.collectors = f }
}

func NewManager(backend Backend, resolver Resolver, opts ...Option) *Manager {
	m := &Manager{
		backend:  backend,
		resolver: resolver,
		interval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start ends the current session, if any, and opens a new one for content.
// Backend failures never surface as errors; they leave the session in the
// unprotected fallback. ErrSuperseded is returned when a concurrent Start or
// End ended the session before it settled.
func (m *Manager) Start(ctx context.Context, content Content) (*Session, error) {
	if content.ID == "" {
		return nil, ErrMissingContent
	}

	s := newSession(ctx, content, m)

	m.mu.Lock()
	prev := m.current
	m.current = s
	m.mu.Unlock()

	if prev != nil {
		m.retire(ctx, prev)
	}
	return s, s.start(ctx)
}

// Current returns the current session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// End ends the current session and clears it.
func (m *Manager) End(ctx context.Context) {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()
	if s != nil {
		m.retire(ctx, s)
	}
}

func (m *Manager) retire(ctx context.Context, s *Session) {
	s.End(ctx)
	m.draining.Add(1)
	go func() {
		defer m.draining.Done()
		s.Wait()
	}()
}

// Close ends the current session and waits for every session's in-flight
// calls, including end notifications.
func (m *Manager) Close(ctx context.Context) {
	m.End(ctx)
	m.draining.Wait()
}
