// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package devserver

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("devserver: session not found")

// Record is the server-side view of one viewer session.
type Record struct {
	Token         string    `json:"token"`
	ContentID     string    `json:"content_id"`
	Account       string    `json:"account"`
	DeviceID      string    `json:"device_id,omitempty"`
	Blocked       bool      `json:"blocked"`
	BlockedReason string    `json:"blocked_reason,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	LastSeen      time.Time `json:"last_seen"`
}

// Registry stores live sessions. Every Put re-arms the record's TTL, so a
// session whose heartbeats stop expires without an end call.
type Registry interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, token string) (Record, error)
	Delete(ctx context.Context, token string) error
	// Live counts unexpired, unblocked sessions held by account.
	Live(ctx context.Context, account string) (int, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// MemoryRegistry is a process-local Registry.
type MemoryRegistry struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryRegistry) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[rec.Token] = memoryEntry{rec: rec, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryRegistry) Get(_ context.Context, token string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[token]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, token)
		return Record{}, ErrNotFound
	}
	return e.rec, nil
}

func (m *MemoryRegistry) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}

func (m *MemoryRegistry) Live(_ context.Context, account string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for token, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, token)
			continue
		}
		if e.rec.Account == account && !e.rec.Blocked {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRegistry) HealthCheck(context.Context) error { return nil }

func (m *MemoryRegistry) Close() error { return nil }
