// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"

	"github.com/ManuGH/playguard/internal/protection/api"
	"github.com/ManuGH/playguard/internal/protection/playback"
	"github.com/ManuGH/playguard/internal/protection/signals"
)

// Backend is the subset of the protection API the lifecycle drives.
type Backend interface {
	Start(ctx context.Context, contentID string) (api.StartResult, error)
	Heartbeat(ctx context.Context, req api.HeartbeatRequest) (api.Verdict, error)
	ReportEvent(ctx context.Context, req api.EventRequest) (api.Verdict, error)
	End(ctx context.Context, token string) error
}

// Resolver resolves the playback URL once per session.
type Resolver interface {
	Resolve(ctx context.Context, token, sourceURL string) playback.Resolution
}

// Collector is the per-session signal source.
type Collector interface {
	// Start runs with the session lock held and must not report synchronously.
	Start()
	Stop()
	Sample() signals.Sample
}

// CollectorFactory builds the collector for one session. report receives
// discrete events and must not block.
type CollectorFactory func(scope signals.Scope, report func(signals.Event)) Collector

// SignalCollectors builds collectors over a host environment and event source.
func SignalCollectors(env signals.Environment, source signals.EventSource, opts ...signals.Option) CollectorFactory {
	return func(scope signals.Scope, report func(signals.Event)) Collector {
		return signals.New(env, source, scope, report, opts...)
	}
}

// ContentID identifies one piece of protected content.
type ContentID string

// Content is what a session is opened for.
type Content struct {
	ID        ContentID
	LessonID  string
	SourceURL string
}

// Snapshot is a consistent, read-only view of a session.
type Snapshot struct {
	ContentID     ContentID
	LessonID      string
	State         State
	BlockedReason string
	PlaybackURL   string
	// Scoped is false while PlaybackURL is the unscoped source URL.
	Scoped bool
	// Unprotected is set when the start call failed and playback fell back
	// to the source URL without a heartbeat loop.
	Unprotected bool
	// HeartbeatsStopped is set after an authentication failure.
	HeartbeatsStopped bool
}
