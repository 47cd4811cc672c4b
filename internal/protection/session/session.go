// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/metrics"
	"github.com/ManuGH/playguard/internal/protection/api"
	"github.com/ManuGH/playguard/internal/protection/playback"
	"github.com/ManuGH/playguard/internal/protection/signals"
	"github.com/ManuGH/playguard/internal/telemetry"
)

const tracerName = "playguard/session"

// Session is one guarded playback session for a single piece of content.
//
// All network calls run outside mu. Responses that arrive after the session
// left Active are dropped by the transition table.
type Session struct {
	content   Content
	backend   Backend
	resolver  Resolver
	collector Collector
	interval  time.Duration
	logger    zerolog.Logger

	// base is detached from the caller so in-flight sends outlive Start's ctx.
	base context.Context

	mu                sync.Mutex
	state             State
	token             string
	blockedReason     string
	playback          playback.Resolution
	unprotected       bool
	heartbeatsStopped bool
	endSent           bool
	cancelLoop        context.CancelFunc
	loopDone          chan struct{}
	listeners         []func(Snapshot)

	inflight sync.WaitGroup
}

func newSession(ctx context.Context, content Content, m *Manager) *Session {
	s := &Session{
		content:  content,
		backend:  m.backend,
		resolver: m.resolver,
		interval: m.interval,
		base:     context.WithoutCancel(ctx),
		state:    StateIdle,
		logger: log.Derive(func(c *zerolog.Context) {
			*c = c.Str(log.FieldComponent, "session").
				Str(log.FieldContentID, string(content.ID)).
				Str(log.FieldLessonID, content.LessonID)
		}),
	}
	scope := signals.Scope{ContentID: string(content.ID), LessonID: content.LessonID}
	if m.collectors != nil {
		s.collector = m.collectors(scope, s.reportEvent)
	} else {
		s.collector = nopCollector{}
	}
	return s
}

// OnChange registers fn to receive a snapshot after every transition.
// fn runs on the goroutine that caused the transition and must not block.
func (s *Session) OnChange(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Content returns what the session was opened for.
func (s *Session) Content() Content { return s.content }

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ContentID:         s.content.ID,
		LessonID:          s.content.LessonID,
		State:             s.state,
		BlockedReason:     s.blockedReason,
		PlaybackURL:       s.playback.URL,
		Scoped:            s.playback.Scoped,
		Unprotected:       s.unprotected,
		HeartbeatsStopped: s.heartbeatsStopped,
	}
}

// fire applies ev through the transition table. mutate runs under mu after the
// state changed. Listeners are notified after the lock is released.
func (s *Session) fire(ev EventKind, reason string, mutate func()) error {
	s.mu.Lock()
	from := s.state
	to, ok := transitionFor(from, ev)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -%s->", ErrIllegalTransition, from, ev)
	}
	s.state = to
	if to == StateBlocked {
		s.blockedReason = reason
	}
	if mutate != nil {
		mutate()
	}
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	metrics.RecordSessionTransition(string(from), string(to))
	evt := s.logger.Info()
	if from == to {
		evt = s.logger.Debug()
	}
	evt.
		Str(log.FieldEvent, "session.transition").
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Str(log.FieldBlockedReason, snap.BlockedReason).
		Msg("session state changed")

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

// notify pushes the current snapshot without a state change.
func (s *Session) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// start runs the start call and settles the session into Active, Blocked or
// the unprotected Idle fallback.
func (s *Session) start(ctx context.Context) error {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "session.start")
	defer span.End()
	span.SetAttributes(telemetry.SessionAttributes(string(s.content.ID), s.content.LessonID, string(StateStarting))...)

	if err := s.fire(EvStart, "", nil); err != nil {
		return ErrSuperseded
	}

	res, err := s.backend.Start(ctx, string(s.content.ID))
	if err != nil {
		if v, ok := api.VerdictFromError(err); ok {
			if !s.block("start", v.BlockedReason) {
				return ErrSuperseded
			}
			span.SetAttributes(attribute.String(telemetry.SessionStateKey, string(StateBlocked)))
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "start failed")
		s.logger.Warn().Err(err).Str(log.FieldEvent, "session.start_failed").Msg("protection unavailable, playing unprotected")
		fallback := playback.Fallback(s.content.SourceURL)
		if err := s.fire(EvStartFailed, "", func() {
			s.unprotected = true
			s.playback = fallback
		}); err != nil {
			return ErrSuperseded
		}
		return nil
	}

	if res.Verdict.IsBlock() {
		err := s.fire(EvBlocked, res.Verdict.BlockedReason, func() { s.token = res.Token })
		if err != nil {
			if res.Token != "" {
				s.sendEnd(res.Token)
			}
			return ErrSuperseded
		}
		metrics.RecordBlock("start")
		span.SetAttributes(attribute.String(telemetry.SessionStateKey, string(StateBlocked)))
		return nil
	}

	// The collector starts under mu so a concurrent End always stops it
	// after it started.
	if err := s.fire(EvStarted, "", func() {
		s.token = res.Token
		s.collector.Start()
	}); err != nil {
		// Ended while the start call was in flight; release the server session.
		s.sendEnd(res.Token)
		return ErrSuperseded
	}
	span.SetAttributes(attribute.String(telemetry.SessionStateKey, string(StateActive)))

	s.startLoop()

	resolution := s.resolver.Resolve(ctx, res.Token, s.content.SourceURL)
	s.mu.Lock()
	stored := s.state != StateEnded
	if stored {
		s.playback = resolution
	}
	s.mu.Unlock()
	if !stored {
		return ErrSuperseded
	}
	s.notify()
	return nil
}

func (s *Session) startLoop() {
	s.mu.Lock()
	if s.state != StateActive || s.cancelLoop != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.base)
	done := make(chan struct{})
	s.cancelLoop = cancel
	s.loopDone = done
	s.mu.Unlock()

	go s.heartbeatLoop(ctx, done)
}

func (s *Session) stopLoopLocked() {
	if s.cancelLoop != nil {
		s.cancelLoop()
		s.cancelLoop = nil
	}
}

func (s *Session) heartbeatLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.beat()
		}
	}
}

// beat samples and sends one heartbeat without waiting for the previous one.
func (s *Session) beat() {
	s.mu.Lock()
	if s.state != StateActive || s.heartbeatsStopped {
		s.mu.Unlock()
		return
	}
	token := s.token
	s.mu.Unlock()

	req := s.collector.Sample().Request(token)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		v, err := s.backend.Heartbeat(s.base, req)
		switch {
		case err != nil:
			metrics.RecordHeartbeat("error")
		case v.IsBlock():
			metrics.RecordHeartbeat("block")
		default:
			metrics.RecordHeartbeat("allow")
		}
		s.apply("heartbeat", v, err)
	}()
}

// reportEvent is the collector callback. It never blocks the caller.
func (s *Session) reportEvent(e signals.Event) {
	s.mu.Lock()
	if s.state != StateActive || s.heartbeatsStopped {
		s.mu.Unlock()
		metrics.RecordEvent(string(e.Type), string(e.Severity), "dropped")
		return
	}
	token := s.token
	s.mu.Unlock()

	s.logger.Debug().
		Str(log.FieldEvent, "session.event").
		Str(log.FieldEventType, string(e.Type)).
		Str(log.FieldSeverity, string(e.Severity)).
		Msg("reporting protection event")

	req := e.Request(token)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		v, err := s.backend.ReportEvent(s.base, req)
		outcome := "allow"
		switch {
		case err != nil:
			outcome = "error"
		case v.IsBlock():
			outcome = "block"
		}
		metrics.RecordEvent(string(e.Type), string(e.Severity), outcome)
		s.apply("event", v, err)
	}()
}

// apply settles a heartbeat or event response. Transport failures are
// swallowed; 401 stops the loop but keeps playback running.
func (s *Session) apply(source string, v api.Verdict, err error) {
	if err != nil {
		if bv, ok := api.VerdictFromError(err); ok {
			s.block(source, bv.BlockedReason)
			return
		}
		if errors.Is(err, api.ErrUnauthorized) {
			s.stopHeartbeats()
			return
		}
		s.logger.Debug().Err(err).Str(log.FieldOperation, source).Msg("protection call failed")
		return
	}
	if v.IsBlock() {
		s.block(source, v.BlockedReason)
	}
}

// block reports whether the verdict was applied.
func (s *Session) block(source, reason string) bool {
	err := s.fire(EvBlocked, reason, s.stopLoopLocked)
	if err != nil {
		s.logger.Debug().Str(log.FieldOperation, source).Msg("verdict ignored")
		return false
	}
	metrics.RecordBlock(source)
	return true
}

func (s *Session) stopHeartbeats() {
	s.mu.Lock()
	if s.heartbeatsStopped || s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.heartbeatsStopped = true
	s.stopLoopLocked()
	s.mu.Unlock()

	s.logger.Warn().Str(log.FieldEvent, "session.unauthorized").Msg("heartbeats stopped after authentication failure")
	s.notify()
}

// End stops the heartbeat loop, detaches the collector, moves to Ended and
// sends at most one end notification for a started session. Safe to call
// more than once and on sessions that never started.
func (s *Session) End(ctx context.Context) {
	_, span := telemetry.Tracer(tracerName).Start(ctx, "session.end")
	defer span.End()

	var (
		token string
		done  chan struct{}
	)
	err := s.fire(EvEnd, "", func() {
		s.stopLoopLocked()
		done = s.loopDone
		if s.token != "" && !s.endSent {
			s.endSent = true
			token = s.token
		}
	})
	if err != nil {
		return
	}
	s.collector.Stop()
	if done != nil {
		<-done
	}
	if token != "" {
		s.sendEnd(token)
	}
}

// sendEnd delivers the end notification in the background.
func (s *Session) sendEnd(token string) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.backend.End(s.base, token); err != nil {
			metrics.RecordEndNotification("error")
			s.logger.Debug().Err(err).Str(log.FieldEvent, "session.end_failed").Msg("end notification not delivered")
			return
		}
		metrics.RecordEndNotification("ok")
	}()
}

// Wait blocks until the heartbeat loop and all in-flight calls finished.
// Call it after End.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.loopDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	s.inflight.Wait()
}

type nopCollector struct{}

func (nopCollector) Start()                 {}
func (nopCollector) Stop()                  {}
func (nopCollector) Sample() signals.Sample { return signals.Sample{} }
