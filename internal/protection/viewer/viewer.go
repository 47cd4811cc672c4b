// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package viewer composes the session, gate and watermark into render passes
// for one lesson at a time.
package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/protection/gate"
	"github.com/ManuGH/playguard/internal/protection/session"
	"github.com/ManuGH/playguard/internal/protection/watermark"
)

// DefaultBlockedMessage is shown when a block arrives without a reason.
const DefaultBlockedMessage = "Playback blocked"

// Lesson is one playable item. Unprotected lessons render SourceURL directly.
type Lesson struct {
	ContentID session.ContentID
	LessonID  string
	SourceURL string
	Protected bool
}

// VideoSurface is the mounted video element.
type VideoSurface struct {
	URL    string
	Scoped bool
}

// Frame is a single render pass. Video and Watermark are nil whenever
// BlockedMessage is set.
type Frame struct {
	Video          *VideoSurface
	Watermark      *watermark.Overlay
	BlockedMessage string
}

// Blocked reports whether the frame shows the block surface.
func (f Frame) Blocked() bool { return f.BlockedMessage != "" }

// Viewer shows one lesson at a time and keeps at most one session open.
type Viewer struct {
	sessions *session.Manager
	identity string
	now      func() time.Time
	onRender func(Frame)
	rotator  *watermark.Rotator
	logger   zerolog.Logger

	mu      sync.Mutex
	lesson  *Lesson
	current *session.Session

	// syncMu serializes rotator start/stop decisions.
	syncMu sync.Mutex
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithIdentity sets the viewer identity embedded in the watermark.
func WithIdentity(identity string) Option {
	return func(v *Viewer) { v.identity = identity }
}

// WithRotationInterval sets the watermark rotation cadence.
func WithRotationInterval(d time.Duration) Option {
	return func(v *Viewer) { v.rotator = watermark.NewRotator(d, v.tick) }
}

// WithClock overrides the watermark timestamp source.
func WithClock(now func() time.Time) Option {
	return func(v *Viewer) {
		if now != nil {
			v.now = now
		}
	}
}

// WithRenderer registers a callback that receives a fresh frame whenever the
// session or watermark changes.
func WithRenderer(fn func(Frame)) Option {
	return func(v *Viewer) { v.onRender = fn }
}

func New(sessions *session.Manager, opts ...Option) *Viewer {
	v := &Viewer{
		sessions: sessions,
		now:      time.Now,
		logger:   log.WithComponent("viewer"),
	}
	v.rotator = watermark.NewRotator(watermark.DefaultInterval, v.tick)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open switches to lesson, ending the previous session first.
func (v *Viewer) Open(ctx context.Context, lesson Lesson) error {
	l := lesson
	if !lesson.Protected {
		v.sessions.End(ctx)
		v.mu.Lock()
		v.lesson = &l
		v.current = nil
		v.mu.Unlock()
		v.rotator.Stop()
		v.render()
		return nil
	}

	s, err := v.sessions.Start(ctx, session.Content{
		ID:        lesson.ContentID,
		LessonID:  lesson.LessonID,
		SourceURL: lesson.SourceURL,
	})
	if errors.Is(err, session.ErrSuperseded) {
		v.logger.Debug().
			Str(log.FieldContentID, string(lesson.ContentID)).
			Msg("lesson superseded by a later open")
		return nil
	}
	if err != nil {
		return err
	}

	// A later Open may have won the race for the manager while this Start
	// was in flight; only the manager's current session is shown.
	v.mu.Lock()
	if s != v.sessions.Current() {
		v.mu.Unlock()
		return nil
	}
	v.lesson = &l
	v.current = s
	v.mu.Unlock()

	s.OnChange(func(session.Snapshot) { v.sync(s) })
	// Transitions that happened inside Start were not observed by OnChange.
	v.sync(s)

	v.logger.Debug().
		Str(log.FieldContentID, string(lesson.ContentID)).
		Str(log.FieldLessonID, lesson.LessonID).
		Msg("lesson opened")
	return nil
}

// Close ends the current session and clears the surface.
func (v *Viewer) Close(ctx context.Context) {
	v.mu.Lock()
	v.lesson = nil
	v.current = nil
	v.mu.Unlock()
	v.rotator.Stop()
	v.sessions.End(ctx)
	v.render()
}

// sync aligns the watermark rotation with the session state and re-renders.
// Events from a session that is no longer current are ignored.
func (v *Viewer) sync(s *session.Session) {
	v.syncMu.Lock()
	defer v.syncMu.Unlock()

	v.mu.Lock()
	current := v.current == s
	v.mu.Unlock()
	if !current {
		return
	}
	if s.State() == session.StateActive {
		v.rotator.Start()
	} else {
		v.rotator.Stop()
	}
	v.render()
}

func (v *Viewer) tick(uint64) { v.render() }

func (v *Viewer) render() {
	if v.onRender != nil {
		v.onRender(v.Frame())
	}
}

// Frame computes the current render pass.
func (v *Viewer) Frame() Frame {
	v.mu.Lock()
	lesson, s := v.lesson, v.current
	v.mu.Unlock()

	if lesson == nil {
		return Frame{}
	}
	if !lesson.Protected {
		return Frame{Video: &VideoSurface{URL: lesson.SourceURL}}
	}
	if s == nil {
		return Frame{}
	}

	snap := s.Snapshot()
	d := gate.Decide(snap)
	if !d.Render {
		if snap.State == session.StateBlocked {
			msg := d.BlockedReason
			if msg == "" {
				msg = DefaultBlockedMessage
			}
			return Frame{BlockedMessage: msg}
		}
		return Frame{}
	}

	var f Frame
	if snap.PlaybackURL != "" {
		f.Video = &VideoSurface{URL: snap.PlaybackURL, Scoped: snap.Scoped}
	}
	overlay, ok := watermark.Render(watermark.Input{
		Active:   snap.State == session.StateActive,
		Identity: v.identity,
		Tick:     v.rotator.Tick(),
		Now:      v.now(),
	})
	if ok {
		f.Watermark = &overlay
	}
	return f
}

// Tick exposes the watermark counter.
func (v *Viewer) Tick() uint64 { return v.rotator.Tick() }
