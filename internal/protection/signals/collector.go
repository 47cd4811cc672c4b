// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package signals turns host environment state into heartbeat samples and
// discrete protection events. It never decides enforcement.
package signals

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/protection/api"
	"github.com/ManuGH/playguard/internal/protection/capture"
	"github.com/rs/zerolog"
)

// DefaultDevtoolsThreshold is the outer/inner size divergence, in pixels,
// above which docked devtools are assumed open.
const DefaultDevtoolsThreshold = 160

// Scope identifies what the collector is watching, for event metadata.
type Scope struct {
	ContentID string
	LessonID  string
}

// Sample is the instantaneous environment snapshot sent on a heartbeat.
type Sample struct {
	IsVisible               bool
	IsFocused               bool
	IsFullscreen            bool
	DevtoolsOpen            bool
	RecorderSuspected       bool
	DisplayCaptureDetected  bool
	MultipleScreensDetected bool
	Metadata                api.Metadata
}

// Request binds the sample to a session token.
func (s Sample) Request(token string) api.HeartbeatRequest {
	return api.HeartbeatRequest{
		SessionToken:            token,
		IsVisible:               s.IsVisible,
		IsFocused:               s.IsFocused,
		IsFullscreen:            s.IsFullscreen,
		DevtoolsOpen:            s.DevtoolsOpen,
		RecorderSuspected:       s.RecorderSuspected,
		DisplayCaptureDetected:  s.DisplayCaptureDetected,
		MultipleScreensDetected: s.MultipleScreensDetected,
		Metadata:                s.Metadata,
	}
}

// Event is a discrete occurrence to report immediately.
type Event struct {
	Type     api.EventType
	Severity api.Severity
	Metadata api.Metadata
	At       time.Time
}

// Request binds the event to a session token.
func (e Event) Request(token string) api.EventRequest {
	return api.EventRequest{
		SessionToken: token,
		EventType:    e.Type,
		Severity:     e.Severity,
		Metadata:     e.Metadata,
		OccurredAt:   e.At,
	}
}

// Collector samples continuous signals and forwards discrete ones.
type Collector struct {
	env       Environment
	source    EventSource
	scope     Scope
	report    func(Event)
	threshold int
	now       func() time.Time
	logger    zerolog.Logger

	mu          sync.Mutex
	started     bool
	stopped     bool
	unsubscribe func()
	interceptor *capture.Interceptor

	captureDetected atomic.Bool
	printScreenSeen atomic.Bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithDevtoolsThreshold overrides the devtools size heuristic.
func WithDevtoolsThreshold(px int) Option {
	return func(c *Collector) {
		if px > 0 {
			c.threshold = px
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a collector. report receives every discrete event and must not block.
func New(env Environment, source EventSource, scope Scope, report func(Event), opts ...Option) *Collector {
	c := &Collector{
		env:       env,
		source:    source,
		scope:     scope,
		report:    report,
		threshold: DefaultDevtoolsThreshold,
		now:       time.Now,
		logger:    log.WithComponent("signals").With().Str(log.FieldContentID, scope.ContentID).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to host observations and patches the display-capture
// entry point. Calling it again, or after Stop, is a no-op.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true

	if c.source != nil {
		c.unsubscribe = c.source.Subscribe(c.handle)
	}

	interceptor, err := capture.Install(c.onDisplayCapture)
	switch {
	case errors.Is(err, capture.ErrAlreadyInstalled):
		c.logger.Warn().Msg("display capture already intercepted by another collector")
	case err != nil:
		c.logger.Warn().Err(err).Msg("display capture interception unavailable")
	default:
		c.interceptor = interceptor
	}
}

// Stop removes every listener and restores the capture entry point.
// It is safe to call on any teardown path, any number of times.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.interceptor != nil {
		c.interceptor.Restore()
		c.interceptor = nil
	}
}

func (c *Collector) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.stopped
}

// Sample reads every continuous signal at this instant.
// Without an Environment only the sticky capture flags are reported.
func (c *Collector) Sample() Sample {
	captured := c.captureDetected.Load()
	s := Sample{
		RecorderSuspected:      captured || c.printScreenSeen.Load(),
		DisplayCaptureDetected: captured,
		Metadata:               c.metadata(),
	}
	if c.env == nil {
		return s
	}
	s.IsVisible = c.env.Visible()
	s.IsFocused = c.env.Focused()
	s.IsFullscreen = c.env.Fullscreen()
	s.DevtoolsOpen = DevtoolsOpen(c.env.Window(), c.threshold)
	s.MultipleScreensDetected = c.env.ScreenCount() > 1
	return s
}

func (c *Collector) metadata() api.Metadata {
	md := api.Metadata{api.MetaContentID: c.scope.ContentID}
	if c.scope.LessonID != "" {
		md[api.MetaLessonID] = c.scope.LessonID
	}
	if c.env != nil {
		if loc := c.env.Location(); loc != "" {
			md[api.MetaURL] = loc
		}
	}
	return md
}

func (c *Collector) handle(o Observation) {
	if !c.active() {
		return
	}
	typ, sev, ok := Classify(o)
	if !ok {
		return
	}
	if typ == api.EventPrintScreenPressed {
		c.printScreenSeen.Store(true)
	}
	c.emit(typ, sev, o.At)
}

func (c *Collector) onDisplayCapture(capture.Options) {
	if !c.active() {
		return
	}
	c.captureDetected.Store(true)
	c.emit(api.EventDisplayCaptureDetected, api.SeverityCritical, time.Time{})
}

func (c *Collector) emit(typ api.EventType, sev api.Severity, at time.Time) {
	if at.IsZero() {
		at = c.now()
	}
	c.logger.Debug().
		Str(log.FieldEventType, string(typ)).
		Str(log.FieldSeverity, string(sev)).
		Msg("protection event observed")
	if c.report != nil {
		c.report(Event{Type: typ, Severity: sev, Metadata: c.metadata(), At: at})
	}
}

// Classify maps a raw observation to an event. Observations that carry no
// protection meaning report ok=false.
func Classify(o Observation) (api.EventType, api.Severity, bool) {
	switch o.Kind {
	case ObserveVisibility:
		if o.Hidden {
			return api.EventTabHidden, api.SeverityWarning, true
		}
	case ObserveBlur:
		return api.EventWindowBlur, api.SeverityInfo, true
	case ObserveFullscreen:
		if !o.Fullscreen {
			return api.EventFullscreenExited, api.SeverityWarning, true
		}
	case ObserveKeyDown:
		if o.Key.Key == "PrintScreen" {
			return api.EventPrintScreenPressed, api.SeverityWarning, true
		}
		if IsDevtoolsShortcut(o.Key) {
			return api.EventDevtoolsOpened, api.SeverityWarning, true
		}
	}
	return "", "", false
}

// IsDevtoolsShortcut matches F12 and ctrl/cmd+shift+I.
func IsDevtoolsShortcut(k KeyStroke) bool {
	if k.Key == "F12" {
		return true
	}
	return (k.Ctrl || k.Meta) && k.Shift && strings.EqualFold(k.Key, "i")
}

// DevtoolsOpen applies the window-size divergence heuristic.
func DevtoolsOpen(w WindowMetrics, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultDevtoolsThreshold
	}
	return w.OuterWidth-w.InnerWidth > threshold || w.OuterHeight-w.InnerHeight > threshold
}
