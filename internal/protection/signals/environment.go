// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package signals

import (
	"sync"
	"time"
)

// WindowMetrics are the outer (including browser chrome) and inner
// (viewport) window dimensions in CSS pixels.
type WindowMetrics struct {
	OuterWidth  int
	OuterHeight int
	InnerWidth  int
	InnerHeight int
}

// Environment exposes the continuous signals sampled on each heartbeat.
type Environment interface {
	Visible() bool
	Focused() bool
	Fullscreen() bool
	Window() WindowMetrics
	ScreenCount() int
	Location() string
}

// ObservationKind identifies a raw host notification.
type ObservationKind int

const (
	ObserveVisibility ObservationKind = iota + 1
	ObserveBlur
	ObserveFullscreen
	ObserveKeyDown
)

func (k ObservationKind) String() string {
	switch k {
	case ObserveVisibility:
		return "visibility"
	case ObserveBlur:
		return "blur"
	case ObserveFullscreen:
		return "fullscreen"
	case ObserveKeyDown:
		return "keydown"
	default:
		return "unknown"
	}
}

// KeyStroke is a key press with its modifier state.
type KeyStroke struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

// Observation is one raw notification pushed by the host.
type Observation struct {
	Kind ObservationKind
	// Hidden is set for ObserveVisibility.
	Hidden bool
	// Fullscreen is the new state for ObserveFullscreen.
	Fullscreen bool
	Key        KeyStroke
	At         time.Time
}

// EventSource delivers observations to subscribers until they unsubscribe.
type EventSource interface {
	Subscribe(handler func(Observation)) (unsubscribe func())
}

// Dispatcher is an in-process EventSource hosts push observations into.
type Dispatcher struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(Observation)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[int]func(Observation))}
}

func (d *Dispatcher) Subscribe(handler func(Observation)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.handlers[id] = handler
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.handlers, id)
			d.mu.Unlock()
		})
	}
}

// Dispatch delivers o to every current subscriber.
func (d *Dispatcher) Dispatch(o Observation) {
	if o.At.IsZero() {
		o.At = time.Now()
	}
	d.mu.Lock()
	handlers := make([]func(Observation), 0, len(d.handlers))
	for _, h := range d.handlers {
		handlers = append(handlers, h)
	}
	d.mu.Unlock()
	for _, h := range handlers {
		h(o)
	}
}

// Listeners returns the number of live subscriptions.
func (d *Dispatcher) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

// StateEnvironment is a mutable Environment for hosts that mirror their
// state into it, and for tests.
type StateEnvironment struct {
	mu         sync.RWMutex
	visible    bool
	focused    bool
	fullscreen bool
	window     WindowMetrics
	screens    int
	location   string
}

// NewStateEnvironment starts visible, focused, windowed, single-screen.
func NewStateEnvironment(location string) *StateEnvironment {
	return &StateEnvironment{
		visible:  true,
		focused:  true,
		screens:  1,
		location: location,
		window:   WindowMetrics{OuterWidth: 1280, OuterHeight: 800, InnerWidth: 1280, InnerHeight: 720},
	}
}

func (e *StateEnvironment) Visible() bool    { e.mu.RLock(); defer e.mu.RUnlock(); return e.visible }
func (e *StateEnvironment) Focused() bool    { e.mu.RLock(); defer e.mu.RUnlock(); return e.focused }
func (e *StateEnvironment) Fullscreen() bool { e.mu.RLock(); defer e.mu.RUnlock(); return e.fullscreen }
func (e *StateEnvironment) ScreenCount() int { e.mu.RLock(); defer e.mu.RUnlock(); return e.screens }
func (e *StateEnvironment) Location() string { e.mu.RLock(); defer e.mu.RUnlock(); return e.location }

func (e *StateEnvironment) Window() WindowMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window
}

func (e *StateEnvironment) SetVisible(v bool)    { e.mu.Lock(); e.visible = v; e.mu.Unlock() }
func (e *StateEnvironment) SetFocused(v bool)    { e.mu.Lock(); e.focused = v; e.mu.Unlock() }
func (e *StateEnvironment) SetFullscreen(v bool) { e.mu.Lock(); e.fullscreen = v; e.mu.Unlock() }
func (e *StateEnvironment) SetScreenCount(n int) { e.mu.Lock(); e.screens = n; e.mu.Unlock() }
func (e *StateEnvironment) SetWindow(w WindowMetrics) {
	e.mu.Lock()
	e.window = w
	e.mu.Unlock()
}
