// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package watermark

import (
	"sync"
	"time"
)

// DefaultInterval is the rotation period.
const DefaultInterval = 7 * time.Second

// Rotator owns the tick counter. The counter only moves while running and
// never goes backwards.
type Rotator struct {
	interval time.Duration
	onTick   func(uint64)

	mu      sync.Mutex
	tick    uint64
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewRotator creates a stopped rotator. onTick, if set, runs after each increment.
func NewRotator(interval time.Duration, onTick func(uint64)) *Rotator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Rotator{interval: interval, onTick: onTick}
}

// Start begins rotating. No-op while already running.
func (r *Rotator) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
}

// Stop halts rotation; once it returns the counter no longer moves.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stop)
	done := r.done
	r.mu.Unlock()
	<-done
}

// Tick returns the current counter.
func (r *Rotator) Tick() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

// Running reports whether the rotation timer is active.
func (r *Rotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Rotator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			select {
			case <-stop:
				r.mu.Unlock()
				return
			default:
			}
			r.tick++
			tick := r.tick
			r.mu.Unlock()
			if r.onTick != nil {
				r.onTick(tick)
			}
		}
	}
}
