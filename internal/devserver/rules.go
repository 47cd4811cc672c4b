// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package devserver

import (
	"fmt"

	"github.com/ManuGH/playguard/internal/protection/api"
)

const ReasonMultipleViewers = "Multiple simultaneous viewers detected"

var eventReasons = map[api.EventType]string{
	api.EventDisplayCaptureDetected: "Screen capture detected",
	api.EventPrintScreenPressed:     "Screenshot attempt detected",
	api.EventDevtoolsOpened:         "Developer tools detected",
	api.EventTabHidden:              "Playback left the foreground",
	api.EventWindowBlur:             "Playback window lost focus",
	api.EventFullscreenExited:       "Fullscreen playback is required",
}

// Rules is the fixed enforcement policy of the development backend.
type Rules struct {
	BlockEvents map[api.EventType]bool
	MaxViewers  int
}

// NewRules builds rules from configured event names. Unknown names are ignored.
func NewRules(blockEvents []string, maxViewers int) Rules {
	r := Rules{BlockEvents: make(map[api.EventType]bool, len(blockEvents)), MaxViewers: maxViewers}
	for _, name := range blockEvents {
		t := api.EventType(name)
		if _, known := eventReasons[t]; known {
			r.BlockEvents[t] = true
		}
	}
	if r.MaxViewers < 1 {
		r.MaxViewers = 1
	}
	return r
}

// Event returns the verdict for one discrete event.
func (r Rules) Event(t api.EventType) api.Verdict {
	if !r.BlockEvents[t] {
		return api.Allow
	}
	reason, ok := eventReasons[t]
	if !ok {
		reason = fmt.Sprintf("Protection event: %s", t)
	}
	return api.Verdict{Action: api.ActionBlock, BlockedReason: reason}
}

// Heartbeat maps heartbeat flags onto the event rules.
func (r Rules) Heartbeat(req api.HeartbeatRequest) api.Verdict {
	if req.DisplayCaptureDetected {
		if v := r.Event(api.EventDisplayCaptureDetected); v.IsBlock() {
			return v
		}
	}
	if req.DevtoolsOpen {
		if v := r.Event(api.EventDevtoolsOpened); v.IsBlock() {
			return v
		}
	}
	return api.Allow
}

// Viewers blocks when live exceeds the per-account limit.
func (r Rules) Viewers(live int) api.Verdict {
	if live > r.MaxViewers {
		return api.Verdict{Action: api.ActionBlock, BlockedReason: ReasonMultipleViewers}
	}
	return api.Allow
}
