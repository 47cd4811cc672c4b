// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import "errors"

// State is the protected-session lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
	StateBlocked  State = "blocked"
	StateEnded    State = "ended"
)

// IsTerminal reports whether no further transition can leave the state.
func (s State) IsTerminal() bool { return s == StateEnded }

// EventKind drives a transition.
type EventKind string

const (
	EvStart       EventKind = "start"
	EvStarted     EventKind = "started"
	EvStartFailed EventKind = "start_failed"
	EvBlocked     EventKind = "blocked"
	EvEnd         EventKind = "end"
)

var ErrIllegalTransition = errors.New("session: illegal transition")

// ErrSuperseded reports a session ended by a later Start or End before its
// start call settled.
var ErrSuperseded = errors.New("session: superseded before start settled")

// transition is a single allowed edge in the lifecycle state machine.
type transition struct {
	From  State
	Event EventKind
	To    State
}

// Blocked only ever moves to Ended; there is no edge back to Active.
var transitionsTable = []transition{
	{From: StateIdle, Event: EvStart, To: StateStarting},

	{From: StateStarting, Event: EvStarted, To: StateActive},
	{From: StateStarting, Event: EvStartFailed, To: StateIdle},
	{From: StateStarting, Event: EvBlocked, To: StateBlocked},

	{From: StateActive, Event: EvBlocked, To: StateBlocked},
	{From: StateBlocked, Event: EvBlocked, To: StateBlocked},

	{From: StateIdle, Event: EvEnd, To: StateEnded},
	{From: StateStarting, Event: EvEnd, To: StateEnded},
	{From: StateActive, Event: EvEnd, To: StateEnded},
	{From: StateBlocked, Event: EvEnd, To: StateEnded},
}

// transitionFor returns the target state for from+ev, if the edge exists.
func transitionFor(from State, ev EventKind) (State, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr.To, true
		}
	}
	return "", false
}
