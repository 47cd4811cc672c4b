// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the HTTP client for the content-protection backend and
// owns the wire vocabulary shared by the client and the dev backend.
package api

import "time"

// Action is the server's decision carried by every verdict.
type Action string

const (
	ActionAllow Action = "allow"
	ActionBlock Action = "block"
)

// Verdict is embedded in start, heartbeat and event responses.
type Verdict struct {
	Action        Action `json:"action"`
	BlockedReason string `json:"blocked_reason,omitempty"`
}

// IsBlock reports whether the verdict blocks the session.
func (v Verdict) IsBlock() bool { return v.Action == ActionBlock }

// Allow is the verdict used when a response carries no action.
var Allow = Verdict{Action: ActionAllow}

// EventType is the fixed vocabulary of discrete protection events.
type EventType string

const (
	EventTabHidden              EventType = "tab_hidden"
	EventWindowBlur             EventType = "window_blur"
	EventFullscreenExited       EventType = "fullscreen_exited"
	EventPrintScreenPressed     EventType = "print_screen_pressed"
	EventDevtoolsOpened         EventType = "devtools_opened"
	EventDisplayCaptureDetected EventType = "display_capture_detected"
)

// Severity grades an event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Metadata is free-form correlation context (content id, lesson id, url).
type Metadata map[string]string

// Metadata keys.
const (
	MetaContentID = "content_id"
	MetaLessonID  = "lesson_id"
	MetaURL       = "url"
)

// Wire bodies shared with the development backend.

type StartRequest struct {
	ContentID string `json:"content_id"`
}

type StartResponse struct {
	SessionToken  string `json:"session_token"`
	Action        Action `json:"action,omitempty"`
	BlockedReason string `json:"blocked_reason,omitempty"`
}

// StartResult is a successful start call. Verdict is Allow unless the
// backend blocked the session in the start response itself.
type StartResult struct {
	Token   string
	Verdict Verdict
}

// HeartbeatRequest is one environment sample sent on a heartbeat tick.
type HeartbeatRequest struct {
	SessionToken            string   `json:"session_token"`
	IsVisible               bool     `json:"is_visible"`
	IsFocused               bool     `json:"is_focused"`
	IsFullscreen            bool     `json:"is_fullscreen"`
	DevtoolsOpen            bool     `json:"devtools_open"`
	RecorderSuspected       bool     `json:"recorder_suspected"`
	DisplayCaptureDetected  bool     `json:"display_capture_detected"`
	MultipleScreensDetected bool     `json:"multiple_screens_detected"`
	Metadata                Metadata `json:"metadata,omitempty"`
}

// EventRequest reports one discrete protection event.
type EventRequest struct {
	SessionToken string    `json:"session_token"`
	EventType    EventType `json:"event_type"`
	Severity     Severity  `json:"severity"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type PlaybackRequest struct {
	SessionToken string `json:"session_token"`
	DeviceID     string `json:"device_id"`
}

type PlaybackResponse struct {
	PlaybackURL string `json:"playback_url"`
}

type EndRequest struct {
	SessionToken string `json:"session_token"`
}
