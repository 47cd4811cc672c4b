// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldContentID     = "content_id"
	FieldLessonID      = "lesson_id"
	FieldDeviceID      = "device_id"
	FieldAccount       = "account"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "op"

	// Protection fields
	FieldEventType     = "event_type"
	FieldSeverity      = "severity"
	FieldAction        = "action"
	FieldBlockedReason = "blocked_reason"
	FieldTick          = "tick"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldBaseURL = "base_url"
	FieldStatus  = "status"
	FieldListen  = "listen"
)
