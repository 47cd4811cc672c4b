// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	ContentIDKey     = "protection.content_id"
	LessonIDKey      = "protection.lesson_id"
	SessionStateKey  = "protection.session_state"
	VerdictActionKey = "protection.verdict"
	EventTypeKey     = "protection.event_type"
	FallbackKey      = "protection.fallback"

	ErrorKey = "error"
)

// SessionAttributes creates span attributes describing a protected session.
func SessionAttributes(contentID, lessonID, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ContentIDKey, contentID),
		attribute.String(LessonIDKey, lessonID),
		attribute.String(SessionStateKey, state),
	}
}
