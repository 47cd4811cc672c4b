// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_session_transitions_total",
		Help: "Protected session state transitions by source and target state",
	}, []string{"from", "to"})

	heartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_heartbeats_total",
		Help: "Heartbeats sent by outcome (allow, block, error, unauthorized)",
	}, []string{"outcome"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_events_total",
		Help: "Discrete protection events reported by type, severity and outcome",
	}, []string{"event_type", "severity", "outcome"})

	blocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_blocks_total",
		Help: "Block verdicts applied to sessions by the call that carried them",
	}, []string{"source"})

	playbackResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_playback_resolutions_total",
		Help: "Playback URL resolutions by result (scoped, fallback)",
	}, []string{"result"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playguard_active_sessions",
		Help: "Sessions currently in the Active state",
	})

	endNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_end_notifications_total",
		Help: "Session end notifications by delivery result",
	}, []string{"result"})
)

// RecordSessionTransition counts a lifecycle transition and keeps the active gauge in step.
func RecordSessionTransition(from, to string) {
	sessionTransitions.WithLabelValues(from, to).Inc()
	if to == "active" && from != "active" {
		activeSessions.Inc()
	}
	if from == "active" && to != "active" {
		activeSessions.Dec()
	}
}

// RecordHeartbeat counts a heartbeat by outcome.
func RecordHeartbeat(outcome string) {
	heartbeatsTotal.WithLabelValues(outcome).Inc()
}

// RecordEvent counts a discrete protection event.
func RecordEvent(eventType, severity, outcome string) {
	eventsTotal.WithLabelValues(eventType, severity, outcome).Inc()
}

// RecordBlock counts an applied block verdict.
func RecordBlock(source string) {
	blocksTotal.WithLabelValues(source).Inc()
}

// RecordPlaybackResolution counts a playback URL resolution.
func RecordPlaybackResolution(result string) {
	playbackResolutions.WithLabelValues(result).Inc()
}

// RecordEndNotification counts an end notification attempt.
func RecordEndNotification(result string) {
	endNotifications.WithLabelValues(result).Inc()
}
