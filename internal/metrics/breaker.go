// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker metrics describe how often the protection backend was skipped.
// Every skipped call is a fail-open decision on the client.
var (
	backendBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playguard_backend_breaker_state",
		Help: "Protection backend breaker position per upstream; the current position reads 1",
	}, []string{"upstream", "position"})

	backendBreakerOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_backend_breaker_opened_total",
		Help: "Times the protection backend breaker stopped forwarding calls, by cause",
	}, []string{"upstream", "cause"})

	backendCallsShortCircuited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playguard_backend_calls_short_circuited_total",
		Help: "Protection backend calls answered locally with a fail-open verdict while the breaker was open",
	}, []string{"upstream"})
)

var breakerPositions = [...]string{"closed", "half-open", "open"}

// SetBreakerState marks position as the current breaker position of upstream.
func SetBreakerState(upstream, position string) {
	for _, p := range breakerPositions {
		v := 0.0
		if p == position {
			v = 1
		}
		backendBreakerState.WithLabelValues(upstream, p).Set(v)
	}
}

// RecordBreakerOpened counts a breaker opening. cause is "threshold" or "trial_failed".
func RecordBreakerOpened(upstream, cause string) {
	backendBreakerOpened.WithLabelValues(upstream, cause).Inc()
}

// RecordShortCircuit counts a call the breaker refused to forward.
func RecordShortCircuit(upstream string) {
	backendCallsShortCircuited.WithLabelValues(upstream).Inc()
}
