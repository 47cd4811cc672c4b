// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"time"

	"github.com/ManuGH/playguard/internal/resilience"
)

// NewBreaker returns a circuit breaker that only counts backend outages.
// Verdicts, rejections and auth failures pass through without tripping it.
func NewBreaker(threshold int, resetTimeout time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker("protection-api", threshold, resetTimeout,
		resilience.WithFailurePredicate(IsUnavailable))
}
