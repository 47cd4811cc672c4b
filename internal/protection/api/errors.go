// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnauthorized = errors.New("protection: missing or expired credentials")
	ErrUnavailable  = errors.New("protection: backend unreachable or failing")
	ErrRejected     = errors.New("protection: request rejected")
	ErrBadResponse  = errors.New("protection: invalid response")
)

// Error wraps a sentinel with the operation, HTTP status and any verdict the
// backend delivered on the error path.
type Error struct {
	Sentinel error
	Op       string
	Status   int
	Verdict  *Verdict
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("protection %s: %v", e.Op, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Verdict != nil && e.Verdict.IsBlock() {
		msg = fmt.Sprintf("%s: blocked: %s", msg, e.Verdict.BlockedReason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// VerdictFromError returns a block verdict carried by err, if any.
func VerdictFromError(err error) (Verdict, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Verdict != nil && apiErr.Verdict.IsBlock() {
		return *apiErr.Verdict, true
	}
	return Verdict{}, false
}

// IsUnavailable reports transport-class failures (network, timeout, 5xx, open breaker).
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
