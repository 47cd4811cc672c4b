// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package gate decides, per render pass, whether protected video may be shown.
package gate

import "github.com/ManuGH/playguard/internal/protection/session"

// Decision is the outcome for one render pass.
type Decision struct {
	Render        bool
	BlockedReason string
}

// Decide allows rendering only for an Active session, or for the unprotected
// fallback, and never while a block reason is present.
func Decide(s session.Snapshot) Decision {
	if s.BlockedReason != "" || s.State == session.StateBlocked {
		return Decision{BlockedReason: s.BlockedReason}
	}
	switch {
	case s.State == session.StateActive:
		return Decision{Render: true}
	case s.State == session.StateIdle && s.Unprotected:
		return Decision{Render: true}
	default:
		return Decision{}
	}
}
