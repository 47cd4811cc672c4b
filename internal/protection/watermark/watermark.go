// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package watermark renders the rotating viewer-identity overlay.
package watermark

import (
	"fmt"
	"time"
)

// Corner is an overlay anchor on the video surface.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomRight Corner = "bottom-right"
	BottomLeft  Corner = "bottom-left"
)

// Corners is the rotation order.
var Corners = [...]Corner{TopLeft, TopRight, BottomRight, BottomLeft}

// Overlay is what the surface draws for one tick.
type Overlay struct {
	Text   string
	Corner Corner
	Tick   uint64
}

// Input is everything the overlay depends on.
type Input struct {
	Active   bool
	Identity string
	Tick     uint64
	Now      time.Time
}

// Render is a pure function of input. It renders nothing unless the session is active.
func Render(in Input) (Overlay, bool) {
	if !in.Active {
		return Overlay{}, false
	}
	return Overlay{
		Text:   fmt.Sprintf("%s | %s | #%d", in.Identity, in.Now.UTC().Format(time.RFC3339), in.Tick),
		Corner: Corners[in.Tick%uint64(len(Corners))],
		Tick:   in.Tick,
	}, true
}
