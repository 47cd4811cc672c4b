// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package watermark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRender_InactiveRendersNothing(t *testing.T) {
	_, ok := Render(Input{Active: false, Identity: "student@example.test", Tick: 3, Now: time.Now()})
	assert.False(t, ok)
}

func TestRender_CyclesCornersAndEmbedsTick(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []Corner{TopLeft, TopRight, BottomRight, BottomLeft, TopLeft}
	for tick, corner := range want {
		o, ok := Render(Input{Active: true, Identity: "acct-17", Tick: uint64(tick), Now: now})
		require.True(t, ok)
		assert.Equal(t, corner, o.Corner)
		assert.Equal(t, uint64(tick), o.Tick)
	}

	o, _ := Render(Input{Active: true, Identity: "acct-17", Tick: 42, Now: now})
	assert.Equal(t, "acct-17 | 2026-03-01T12:00:00Z | #42", o.Text)
}

func TestRotator_CountsOnlyWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ticks := make(chan uint64, 16)
	r := NewRotator(10*time.Millisecond, func(n uint64) { ticks <- n })
	assert.Equal(t, uint64(0), r.Tick())

	r.Start()
	r.Start()
	assert.Equal(t, uint64(1), <-ticks)
	assert.Equal(t, uint64(2), <-ticks, "increments by exactly one per interval")

	r.Stop()
	stopped := r.Tick()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, r.Tick(), "counter frozen once stopped")
	assert.False(t, r.Running())

	r.Stop()

	r.Start()
	require.Eventually(t, func() bool { return r.Tick() > stopped }, time.Second, 5*time.Millisecond)
	r.Stop()
}
