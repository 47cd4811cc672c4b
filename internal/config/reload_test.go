// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReloadConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestHolder_ReloadKeepsPreviousOnInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playguard.yaml")
	writeReloadConfig(t, path, "devserver:\n  max_viewers: 2\n")

	initial, err := NewLoader(path).Load()
	require.NoError(t, err)
	h := NewHolder(initial, path)

	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	writeReloadConfig(t, path, "devserver:\n  max_viewers: 4\n")
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, 4, h.Get().DevServer.MaxViewers)
	assert.Equal(t, 4, (<-ch).DevServer.MaxViewers)

	writeReloadConfig(t, path, "devserver:\n  max_viewers: 0\n")
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 4, h.Get().DevServer.MaxViewers)
	assert.Empty(t, ch)
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playguard.yaml")
	writeReloadConfig(t, path, "devserver:\n  block_events: [display_capture_detected]\n")

	initial, err := NewLoader(path).Load()
	require.NoError(t, err)
	h := NewHolder(initial, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	writeReloadConfig(t, path, "devserver:\n  block_events: [display_capture_detected, print_screen_pressed]\n")
	require.Eventually(t, func() bool {
		return len(h.Get().DevServer.BlockEvents) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestHolder_NoPathDisablesWatcher(t *testing.T) {
	h := NewHolder(Defaults(), "")
	require.NoError(t, h.StartWatcher(context.Background()))
	assert.Nil(t, h.watcher)
}
