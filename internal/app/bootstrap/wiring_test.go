// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playguard/internal/app/bootstrap"
	"github.com/ManuGH/playguard/internal/config"
	"github.com/ManuGH/playguard/internal/devserver"
	"github.com/ManuGH/playguard/internal/protection/capture"
	"github.com/ManuGH/playguard/internal/protection/signals"
	"github.com/ManuGH/playguard/internal/protection/viewer"
)

func newStack(t *testing.T) (config.AppConfig, *httptest.Server) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Device.Store = "memory"
	cfg.Session.HeartbeatInterval = 20 * time.Millisecond
	cfg.Watermark.RotationInterval = 10 * time.Millisecond
	cfg.Watermark.Identity = "alice@example.com"
	cfg.Backend.Token = "alice"
	cfg.DevServer.PlaybackBase = "https://cdn.example/media"

	srv, reg, err := bootstrap.WireDevServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	cfg.Backend.BaseURL = ts.URL + devserver.MountPath
	return cfg, ts
}

func TestWiring_LessonPlaysScopedAndBlocksOnCapture(t *testing.T) {
	cfg, _ := newStack(t)

	env := signals.NewStateEnvironment("https://school.example/lesson/1")
	client, err := bootstrap.WireClient(cfg, bootstrap.Host{Env: env, Events: signals.NewDispatcher()})
	require.NoError(t, err)
	defer func() { require.NoError(t, client.Close(context.Background())) }()

	lesson := viewer.Lesson{ContentID: "course-1", LessonID: "l-1", SourceURL: "https://origin.example/1.m3u8", Protected: true}
	require.NoError(t, client.Viewer.Open(context.Background(), lesson))

	f := client.Viewer.Frame()
	require.NotNil(t, f.Video)
	assert.True(t, f.Video.Scoped)
	assert.True(t, strings.HasPrefix(f.Video.URL, "https://cdn.example/media/course-1?"))
	require.NotNil(t, f.Watermark)

	require.True(t, capture.Installed())
	_, err = capture.RequestDisplayMedia(context.Background(), capture.Options{Video: true})
	assert.ErrorIs(t, err, capture.ErrUnsupported)

	require.Eventually(t, func() bool { return client.Viewer.Frame().Blocked() }, 2*time.Second, 5*time.Millisecond)
	f = client.Viewer.Frame()
	assert.Nil(t, f.Video)
	assert.Nil(t, f.Watermark)
	assert.Equal(t, "Screen capture detected", f.BlockedMessage)
}

func TestWiring_SecondViewerOnSameAccountIsBlocked(t *testing.T) {
	cfg, _ := newStack(t)
	lesson := viewer.Lesson{ContentID: "course-1", SourceURL: "https://origin.example/1.m3u8", Protected: true}

	first, err := bootstrap.WireClient(cfg, bootstrap.Host{Env: signals.NewStateEnvironment(""), Events: signals.NewDispatcher()})
	require.NoError(t, err)
	defer first.Close(context.Background())
	require.NoError(t, first.Viewer.Open(context.Background(), lesson))

	second, err := bootstrap.WireClient(cfg, bootstrap.Host{Env: signals.NewStateEnvironment(""), Events: signals.NewDispatcher()})
	require.NoError(t, err)
	defer second.Close(context.Background())
	require.NoError(t, second.Viewer.Open(context.Background(), lesson))

	assert.Equal(t, "Multiple simultaneous viewers detected", second.Viewer.Frame().BlockedMessage)
	assert.False(t, first.Viewer.Frame().Blocked())
}

func TestWiring_BackendDownFallsBackToSource(t *testing.T) {
	cfg := config.Defaults()
	cfg.Device.Store = "memory"
	cfg.Backend.BaseURL = "http://127.0.0.1:1/api/protection"
	cfg.Backend.RequestTimeout = 200 * time.Millisecond

	client, err := bootstrap.WireClient(cfg, bootstrap.Host{Env: signals.NewStateEnvironment(""), Events: signals.NewDispatcher()})
	require.NoError(t, err)
	defer client.Close(context.Background())

	lesson := viewer.Lesson{ContentID: "course-1", SourceURL: "https://origin.example/1.m3u8", Protected: true}
	require.NoError(t, client.Viewer.Open(context.Background(), lesson))

	f := client.Viewer.Frame()
	require.NotNil(t, f.Video)
	assert.Equal(t, lesson.SourceURL, f.Video.URL)
	assert.False(t, f.Blocked())
}

func TestWiring_DevServerHealth(t *testing.T) {
	_, ts := newStack(t)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(devserver.HeaderRequestID))
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  heartbeat_interval: 2s\n"), 0o600))
	t.Setenv("PLAYGUARD_DEV_MAX_VIEWERS", "3")

	cfg, err := bootstrap.LoadConfig(path, "playguard-test")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Session.HeartbeatInterval)
	assert.Equal(t, 3, cfg.DevServer.MaxViewers)
	assert.Equal(t, "playguard-test", cfg.Logging.Service)
}
