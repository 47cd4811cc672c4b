// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/playguard/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:    srv.URL + "/api/protection/",
		HTTPClient: srv.Client(),
		Tokens:     StaticToken("viewer-token"),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_StartSendsContentAndBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/protection"+PathStart, r.URL.Path)
		assert.Equal(t, "Bearer viewer-token", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "video-42", body["content_id"])
		writeJSON(w, http.StatusOK, map[string]string{"session_token": "tok-1"})
	})

	res, err := c.Start(context.Background(), "video-42")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.False(t, res.Verdict.IsBlock())
}

func TestClient_StartBlockedInBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"action": "block", "blocked_reason": "Too many devices"})
	})

	res, err := c.Start(context.Background(), "video-42")
	require.NoError(t, err)
	assert.True(t, res.Verdict.IsBlock())
	assert.Equal(t, "Too many devices", res.Verdict.BlockedReason)
}

func TestClient_StartBlockedKeepsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"session_token": "tok-9", "action": "block", "blocked_reason": "Multiple simultaneous viewers detected"})
	})

	res, err := c.Start(context.Background(), "video-42")
	require.NoError(t, err)
	assert.True(t, res.Verdict.IsBlock())
	assert.Equal(t, "tok-9", res.Token)
}

func TestClient_StartBlockedOnErrorPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"action": "block", "blocked_reason": "Account suspended"})
	})

	_, err := c.Start(context.Background(), "video-42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	v, ok := VerdictFromError(err)
	require.True(t, ok)
	assert.Equal(t, "Account suspended", v.BlockedReason)
}

func TestClient_HeartbeatVerdicts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req HeartbeatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.IsVisible {
			writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
		writeJSON(w, http.StatusOK, Verdict{Action: ActionBlock, BlockedReason: "hidden"})
	})

	v, err := c.Heartbeat(context.Background(), HeartbeatRequest{SessionToken: "t", IsVisible: true})
	require.NoError(t, err)
	assert.Equal(t, Allow, v, "empty body defaults to allow")

	v, err = c.Heartbeat(context.Background(), HeartbeatRequest{SessionToken: "t"})
	require.NoError(t, err)
	assert.True(t, v.IsBlock())
}

func TestClient_ErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusBadRequest, ErrRejected},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := c.ReportEvent(context.Background(), EventRequest{SessionToken: "t", EventType: EventWindowBlur, Severity: SeverityInfo})
			assert.ErrorIs(t, err, tc.want)
			_, hasVerdict := VerdictFromError(err)
			assert.False(t, hasVerdict)
		})
	}
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, HTTPClient: &http.Client{Timeout: time.Second}})
	_, err := c.Heartbeat(context.Background(), HeartbeatRequest{SessionToken: "t"})
	assert.True(t, IsUnavailable(err))
}

func TestClient_MissingTokenIsUnauthorized(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called.Store(true) }))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Tokens: StaticToken("")})
	_, err := c.Heartbeat(context.Background(), HeartbeatRequest{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called.Load(), "no request without credentials")
}

func TestClient_PlaybackURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok", req["session_token"])
		assert.Equal(t, "dev-1", req["device_id"])
		writeJSON(w, http.StatusOK, map[string]string{"playback_url": "https://cdn.test/v.m3u8?sig=x"})
	})

	u, err := c.PlaybackURL(context.Background(), "tok", "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/v.m3u8?sig=x", u)
}

func TestClient_EndSurvivesCanceledContext(t *testing.T) {
	got := make(chan string, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		got <- req["session_token"]
		w.WriteHeader(http.StatusNoContent)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.End(ctx, "tok-9"))
	assert.Equal(t, "tok-9", <-got)
}

func TestClient_BreakerOpensOnOutage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Breaker: NewBreaker(2, time.Minute)})
	for i := 0; i < 4; i++ {
		_, err := c.Heartbeat(context.Background(), HeartbeatRequest{})
		assert.True(t, IsUnavailable(err))
	}
	assert.Equal(t, int32(2), calls.Load())

	_, err := c.Heartbeat(context.Background(), HeartbeatRequest{})
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
}
