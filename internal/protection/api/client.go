// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/platform/httpx"
	"github.com/ManuGH/playguard/internal/resilience"
	"github.com/rs/zerolog"
)

const (
	PathStart       = "/sessions/start"
	PathHeartbeat   = "/sessions/heartbeat"
	PathEvent       = "/sessions/event"
	PathPlaybackURL = "/sessions/playback-url"
	PathEnd         = "/sessions/end"

	maxErrorBody       = 4 << 10
	defaultEndTimeout  = 3 * time.Second
	defaultHTTPTimeout = 10 * time.Second
)

// TokenSource supplies the viewer's bearer credentials.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Breaker    *resilience.CircuitBreaker
	// EndTimeout bounds the end notification, which runs detached from the
	// caller's context so teardown cannot cancel it mid-flight.
	EndTimeout time.Duration
}

// Client talks to the protection backend.
type Client struct {
	base       string
	http       *http.Client
	tokens     TokenSource
	breaker    *resilience.CircuitBreaker
	endTimeout time.Duration
	logger     zerolog.Logger
}

// New creates a Client. A nil HTTPClient gets an instrumented default.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpx.NewClient(defaultHTTPTimeout)
	}
	endTimeout := opts.EndTimeout
	if endTimeout <= 0 {
		endTimeout = defaultEndTimeout
	}
	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		http:       httpClient,
		tokens:     opts.Tokens,
		breaker:    opts.Breaker,
		endTimeout: endTimeout,
		logger:     log.WithComponent("protection-api"),
	}
}

// Start opens a protected session for contentID.
func (c *Client) Start(ctx context.Context, contentID string) (StartResult, error) {
	var resp StartResponse
	if err := c.post(ctx, "start", PathStart, StartRequest{ContentID: contentID}, &resp); err != nil {
		return StartResult{}, err
	}
	if resp.Action == ActionBlock {
		// The token of a blocked session is still owed an end notification.
		return StartResult{Token: resp.SessionToken, Verdict: Verdict{Action: ActionBlock, BlockedReason: resp.BlockedReason}}, nil
	}
	if resp.SessionToken == "" {
		return StartResult{}, &Error{Sentinel: ErrBadResponse, Op: "start", Err: errors.New("empty session_token")}
	}
	return StartResult{Token: resp.SessionToken, Verdict: Allow}, nil
}

// Heartbeat sends one environment sample and returns the server verdict.
func (c *Client) Heartbeat(ctx context.Context, req HeartbeatRequest) (Verdict, error) {
	var v Verdict
	if err := c.post(ctx, "heartbeat", PathHeartbeat, req, &v); err != nil {
		return Verdict{}, err
	}
	return normalize(v), nil
}

// ReportEvent sends one discrete event and returns the server verdict.
func (c *Client) ReportEvent(ctx context.Context, req EventRequest) (Verdict, error) {
	var v Verdict
	if err := c.post(ctx, "event", PathEvent, req, &v); err != nil {
		return Verdict{}, err
	}
	return normalize(v), nil
}

// PlaybackURL exchanges a session token and device id for a device-scoped URL.
func (c *Client) PlaybackURL(ctx context.Context, token, deviceID string) (string, error) {
	var resp PlaybackResponse
	if err := c.post(ctx, "playback-url", PathPlaybackURL, PlaybackRequest{SessionToken: token, DeviceID: deviceID}, &resp); err != nil {
		return "", err
	}
	if resp.PlaybackURL == "" {
		return "", &Error{Sentinel: ErrBadResponse, Op: "playback-url", Err: errors.New("empty playback_url")}
	}
	return resp.PlaybackURL, nil
}

// End notifies the backend that the session is over. The request is detached
// from ctx cancellation and bounded by the end timeout; the body is ignored.
func (c *Client) End(ctx context.Context, token string) error {
	endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.endTimeout)
	defer cancel()
	return c.post(endCtx, "end", PathEnd, EndRequest{SessionToken: token}, nil)
}

func normalize(v Verdict) Verdict {
	if v.Action == "" {
		return Allow
	}
	return v
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	call := func() error { return c.do(ctx, op, path, body, out) }
	if c.breaker == nil {
		return call()
	}
	err := c.breaker.Execute(call)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &Error{Sentinel: ErrUnavailable, Op: op, Err: err}
	}
	return err
}

func (c *Client) do(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("protection %s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("protection %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return &Error{Sentinel: ErrUnauthorized, Op: op, Err: err}
		}
		if token == "" {
			return &Error{Sentinel: ErrUnauthorized, Op: op, Err: errors.New("no bearer token")}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &Error{Sentinel: ErrUnavailable, Op: op, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &Error{Sentinel: ErrBadResponse, Op: op, Status: res.StatusCode, Err: err}
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	apiErr := &Error{Op: op, Status: res.StatusCode}
	switch {
	case res.StatusCode == http.StatusUnauthorized:
		apiErr.Sentinel = ErrUnauthorized
	case res.StatusCode >= 500:
		apiErr.Sentinel = ErrUnavailable
	default:
		apiErr.Sentinel = ErrRejected
	}

	var v Verdict
	if len(raw) > 0 && json.Unmarshal(raw, &v) == nil && v.IsBlock() {
		apiErr.Verdict = &v
	}

	c.logger.Debug().
		Str(log.FieldOperation, op).
		Int(log.FieldStatus, res.StatusCode).
		Bool("verdict", apiErr.Verdict != nil).
		Msg("protection call failed")
	return apiErr
}
