// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/playguard/internal/config"
	"github.com/ManuGH/playguard/internal/deviceid"
	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/platform/httpx"
	"github.com/ManuGH/playguard/internal/protection/api"
	"github.com/ManuGH/playguard/internal/protection/playback"
	"github.com/ManuGH/playguard/internal/protection/session"
	"github.com/ManuGH/playguard/internal/protection/signals"
	"github.com/ManuGH/playguard/internal/protection/viewer"
)

// Host is what an embedding player shell provides.
type Host struct {
	Env    signals.Environment
	Events signals.EventSource
	// Tokens overrides the static backend token from config.
	Tokens api.TokenSource
	// Devices overrides the configured device identity store.
	Devices *deviceid.Store
	// Renderer receives every frame the viewer produces.
	Renderer func(viewer.Frame)
}

// Client is a wired protection client for one viewer.
type Client struct {
	API      *api.Client
	Devices  *deviceid.Store
	Sessions *session.Manager
	Viewer   *viewer.Viewer

	ownsDevices bool
}

// WireClient builds the client graph from configuration.
func WireClient(cfg config.AppConfig, host Host) (*Client, error) {
	if host.Env == nil || host.Events == nil {
		return nil, errors.New("bootstrap: host environment and event source are required")
	}

	tokens := host.Tokens
	if tokens == nil {
		tokens = api.StaticToken(cfg.Backend.Token)
	}
	client := api.New(api.Options{
		BaseURL:    cfg.Backend.BaseURL,
		HTTPClient: httpx.NewClient(cfg.Backend.RequestTimeout),
		Tokens:     tokens,
		Breaker:    api.NewBreaker(cfg.Breaker.Threshold, cfg.Breaker.ResetTimeout),
		EndTimeout: cfg.Backend.EndTimeout,
	})

	devices, owns := host.Devices, false
	if devices == nil {
		var err error
		devices, err = deviceid.Open(cfg.Device.Store, cfg.Device.Path)
		if err != nil {
			return nil, fmt.Errorf("open device store: %w", err)
		}
		owns = true
	}

	sessions := session.NewManager(client, playback.NewResolver(client, devices),
		session.WithHeartbeatInterval(cfg.Session.HeartbeatInterval),
		session.WithCollectors(session.SignalCollectors(host.Env, host.Events,
			signals.WithDevtoolsThreshold(cfg.Signals.DevtoolsThresholdPx))),
	)

	opts := []viewer.Option{
		viewer.WithIdentity(cfg.Watermark.Identity),
		viewer.WithRotationInterval(cfg.Watermark.RotationInterval),
	}
	if host.Renderer != nil {
		opts = append(opts, viewer.WithRenderer(host.Renderer))
	}

	logger := log.WithComponent("bootstrap")
	logger.Debug().
		Str(log.FieldBaseURL, cfg.Backend.BaseURL).
		Str("device_store", cfg.Device.Store).
		Msg("protection client wired")

	return &Client{
		API:         client,
		Devices:     devices,
		Sessions:    sessions,
		Viewer:      viewer.New(sessions, opts...),
		ownsDevices: owns,
	}, nil
}

// Close ends the open lesson, waits for pending notifications and releases
// the device store if this client opened it.
func (c *Client) Close(ctx context.Context) error {
	c.Viewer.Close(ctx)
	c.Sessions.Close(ctx)
	if c.ownsDevices {
		return c.Devices.Close()
	}
	return nil
}
