// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playback resolves the URL the video surface plays.
package playback

import (
	"context"

	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/metrics"
	platformnet "github.com/ManuGH/playguard/internal/platform/net"
	"github.com/rs/zerolog"
)

// URLSource exchanges a session token and device id for a scoped URL.
type URLSource interface {
	PlaybackURL(ctx context.Context, token, deviceID string) (string, error)
}

// DeviceIDs supplies the persisted device identifier.
type DeviceIDs interface {
	Get(ctx context.Context) (string, error)
}

// Resolution is the URL handed to the video surface.
type Resolution struct {
	URL string
	// Scoped is false when URL is the unscoped source fallback.
	Scoped bool
}

// Resolver degrades to the source URL on any failure so the viewer always
// has something playable.
type Resolver struct {
	source  URLSource
	devices DeviceIDs
	logger  zerolog.Logger
}

func NewResolver(source URLSource, devices DeviceIDs) *Resolver {
	return &Resolver{
		source:  source,
		devices: devices,
		logger:  log.WithComponent("playback"),
	}
}

// Resolve returns a device-scoped URL, or sourceURL when resolution fails.
func (r *Resolver) Resolve(ctx context.Context, token, sourceURL string) Resolution {
	logger := log.WithContext(ctx, r.logger)

	if r.source == nil || r.devices == nil || token == "" {
		metrics.RecordPlaybackResolution("fallback")
		return Fallback(sourceURL)
	}

	deviceID, err := r.devices.Get(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("device id unavailable, using source url")
		metrics.RecordPlaybackResolution("fallback")
		return Fallback(sourceURL)
	}

	u, err := r.source.PlaybackURL(ctx, token, deviceID)
	if err != nil || u == "" {
		logger.Warn().Err(err).Str(log.FieldDeviceID, deviceID).Msg("playback url resolution failed, using source url")
		metrics.RecordPlaybackResolution("fallback")
		return Fallback(sourceURL)
	}

	if _, ok := platformnet.ParseDirectHTTPURL(u); !ok {
		logger.Warn().Str("url", platformnet.SanitizeURL(u)).Msg("backend returned a non-http playback url, using source url")
		metrics.RecordPlaybackResolution("fallback")
		return Fallback(sourceURL)
	}
	logger.Debug().Str("url", platformnet.SanitizeURL(u)).Msg("playback url resolved")
	metrics.RecordPlaybackResolution("scoped")
	return Resolution{URL: u, Scoped: true}
}

// Fallback is the unscoped resolution for sourceURL.
func Fallback(sourceURL string) Resolution {
	return Resolution{URL: sourceURL}
}
