// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"

	platformnet "github.com/ManuGH/playguard/internal/platform/net"
)

// Validate checks a resolved configuration. All problems are reported together.
func Validate(cfg AppConfig) error {
	var errs []error

	if _, ok := platformnet.ParseDirectHTTPURL(cfg.Backend.BaseURL); !ok {
		errs = append(errs, fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", cfg.Backend.BaseURL))
	}
	if cfg.Backend.RequestTimeout <= 0 {
		errs = append(errs, errors.New("backend.request_timeout must be positive"))
	}
	if cfg.Backend.EndTimeout <= 0 {
		errs = append(errs, errors.New("backend.end_timeout must be positive"))
	}
	if cfg.Session.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("session.heartbeat_interval must be positive"))
	}
	if cfg.Signals.DevtoolsThresholdPx <= 0 {
		errs = append(errs, errors.New("signals.devtools_threshold_px must be positive"))
	}
	if cfg.Watermark.RotationInterval <= 0 {
		errs = append(errs, errors.New("watermark.rotation_interval must be positive"))
	}

	switch cfg.Device.Store {
	case "memory":
	case "file", "badger", "sqlite":
		if cfg.Device.Path == "" {
			errs = append(errs, fmt.Errorf("device.path is required for store %q", cfg.Device.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("device.store must be one of memory, file, badger, sqlite, got %q", cfg.Device.Store))
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			errs = append(errs, fmt.Errorf("telemetry.exporter must be grpc or http, got %q", cfg.Telemetry.Exporter))
		}
	}

	switch cfg.DevServer.Registry {
	case "memory":
	case "redis":
		if cfg.DevServer.RedisAddr == "" {
			errs = append(errs, errors.New("devserver.redis_addr is required for the redis registry"))
		}
	default:
		errs = append(errs, fmt.Errorf("devserver.registry must be memory or redis, got %q", cfg.DevServer.Registry))
	}
	if cfg.DevServer.SessionTTL <= 0 {
		errs = append(errs, errors.New("devserver.session_ttl must be positive"))
	}
	if _, ok := platformnet.ParseDirectHTTPURL(cfg.DevServer.PlaybackBase); !ok {
		errs = append(errs, fmt.Errorf("devserver.playback_base must be an absolute http(s) URL, got %q", cfg.DevServer.PlaybackBase))
	}
	if cfg.DevServer.MaxViewers < 1 {
		errs = append(errs, errors.New("devserver.max_viewers must be at least 1"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
