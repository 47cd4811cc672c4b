// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bootstrap

import (
	"context"
	"fmt"

	"github.com/ManuGH/playguard/internal/config"
	"github.com/ManuGH/playguard/internal/devserver"
	"github.com/ManuGH/playguard/internal/version"
)

// WireDevServer builds the development backend and its session registry.
// The caller owns the returned registry.
func WireDevServer(ctx context.Context, cfg config.AppConfig) (*devserver.Server, devserver.Registry, error) {
	dc := cfg.DevServer

	var registry devserver.Registry
	switch dc.Registry {
	case "redis":
		reg, err := devserver.NewRedisRegistry(ctx, devserver.RedisConfig{Addr: dc.RedisAddr}, dc.SessionTTL, componentLogger("registry"))
		if err != nil {
			return nil, nil, err
		}
		registry = reg
	case "", "memory":
		registry = devserver.NewMemoryRegistry(dc.SessionTTL)
	default:
		return nil, nil, fmt.Errorf("unknown session registry %q", dc.Registry)
	}

	srv := devserver.New(devserver.Config{
		Rules:          devserver.NewRules(dc.BlockEvents, dc.MaxViewers),
		RateLimitPerIP: dc.RateLimitPerIP,
		PlaybackBase:   dc.PlaybackBase,
		PlaybackTTL:    dc.PlaybackTTL,
		Service:        cfg.Logging.Service,
		Version:        version.Version,
	}, registry)
	return srv, registry, nil
}
