// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bootstrap is the composition root shared by the commands.
package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playguard/internal/config"
	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/telemetry"
)

// LoadConfig loads configuration with precedence ENV > file > defaults and
// reconfigures the global logger from it.
func LoadConfig(configPath, service string) (config.AppConfig, error) {
	log.Configure(log.Config{Level: "info", Service: service})

	path := strings.TrimSpace(configPath)
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Logging.Service == "" || cfg.Logging.Service == config.Defaults().Logging.Service {
		cfg.Logging.Service = service
	}
	log.Reconfigure(log.Config{Level: cfg.Logging.Level, Service: cfg.Logging.Service})
	logger := log.WithComponent("bootstrap")

	if path != "" {
		logger.Info().
			Str(log.FieldEvent, "config.loaded").
			Str("source", "file").
			Str("path", path).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(log.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if raw, err := json.Marshal(cfg); err == nil {
		logger.Debug().
			Str(log.FieldEvent, "config.snapshot").
			Str("sha256", fmt.Sprintf("%x", sha256.Sum256(raw))).
			Msg("configuration snapshot fingerprint")
	}
	return cfg, nil
}

// StartTelemetry installs the tracer provider described by cfg, tagging
// spans with the process role.
func StartTelemetry(ctx context.Context, cfg config.AppConfig, role, version string) (*telemetry.Provider, error) {
	return telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Logging.Service,
		ServiceVersion: version,
		Role:           role,
		DeviceStore:    cfg.Device.Store,
		Environment:    cfg.Telemetry.Environment,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
}

func componentLogger(name string) zerolog.Logger { return log.WithComponent(name) }
