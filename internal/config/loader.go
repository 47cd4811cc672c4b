// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty path skips the file stage.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string, dst *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}


func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	track := func(key string) string {
		l.ConsumedEnvKeys[key] = struct{}{}
		return key
	}

	cfg.Backend.BaseURL = l.envString("PLAYGUARD_BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.Token = l.envString("PLAYGUARD_BACKEND_TOKEN", cfg.Backend.Token)
	cfg.Backend.RequestTimeout = ParseDuration(track("PLAYGUARD_REQUEST_TIMEOUT"), cfg.Backend.RequestTimeout)
	cfg.Backend.EndTimeout = ParseDuration(track("PLAYGUARD_END_TIMEOUT"), cfg.Backend.EndTimeout)

	cfg.Session.HeartbeatInterval = ParseDuration(track("PLAYGUARD_HEARTBEAT_INTERVAL"), cfg.Session.HeartbeatInterval)
	cfg.Signals.DevtoolsThresholdPx = ParseInt(track("PLAYGUARD_DEVTOOLS_THRESHOLD_PX"), cfg.Signals.DevtoolsThresholdPx)

	cfg.Watermark.RotationInterval = ParseDuration(track("PLAYGUARD_WATERMARK_INTERVAL"), cfg.Watermark.RotationInterval)
	cfg.Watermark.Identity = l.envString("PLAYGUARD_WATERMARK_IDENTITY", cfg.Watermark.Identity)

	cfg.Device.Store = l.envString("PLAYGUARD_DEVICE_STORE", cfg.Device.Store)
	cfg.Device.Path = l.envString("PLAYGUARD_DEVICE_PATH", cfg.Device.Path)

	cfg.Breaker.Threshold = ParseInt(track("PLAYGUARD_BREAKER_THRESHOLD"), cfg.Breaker.Threshold)
	cfg.Breaker.ResetTimeout = ParseDuration(track("PLAYGUARD_BREAKER_RESET"), cfg.Breaker.ResetTimeout)

	cfg.Logging.Level = l.envString("PLAYGUARD_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Service = l.envString("PLAYGUARD_LOG_SERVICE", cfg.Logging.Service)

	cfg.Telemetry.Enabled = ParseBool(track("PLAYGUARD_TELEMETRY_ENABLED"), cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("PLAYGUARD_TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("PLAYGUARD_TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(track("PLAYGUARD_TELEMETRY_SAMPLING"), cfg.Telemetry.SamplingRate)

	cfg.DevServer.Listen = l.envString("PLAYGUARD_DEV_LISTEN", cfg.DevServer.Listen)
	cfg.DevServer.Registry = l.envString("PLAYGUARD_DEV_REGISTRY", cfg.DevServer.Registry)
	cfg.DevServer.RedisAddr = l.envString("PLAYGUARD_DEV_REDIS_ADDR", cfg.DevServer.RedisAddr)
	cfg.DevServer.SessionTTL = ParseDuration(track("PLAYGUARD_DEV_SESSION_TTL"), cfg.DevServer.SessionTTL)
	cfg.DevServer.MaxViewers = ParseInt(track("PLAYGUARD_DEV_MAX_VIEWERS"), cfg.DevServer.MaxViewers)
	cfg.DevServer.BlockEvents = ParseStringList(track("PLAYGUARD_DEV_BLOCK_EVENTS"), cfg.DevServer.BlockEvents)
	cfg.DevServer.RateLimitPerIP = ParseInt(track("PLAYGUARD_DEV_RATE_LIMIT"), cfg.DevServer.RateLimitPerIP)
	cfg.DevServer.PlaybackTTL = ParseDuration(track("PLAYGUARD_DEV_PLAYBACK_TTL"), cfg.DevServer.PlaybackTTL)
	cfg.DevServer.PlaybackBase = l.envString("PLAYGUARD_DEV_PLAYBACK_BASE", cfg.DevServer.PlaybackBase)
}
