// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	Backend   BackendConfig   `yaml:"backend"`
	Session   SessionConfig   `yaml:"session"`
	Signals   SignalsConfig   `yaml:"signals"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Device    DeviceConfig    `yaml:"device"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	DevServer DevServerConfig `yaml:"devserver"`
}

// BackendConfig points the protection client at its backend.
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// EndTimeout bounds the detached end notification sent on teardown.
	EndTimeout time.Duration `yaml:"end_timeout"`
	Token      string        `yaml:"token"`
}

// SessionConfig controls the session lifecycle.
type SessionConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// SignalsConfig tunes environment heuristics.
type SignalsConfig struct {
	DevtoolsThresholdPx int `yaml:"devtools_threshold_px"`
}

// WatermarkConfig controls the identity overlay.
type WatermarkConfig struct {
	RotationInterval time.Duration `yaml:"rotation_interval"`
	Identity         string        `yaml:"identity"`
}

// DeviceConfig selects where the device identifier is persisted.
type DeviceConfig struct {
	Store string `yaml:"store"` // memory, file, badger, sqlite
	Path  string `yaml:"path"`
}

// BreakerConfig tunes the circuit breaker in front of the backend.
type BreakerConfig struct {
	Threshold    int           `yaml:"threshold"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Environment  string  `yaml:"environment"`
}

// DevServerConfig configures the local development backend.
type DevServerConfig struct {
	Listen         string        `yaml:"listen"`
	Registry       string        `yaml:"registry"` // memory, redis
	RedisAddr      string        `yaml:"redis_addr"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	MaxViewers     int           `yaml:"max_viewers"`
	BlockEvents    []string      `yaml:"block_events"`
	RateLimitPerIP int           `yaml:"rate_limit_per_ip"`
	PlaybackTTL    time.Duration `yaml:"playback_ttl"`
	// PlaybackBase is the CDN origin that device-scoped URLs point at.
	PlaybackBase string `yaml:"playback_base"`
}
