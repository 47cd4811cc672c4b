// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

const (
	DefaultHeartbeatInterval   = 5 * time.Second
	DefaultRotationInterval    = 7 * time.Second
	DefaultDevtoolsThresholdPx = 160
)

// Defaults returns the baseline configuration before file and env overrides.
func Defaults() AppConfig {
	return AppConfig{
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:8089/api/protection",
			RequestTimeout: 10 * time.Second,
			EndTimeout:     3 * time.Second,
		},
		Session: SessionConfig{
			HeartbeatInterval: DefaultHeartbeatInterval,
		},
		Signals: SignalsConfig{
			DevtoolsThresholdPx: DefaultDevtoolsThresholdPx,
		},
		Watermark: WatermarkConfig{
			RotationInterval: DefaultRotationInterval,
		},
		Device: DeviceConfig{
			Store: "file",
			Path:  "playguard-device.json",
		},
		Breaker: BreakerConfig{
			Threshold:    5,
			ResetTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Service: "playguard",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
		DevServer: DevServerConfig{
			Listen:         ":8089",
			Registry:       "memory",
			SessionTTL:     30 * time.Second,
			MaxViewers:     1,
			BlockEvents:    []string{"display_capture_detected"},
			RateLimitPerIP: 600,
			PlaybackTTL:    10 * time.Minute,
			PlaybackBase:   "http://127.0.0.1:8089/media",
		},
	}
}
