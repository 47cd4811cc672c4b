// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command playguard-soak drives many synthetic viewers against a protection
// backend and checks the client-side enforcement invariants under load.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ManuGH/playguard/internal/app/bootstrap"
	"github.com/ManuGH/playguard/internal/telemetry"
	"github.com/ManuGH/playguard/internal/version"
)

// Report is the JSON output schema for soak results.
type Report struct {
	RunID           string           `json:"run_id"`
	Version         string           `json:"version"`
	Seed            uint64           `json:"seed"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         time.Time        `json:"ended_at"`
	DurationSeconds float64          `json:"duration_s"`
	ScenarioResults []ScenarioResult `json:"scenario_results"`
	Summary         Summary          `json:"summary"`
}

// ScenarioResult holds the outcome of a single scenario.
type ScenarioResult struct {
	Name         string           `json:"name"`
	Pass         bool             `json:"pass"`
	Status       string           `json:"status,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Observations map[string]int64 `json:"observations"`
	Failures     []Failure        `json:"failures"`
}

// Failure captures a specific invariant violation.
type Failure struct {
	Time    time.Time `json:"time"`
	RuleID  string    `json:"rule_id"`
	Viewer  int       `json:"viewer"`
	Message string    `json:"message"`
}

// Summary provides the aggregate verdict.
type Summary struct {
	PassedScenarios int    `json:"passed_scenarios"`
	FailedScenarios int    `json:"failed_scenarios"`
	Verdict         string `json:"verdict"`
}

// Config holds command-line configuration.
type Config struct {
	ConfigPath  string
	BaseURL     string
	Viewers     int
	Accounts    int
	Duration    time.Duration
	FlipRate    float64
	Heartbeat   time.Duration
	MaxInflight int
	Seed        uint64
	ArtifactDir string
}

const (
	scenarioStatusPass = "pass"
	scenarioStatusFail = "fail"
)

func main() {
	cfg := parseFlags()
	if cfg.Seed == 0 {
		// #nosec G115 -- UnixNano is positive until 2262
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	appCfg, err := bootstrap.LoadConfig(cfg.ConfigPath, "playguard-soak")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := bootstrap.StartTelemetry(ctx, appCfg, telemetry.RoleSoak, version.Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("playguard-soak seed=%d viewers=%d accounts=%d duration=%s\n",
		cfg.Seed, cfg.Viewers, cfg.Accounts, cfg.Duration)

	report := Report{
		RunID:     fmt.Sprintf("soak-%d", cfg.Seed),
		Version:   version.Version,
		Seed:      cfg.Seed,
		StartedAt: time.Now(),
	}

	result, err := runSoak(ctx, cfg, appCfg)
	// Flush before any os.Exit below.
	if shutdownErr := tp.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", shutdownErr)
	}
	if err != nil {
		result = ScenarioResult{
			Name:         "viewers",
			Status:       scenarioStatusFail,
			Reason:       err.Error(),
			Observations: map[string]int64{},
		}
	}
	report.ScenarioResults = []ScenarioResult{normalizeScenarioResult(result)}
	report.EndedAt = time.Now()
	report.DurationSeconds = report.EndedAt.Sub(report.StartedAt).Seconds()
	summarize(&report)

	if err := writeReport(cfg.ArtifactDir, report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nVerdict: %s (%d passed, %d failed)\n",
		report.Summary.Verdict, report.Summary.PassedScenarios, report.Summary.FailedScenarios)
	if report.Summary.Verdict != "PASS" {
		os.Exit(1)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.ConfigPath, "config", "", "path to config file (YAML)")
	flag.StringVar(&cfg.BaseURL, "base-url", "", "protection API base URL (empty runs an embedded devserver)")
	flag.IntVar(&cfg.Viewers, "viewers", 20, "number of concurrent synthetic viewers")
	flag.IntVar(&cfg.Accounts, "accounts", 10, "number of distinct accounts the viewers share")
	flag.DurationVar(&cfg.Duration, "duration", time.Minute, "test duration")
	flag.Float64Var(&cfg.FlipRate, "flip-rate", 20, "environment flips per second across all viewers")
	flag.DurationVar(&cfg.Heartbeat, "heartbeat", time.Second, "heartbeat interval override")
	flag.IntVar(&cfg.MaxInflight, "max-inflight", 8, "max concurrent lesson opens")
	flag.Uint64Var(&cfg.Seed, "seed", 0, "random seed (0=random)")
	flag.StringVar(&cfg.ArtifactDir, "artifact-dir", "./soak-artifacts", "output directory")

	flag.Parse()
	return cfg
}

func summarize(report *Report) {
	for _, sr := range report.ScenarioResults {
		if sr.Status == scenarioStatusPass {
			report.Summary.PassedScenarios++
		} else {
			report.Summary.FailedScenarios++
		}
	}
	if report.Summary.FailedScenarios == 0 {
		report.Summary.Verdict = "PASS"
	} else {
		report.Summary.Verdict = "FAIL"
	}
}

func writeReport(dir string, report Report) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "report.json"), data, 0o600)
}

func normalizeScenarioResult(sr ScenarioResult) ScenarioResult {
	switch {
	case sr.Status == scenarioStatusFail || len(sr.Failures) > 0:
		sr.Status = scenarioStatusFail
		sr.Pass = false
		if sr.Reason == "" {
			sr.Reason = "invariant violated"
		}
	default:
		sr.Status = scenarioStatusPass
		sr.Pass = true
	}
	if sr.Observations == nil {
		sr.Observations = map[string]int64{}
	}
	return sr
}
