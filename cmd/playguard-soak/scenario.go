// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ManuGH/playguard/internal/app/bootstrap"
	"github.com/ManuGH/playguard/internal/config"
	"github.com/ManuGH/playguard/internal/deviceid"
	"github.com/ManuGH/playguard/internal/devserver"
	"github.com/ManuGH/playguard/internal/protection/api"
	"github.com/ManuGH/playguard/internal/protection/signals"
	"github.com/ManuGH/playguard/internal/protection/viewer"
)

const (
	ruleBlockAbsorbing = "BLOCK_ABSORBING"
	ruleBlockedFrame   = "BLOCKED_FRAME_HAS_CONTENT"
)

// flip is one synthetic environment change applied to a viewer.
type flip struct {
	name  string
	apply func(env *signals.StateEnvironment, d *signals.Dispatcher)
}

var flips = []flip{
	{"blur", func(env *signals.StateEnvironment, d *signals.Dispatcher) {
		env.SetFocused(false)
		d.Dispatch(signals.Observation{Kind: signals.ObserveBlur, At: time.Now()})
	}},
	{"focus", func(env *signals.StateEnvironment, _ *signals.Dispatcher) { env.SetFocused(true) }},
	{"hide", func(env *signals.StateEnvironment, d *signals.Dispatcher) {
		env.SetVisible(false)
		d.Dispatch(signals.Observation{Kind: signals.ObserveVisibility, Hidden: true, At: time.Now()})
	}},
	{"show", func(env *signals.StateEnvironment, d *signals.Dispatcher) {
		env.SetVisible(true)
		d.Dispatch(signals.Observation{Kind: signals.ObserveVisibility, At: time.Now()})
	}},
	{"fullscreen_exit", func(env *signals.StateEnvironment, d *signals.Dispatcher) {
		env.SetFullscreen(false)
		d.Dispatch(signals.Observation{Kind: signals.ObserveFullscreen, At: time.Now()})
	}},
	{"print_screen", func(_ *signals.StateEnvironment, d *signals.Dispatcher) {
		d.Dispatch(signals.Observation{Kind: signals.ObserveKeyDown, Key: signals.KeyStroke{Key: "PrintScreen"}, At: time.Now()})
	}},
	{"devtools", func(env *signals.StateEnvironment, d *signals.Dispatcher) {
		env.SetWindow(signals.WindowMetrics{OuterWidth: 1280, OuterHeight: 800, InnerWidth: 900, InnerHeight: 720})
		d.Dispatch(signals.Observation{Kind: signals.ObserveKeyDown, Key: signals.KeyStroke{Key: "F12"}, At: time.Now()})
	}},
}

// syntheticViewer is one simulated player shell.
type syntheticViewer struct {
	id     int
	env    *signals.StateEnvironment
	events *signals.Dispatcher
	client *bootstrap.Client

	mu       sync.Mutex
	blocked  bool
	frames   int64
	failures []Failure
}

func (v *syntheticViewer) render(f viewer.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames++
	if f.Blocked() && (f.Video != nil || f.Watermark != nil) {
		v.failures = append(v.failures, Failure{Time: time.Now(), RuleID: ruleBlockedFrame, Viewer: v.id,
			Message: "blocked frame still carries video or watermark"})
	}
	if v.blocked && f.Video != nil {
		v.failures = append(v.failures, Failure{Time: time.Now(), RuleID: ruleBlockAbsorbing, Viewer: v.id,
			Message: "video rendered again after block"})
	}
	if f.Blocked() {
		v.blocked = true
	}
}

// runSoak opens cfg.Viewers lessons, flips environment signals at a paced
// rate for cfg.Duration and reports the resulting states.
func runSoak(ctx context.Context, cfg Config, appCfg config.AppConfig) (ScenarioResult, error) {
	if cfg.Viewers < 1 {
		return ScenarioResult{}, errors.New("at least one viewer is required")
	}
	if cfg.Accounts < 1 {
		cfg.Accounts = 1
	}
	if cfg.Heartbeat > 0 {
		appCfg.Session.HeartbeatInterval = cfg.Heartbeat
	}

	if cfg.BaseURL == "" {
		// Every synthetic viewer shares the loopback address.
		appCfg.DevServer.RateLimitPerIP = 0
		stop, base, err := startEmbedded(ctx, appCfg)
		if err != nil {
			return ScenarioResult{}, err
		}
		defer stop()
		cfg.BaseURL = base
	}
	appCfg.Backend.BaseURL = cfg.BaseURL

	viewers := make([]*syntheticViewer, cfg.Viewers)
	for i := range viewers {
		sv := &syntheticViewer{
			id:     i,
			env:    signals.NewStateEnvironment(fmt.Sprintf("https://soak.local/viewer/%d", i)),
			events: signals.NewDispatcher(),
		}
		sv.env.SetFullscreen(true)
		client, err := bootstrap.WireClient(appCfg, bootstrap.Host{
			Env:      sv.env,
			Events:   sv.events,
			Tokens:   api.StaticToken(fmt.Sprintf("soak-account-%d", i%cfg.Accounts)),
			Devices:  deviceid.New(deviceid.NewMemoryBackend()),
			Renderer: sv.render,
		})
		if err != nil {
			return ScenarioResult{}, err
		}
		sv.client = client
		viewers[i] = sv
	}
	defer func() {
		closeCtx := context.WithoutCancel(ctx)
		for _, sv := range viewers {
			_ = sv.client.Close(closeCtx)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.MaxInflight, 1))
	for _, sv := range viewers {
		g.Go(func() error {
			return sv.client.Viewer.Open(gctx, viewer.Lesson{
				ContentID: "soak-course",
				LessonID:  fmt.Sprintf("lesson-%d", sv.id%4),
				SourceURL: "https://origin.soak.local/course.m3u8",
				Protected: true,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return ScenarioResult{}, fmt.Errorf("open lessons: %w", err)
	}

	obs := map[string]int64{"viewers": int64(len(viewers))}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	limiter := rate.NewLimiter(rate.Limit(cfg.FlipRate), 1)

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()
	for cfg.FlipRate > 0 {
		if err := limiter.Wait(runCtx); err != nil {
			break
		}
		sv := viewers[rng.IntN(len(viewers))]
		f := flips[rng.IntN(len(flips))]
		f.apply(sv.env, sv.events)
		obs["flip_"+f.name]++
	}
	<-runCtx.Done()

	var failures []Failure
	for _, sv := range viewers {
		frame := sv.client.Viewer.Frame()
		switch {
		case frame.Blocked():
			obs["blocked"]++
			obs["reason:"+frame.BlockedMessage]++
		case frame.Video != nil && frame.Video.Scoped:
			obs["active"]++
		case frame.Video != nil:
			obs["unprotected"]++
		default:
			obs["idle"]++
		}
		sv.mu.Lock()
		obs["frames"] += sv.frames
		failures = append(failures, sv.failures...)
		sv.mu.Unlock()
	}

	return ScenarioResult{
		Name:         "viewers",
		Observations: obs,
		Failures:     failures,
	}, nil
}

// startEmbedded serves a devserver on a loopback port.
func startEmbedded(ctx context.Context, appCfg config.AppConfig) (func(), string, error) {
	srv, registry, err := bootstrap.WireDevServer(ctx, appCfg)
	if err != nil {
		return nil, "", err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = registry.Close()
		return nil, "", err
	}
	httpServer := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = httpServer.Serve(ln) }()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = registry.Close()
	}
	return stop, "http://" + ln.Addr().String() + devserver.MountPath, nil
}
