// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command playguard-devserver runs the local protection backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/playguard/internal/app/bootstrap"
	"github.com/ManuGH/playguard/internal/config"
	"github.com/ManuGH/playguard/internal/devserver"
	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/telemetry"
	"github.com/ManuGH/playguard/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig(*configPath, "playguard-devserver")
	if err != nil {
		logger := log.WithComponent("devserver")
		logger.Fatal().Err(err).Str(log.FieldEvent, "config.load_failed").Msg("failed to load configuration")
	}

	if err := run(ctx, cfg, *configPath, nil); err != nil {
		logger := log.WithComponent("devserver")
		logger.Fatal().Err(err).Msg("devserver exited")
	}
}

// run serves until ctx is cancelled. A nil listener binds cfg.DevServer.Listen.
// Rule changes in the config file at configPath apply without a restart.
func run(ctx context.Context, cfg config.AppConfig, configPath string, ln net.Listener) error {
	logger := log.WithComponent("devserver")

	tp, err := bootstrap.StartTelemetry(ctx, cfg, telemetry.RoleDevServer, version.Version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	srv, registry, err := bootstrap.WireDevServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = registry.Close() }()

	if ln == nil {
		ln, err = net.Listen("tcp", cfg.DevServer.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.DevServer.Listen, err)
		}
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	holder := config.NewHolder(cfg, configPath)
	reloads := make(chan config.AppConfig, 1)
	holder.RegisterListener(reloads)
	if err := holder.StartWatcher(gctx); err != nil {
		logger.Warn().Err(err).Msg("config watcher unavailable, rules are fixed for this run")
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-reloads:
				srv.SetRules(devserver.NewRules(next.DevServer.BlockEvents, next.DevServer.MaxViewers))
			}
		}
	})
	g.Go(func() error {
		logger.Info().
			Str(log.FieldListen, ln.Addr().String()).
			Str("registry", cfg.DevServer.Registry).
			Int("max_viewers", cfg.DevServer.MaxViewers).
			Strs("block_events", cfg.DevServer.BlockEvents).
			Msg("protection devserver listening")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
