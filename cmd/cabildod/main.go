// Copyright 2026 © The Cabildo Authors
// SPDX-License-Identifier: Apache-2.0

// Command cabildod runs the coordination service as an HTTP+JSON daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jllopis/cabildo/pkg/config"
	"github.com/jllopis/cabildo/pkg/httpjson"
	"github.com/jllopis/cabildo/pkg/team"
	"github.com/jllopis/cabildo/pkg/telemetry"
)

const (
	serviceName    = "cabildod"
	serviceVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cabildod: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := telemetry.ConfigureSlog(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.InitWithConfig(serviceName, serviceVersion, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		Environment:  cfg.Telemetry.Environment,
		SampleRatio:  cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	stores, closeStores, err := openStores(cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer closeStores()

	metrics, err := telemetry.NewCoordinationMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	svc := team.NewService(stores,
		team.WithLogger(logger),
		team.WithMetrics(metrics),
	)

	mux := http.NewServeMux()
	mux.Handle("/v1/", httpjson.New(svc, logger))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if *configPath != "" {
		watcher, err := config.NewWatcher([]string{*configPath},
			config.WithWatchLogger(logger))
		if err != nil {
			logger.Warn("config watcher disabled", "error", err)
		} else {
			watcher.OnChange(func(updated *config.Config) {
				logger.Info("configuration reloaded",
					"log_level", updated.Log.Level)
			})
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cabildod listening",
			"addr", cfg.Server.Addr,
			"store_driver", cfg.Store.Driver,
			"telemetry_exporter", cfg.Telemetry.Exporter)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores builds the store set for the configured driver. The returned
// closer is a no-op for the memory driver.
func openStores(cfg *config.Config) (team.Stores, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return team.NewMemoryStores(), func() {}, nil
	case "sqlite", "":
		db, err := team.OpenSQLite(cfg.Store.DSN)
		if err != nil {
			return team.Stores{}, nil, err
		}
		stores, err := team.NewSQLiteStores(db)
		if err != nil {
			db.Close()
			return team.Stores{}, nil, err
		}
		return stores, func() { db.Close() }, nil
	default:
		return team.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
