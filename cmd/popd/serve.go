package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/driftmail/popd/internal/auth"
	"github.com/driftmail/popd/internal/config"
	"github.com/driftmail/popd/internal/logging"
	"github.com/driftmail/popd/internal/maildir"
	"github.com/driftmail/popd/internal/metrics"
	"github.com/driftmail/popd/internal/pop3"
	"github.com/driftmail/popd/internal/server"
)

func runServe(args []string) int {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return 1
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger := logging.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	authStore, err := auth.Open(cfg.AuthDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening credential database: %v\n", err)
		return 1
	}
	defer func() {
		_ = authStore.Close()
	}()

	mailStore := maildir.NewStore(cfg.Maildir)

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		collector = metrics.NewPrometheusCollector(registry)
		metricsServer := metrics.NewPrometheusServer(cfg.Metrics.Address, cfg.Metrics.Path, registry)
		go func() {
			if err := metricsServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	srv, err := server.New(server.Config{Cfg: &cfg, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		return 1
	}

	locks := pop3.NewLockTable()
	srv.SetHandler(pop3.Handler(authStore, locks, mailStore, collector))

	logger.Info("starting popd",
		"hostname", cfg.Hostname,
		"listeners", len(cfg.Listeners),
		"maildir", cfg.Maildir)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return 1
	}

	logger.Info("POP3 server stopped")
	return 0
}
