// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the postforge API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"postforge/internal/app"
	"postforge/internal/config"
	"postforge/internal/database"
	"postforge/internal/handlers"
	"postforge/internal/metrics"
	"postforge/internal/middleware"
	"postforge/internal/router"
	"postforge/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	stack, err := app.Open(cfg, m)
	if err != nil {
		slog.Error("failed to start services", "error", err)
		os.Exit(1)
	}
	defer stack.Close()

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(stack.DB); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	sessionStore := session.NewStore(stack.Valkey, !cfg.IsDev())

	aiLimiter := middleware.NewRateLimiter(cfg.AIRateLimit, time.Minute)
	defer aiLimiter.Stop()

	r := router.New(router.Handlers{
		Auth:     handlers.NewAuth(sessionStore, stack.Users),
		Wizards:  handlers.NewWizards(stack.Wizards, stack.Steps, stack.Queue),
		AI:       handlers.NewAI(stack.Pipeline, stack.Web, stack.Registry),
		Library:  handlers.NewLibrary(stack.Library, stack.Categories, stack.Tags, stack.Schedule),
		Settings: handlers.NewSettings(stack.Variables),
	}, router.Options{
		Sessions:  sessionStore,
		AILimiter: aiLimiter,
		Metrics:   m,
		Gatherer:  reg,
	})

	// WriteTimeout must cover a full slide image run, which waits on the
	// image model once per slide.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// setupLogger installs the default logger: text in development, JSON
// elsewhere, at the configured level.
func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
