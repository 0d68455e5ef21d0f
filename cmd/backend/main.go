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

	configloader "github.com/foxseedlab/fanreel/external/config"
	generationimpl "github.com/foxseedlab/fanreel/external/generation"
	notifierimpl "github.com/foxseedlab/fanreel/external/notifier"
	objectstoreimpl "github.com/foxseedlab/fanreel/external/objectstore"
	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/httpapi"
	"github.com/foxseedlab/fanreel/internal/pipeline"
	"github.com/foxseedlab/fanreel/internal/progress"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/samber/do/v2"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "object_store", cfg.ObjectStoreBackend)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: starting http server")
	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	objectstoreimpl.RegisterDI(injector)
	generationimpl.RegisterDI(injector)
	notifierimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	progress.RegisterDI(injector)
	pipeline.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	server, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	// Generation stages and progress streams hold responses open for minutes,
	// so there is no write timeout.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(cfg.AllowedOrigins),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	done := make(chan struct{})
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if err := injector.Shutdown(); err != nil {
		slog.Error("dependency shutdown failed", "error", err)
	}
}
