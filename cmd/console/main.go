package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/roadmap-console/cmd/console/internal/api"
	"github.com/houzhh15/roadmap-console/cmd/console/internal/config"
	"github.com/houzhh15/roadmap-console/cmd/console/internal/metrics"
	"github.com/houzhh15/roadmap-console/pkg/logger"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		WithSource:  !strings.EqualFold(cfg.Server.Env, "production"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "console")

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Debug(cfg.PrintConfig())
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port, "api", cfg.API.BaseURL)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if !cfg.AuthEnabled() {
		appLogger.Warn("CONSOLE_JWT_SECRET not set, API is unauthenticated")
	}

	backend := client.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	store := editor.NewStore(backend, editor.Options{
		Logger:          logInstance,
		HistorySize:     cfg.Editor.HistorySize,
		BulkConcurrency: cfg.Editor.BulkConcurrency,
	})
	session := editor.NewSession(store)

	// Initial load; the console stays usable and can reload via POST /api/v1/load
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.API.Timeout)
	rms, err := store.Load(loadCtx)
	cancelLoad()
	if err != nil {
		appLogger.Warn("initial load failed", "error", err)
	} else {
		metrics.SetCollectionSize(len(rms))
		appLogger.Info("roadmaps loaded", "count", len(rms))
	}

	if f := cfg.Editor.ViewStateFile; f != "" {
		if err := session.View.LoadState(f); err != nil {
			appLogger.Warn("ignoring view state", "file", f, "error", err)
		}
	}

	h := api.NewHandler(session, logInstance, cfg.API.Timeout)
	h.ViewStateFile = cfg.Editor.ViewStateFile
	r := api.NewRouter(h, []byte(cfg.Security.JWTSecret))

	// Create HTTP server with graceful shutdown
	serverAddr := cfg.GetServerAddr()
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	go func() {
		appLogger.Info("server starting", "addr", serverAddr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if f := cfg.Editor.ViewStateFile; f != "" {
		if err := session.View.SaveState(f); err != nil {
			appLogger.Warn("failed to save view state", "file", f, "error", err)
		}
	}
	appLogger.Info("server shutdown complete")
}
