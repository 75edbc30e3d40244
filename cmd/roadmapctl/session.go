package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/houzhh15/roadmap-console/pkg/logger"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
)

// openSession loads the whole collection into a fresh editor session.
func openSession(cmd *cobra.Command) (*editor.Session, *Config, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	level := "warn"
	if cfg.Verbose {
		level = "debug"
	}
	log, err := logger.NewWithWriter(logger.Config{Level: level, Format: "text"}, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	store := editor.NewStore(client.New(cfg.ServerURL, cfg.Token, cfg.Timeout), editor.Options{Logger: log})
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()
	rms, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("collection loaded", slog.Int("roadmaps", len(rms)), slog.String("server", cfg.ServerURL))
	return editor.NewSession(store), cfg, nil
}

// requestContext bounds one backend round trip.
func requestContext(cmd *cobra.Command, cfg *Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout)
}
