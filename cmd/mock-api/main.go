// Command mock-api serves an in-memory roadmap REST API for local
// development of the console and roadmapctl.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/houzhh15/roadmap-console/pkg/logger"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/mockapi"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/transfer"
)

var (
	port     int
	dataFile string
	seedFile string
	bare     bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "mock-api",
	Short: "In-memory roadmap REST API",
	Long: `mock-api serves the roadmap collaborator API under /api.

Data lives in memory unless --data is given, in which case it is loaded from
and written back to that JSON file. --seed loads an exported roadmap document
on start.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVarP(&port, "port", "p", 8091, "listen port")
	rootCmd.Flags().StringVar(&dataFile, "data", "", "persist the collection to this JSON file")
	rootCmd.Flags().StringVar(&seedFile, "seed", "", "exported roadmap document to load on start")
	rootCmd.Flags().BoolVar(&bare, "bare", false, "answer with plain JSON bodies instead of the {success,data} envelope")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}

func run(cmd *cobra.Command, args []string) error {
	log, err := logger.Init(logger.Config{Level: logLevel, Environment: os.Getenv("ENV")})
	if err != nil {
		return err
	}
	log = log.With("component", "mock-api")

	svc, err := mockapi.NewService(dataFile)
	if err != nil {
		return err
	}
	if seedFile != "" {
		raw, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read seed: %w", err)
		}
		rms, err := transfer.Import(raw)
		if err != nil {
			return err
		}
		svc.Seed(rms)
		log.Info("seeded collection", "file", seedFile, "count", len(rms))
	}

	gin.SetMode(gin.ReleaseMode)
	h := mockapi.NewHandler(svc)
	h.Bare = bare
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mockapi.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("mock api listening", "addr", srv.Addr, "data", dataFile, "bare", bare)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("mock api stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
