package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gdelttrends/internal/logger"
	"gdelttrends/internal/schedule"
	"gdelttrends/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trend query HTTP server and ingestion scheduler",
	Long: `Start the HTTP API for realtime, daily, and scored trend lists, and the
background scheduler that keeps the store fresh: a realtime fetch every
configured interval, and a daily rollup at the configured UTC hour.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	log := logger.Get()

	deps, err := buildDeps(ctx)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	scheduler := schedule.New(deps.fetcher, deps.aggregator, deps.cfg.Realtime.IntervalMin, deps.cfg.Daily.HourUTC)
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	scheduler.Start(schedulerCtx)

	srv := server.New(deps.trendStore, deps.trendCache, deps.scorer, deps.fetcher, deps.aggregator, deps.cfg.Server)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("server listening on http://%s:%d", deps.cfg.Server.Host, deps.cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("shutdown initiated", "signal", sig.String())
		stopScheduler()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed, forcing close", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		log.Info("server stopped successfully")
	}

	return nil
}
