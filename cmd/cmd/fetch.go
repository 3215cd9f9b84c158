package cmd

import (
	"context"
	"fmt"
	"time"

	"gdelttrends/internal/core"
	"gdelttrends/internal/logger"

	"github.com/spf13/cobra"
)

var fetchDailyDate string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Trigger a one-off GKG fetch and aggregation outside the scheduler",
}

var fetchRealtimeCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Fetch and aggregate the latest realtime GKG interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd.Context(), time.Now().UTC(), core.JobRealtime)
	},
}

var fetchDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Fetch and aggregate a daily GKG archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		timestamp := time.Now().UTC()
		if fetchDailyDate != "" {
			parsed, err := time.Parse("2006-01-02", fetchDailyDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD: %w", fetchDailyDate, err)
			}
			timestamp = parsed
		}
		return runFetch(cmd.Context(), timestamp, core.JobDaily)
	},
}

func init() {
	fetchDailyCmd.Flags().StringVar(&fetchDailyDate, "date", "", "date to fetch (YYYY-MM-DD), defaults to today (UTC)")
	fetchCmd.AddCommand(fetchRealtimeCmd, fetchDailyCmd)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(ctx context.Context, timestamp time.Time, jobType core.JobType) error {
	log := logger.Get()

	deps, err := buildDeps(ctx)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	if err := deps.fetcher.FetchAndProcess(ctx, timestamp, jobType); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	log.Info("fetch completed", "jobType", jobType, "timestamp", timestamp)
	return nil
}
