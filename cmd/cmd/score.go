package cmd

import (
	"context"
	"fmt"
	"time"

	"gdelttrends/internal/core"
	"gdelttrends/internal/logger"

	"github.com/spf13/cobra"
)

var (
	scoreDate       string
	scoreCategory   string
	scoreWindowDays int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a day's keywords against their trailing baseline",
	Long: `Ensure the baseline window is covered by backfilling any missing daily
Trends, then rank a day's keywords by the composite volume/growth/z-score
formula and persist the result as a ranked Trend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScore(cmd.Context())
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreDate, "date", "", "date to score (YYYY-MM-DD), defaults to today (UTC)")
	scoreCmd.Flags().StringVar(&scoreCategory, "category", string(core.CategoryThemes), "category to score (themes, persons, orgs, locations, documents)")
	scoreCmd.Flags().IntVar(&scoreWindowDays, "window-days", 7, "trailing baseline window, in days")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(ctx context.Context) error {
	log := logger.Get()

	deps, err := buildDeps(ctx)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	date := scoreDate
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	result, err := deps.scorer.ScoreTrends(ctx, date, core.Category(scoreCategory), scoreWindowDays)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	log.Info("score completed", "date", date, "category", scoreCategory, "keywords", len(result))
	return nil
}
