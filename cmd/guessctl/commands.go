package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Guessometer/internal/app"
	"github.com/Alias1177/Guessometer/models"
)

var recalcFlags struct {
	userID string
	all    bool
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute stats for one user or everyone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if recalcFlags.userID == "" && !recalcFlags.all {
			return errors.New("either --user or --all is required")
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			if recalcFlags.all {
				n, err := a.Stats.RecalculateAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Recalculated stats for %d users\n", n)
				return nil
			}

			s, err := a.Stats.Recalculate(ctx, recalcFlags.userID)
			if err != nil {
				return err
			}
			printStats(out, s)
			return nil
		})
	},
}

var leaderboardFlags struct {
	limit  int
	asJSON bool
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the ranked leaderboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			rows, err := a.Stats.Leaderboard(ctx)
			if err != nil {
				return err
			}
			if leaderboardFlags.limit > 0 && len(rows) > leaderboardFlags.limit {
				rows = rows[:leaderboardFlags.limit]
			}
			if leaderboardFlags.asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			printLeaderboard(cmd.OutOrStdout(), rows)
			return nil
		})
	},
}

var trendFlags struct {
	userID string
	period string
	brier  bool
	asJSON bool
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print a user's running accuracy per day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			points, err := a.Stats.Trend(ctx, trendFlags.userID, models.ParsePeriod(trendFlags.period), trendFlags.brier)
			if err != nil {
				return err
			}
			if trendFlags.asJSON {
				return writeJSON(cmd.OutOrStdout(), points)
			}
			printTrend(cmd.OutOrStdout(), points)
			return nil
		})
	},
}

var breakdownUserID string

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Print a user's accuracy per category and month",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			b, err := a.Stats.Breakdown(ctx, breakdownUserID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), b)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import predictions from Airtable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if a.Importer == nil {
				return errors.New("AIRTABLE_BASE_ID and AIRTABLE_TOKEN must be set")
			}
			result, err := a.Importer.Import(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d, created %d, skipped %d, categories %d, users recalculated %d\n",
				result.Fetched, result.Created, result.Skipped, result.Categories, result.Users)
			return nil
		})
	},
}

func init() {
	f := recalcCmd.Flags()
	f.StringVar(&recalcFlags.userID, "user", "", "User ID to recompute")
	f.BoolVar(&recalcFlags.all, "all", false, "Recompute every user with predictions")

	f = leaderboardCmd.Flags()
	f.IntVar(&leaderboardFlags.limit, "limit", 20, "Rows to print (0 for all)")
	f.BoolVar(&leaderboardFlags.asJSON, "json", false, "Print JSON")

	f = trendCmd.Flags()
	f.StringVar(&trendFlags.userID, "user", "", "User ID (required)")
	f.StringVar(&trendFlags.period, "period", "all", "Window: 1m, 6m, 12m or all")
	f.BoolVar(&trendFlags.brier, "brier", false, "Include running Brier score")
	f.BoolVar(&trendFlags.asJSON, "json", false, "Print JSON")
	_ = trendCmd.MarkFlagRequired("user")

	breakdownCmd.Flags().StringVar(&breakdownUserID, "user", "", "User ID (required)")
	_ = breakdownCmd.MarkFlagRequired("user")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer, s *models.UserStats) {
	if s == nil {
		fmt.Fprintln(w, "No stats")
		return
	}
	fmt.Fprintf(w, "User:       %s\n", s.UserID)
	fmt.Fprintf(w, "Total:      %d (correct %d, incorrect %d, pending %d)\n",
		s.TotalPredictions, s.CorrectPredictions, s.IncorrectPredictions, s.PendingPredictions)
	fmt.Fprintf(w, "Accuracy:   %.2f%%\n", s.Accuracy)
	fmt.Fprintf(w, "Brier:      %.4f\n", s.BrierScore)
}

func printLeaderboard(w io.Writer, rows []models.LeaderboardRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "Leaderboard is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tACCURACY\tTOTAL\tBRIER")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f%%\t%d\t%.4f\n", r.Rank, r.User.Name(), r.Stats.Accuracy, r.Stats.TotalPredictions, r.Stats.BrierScore)
	}
	tw.Flush()
}

func printTrend(w io.Writer, points []models.TrendPoint) {
	if len(points) == 0 {
		fmt.Fprintln(w, "No resolved predictions in this period")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tACCURACY\tCONFIDENCE\tBRIER")
	for _, p := range points {
		brier := "-"
		if p.BrierScore != nil {
			brier = fmt.Sprintf("%.4f", *p.BrierScore)
		}
		fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f%%\t%s\n", p.Date, p.Accuracy, p.Confidence, brier)
	}
	tw.Flush()
}
