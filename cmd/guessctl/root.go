package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Alias1177/Guessometer/internal/app"
	"github.com/Alias1177/Guessometer/internal/config"
	"github.com/Alias1177/Guessometer/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "guessctl",
	Short: "Administer prediction stats",
	Long:  "guessctl recomputes user stats, prints leaderboards and accuracy trends,\nand imports predictions from Airtable.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(recalcCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(breakdownCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.Version = version
}

// withApp loads configuration, opens the services and runs fn
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	return fn(ctx, a)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
