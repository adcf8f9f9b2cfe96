package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/app"
	"github.com/Alias1177/Guessometer/internal/config"
	"github.com/Alias1177/Guessometer/internal/logging"
	"github.com/Alias1177/Guessometer/internal/notify"
	"github.com/Alias1177/Guessometer/models"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Digest failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	if cfg.TelegramChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID not set in environment")
	}

	bot, err := notify.NewBot(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("initializing Telegram bot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer closeCancel()
		if err := a.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close cleanly")
		}
	}()

	return post(ctx, a.Stats, bot, cfg.TelegramChatID)
}

type leaderboardSource interface {
	Leaderboard(ctx context.Context) ([]models.LeaderboardRow, error)
}

func post(ctx context.Context, board leaderboardSource, sender notify.Sender, chatID int64) error {
	rows, err := board.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("loading leaderboard: %w", err)
	}

	result, err := notify.NewDigest(sender, 10).Send(ctx, rows, []int64{chatID})
	if err != nil {
		return fmt.Errorf("digest interrupted: %w", err)
	}
	log.Info().Int("users", len(rows)).Int("sent", result.Sent).Int("failed", result.Failed).Msg("Digest completed")
	return nil
}
