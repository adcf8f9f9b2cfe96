package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/models"
)

// Telegram allows 30 messages per second for bots
const sendInterval = 50 * time.Millisecond

// Sender is the part of the bot API used for delivery
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DigestResult counts deliveries
type DigestResult struct {
	Sent   int
	Failed int
}

// Digest posts the leaderboard to Telegram chats
type Digest struct {
	sender Sender
	limit  int
	logger zerolog.Logger
}

// NewDigest creates a digest that lists the top limit users
func NewDigest(sender Sender, limit int) *Digest {
	if limit <= 0 {
		limit = 10
	}
	return &Digest{
		sender: sender,
		limit:  limit,
		logger: log.With().Str("component", "digest").Logger(),
	}
}

// NewBot connects to the Telegram bot API
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing Telegram bot: %w", err)
	}
	return bot, nil
}

// Send delivers the formatted leaderboard to every chat
func (d *Digest) Send(ctx context.Context, rows []models.LeaderboardRow, chatIDs []int64) (DigestResult, error) {
	var result DigestResult
	text := FormatLeaderboard(rows, d.limit)

	for i, chatID := range chatIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := d.sender.Send(msg); err != nil {
			d.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send digest")
			result.Failed++
		} else {
			d.logger.Info().Int64("chat_id", chatID).Msgf("Digest sent [%d/%d]", i+1, len(chatIDs))
			result.Sent++
		}

		if i < len(chatIDs)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(sendInterval):
			}
		}
	}
	return result, nil
}

// FormatLeaderboard renders the top rows as a Markdown message
func FormatLeaderboard(rows []models.LeaderboardRow, limit int) string {
	var b strings.Builder
	b.WriteString("🏆 *Prediction Leaderboard*\n\n")

	if len(rows) == 0 {
		b.WriteString("No resolved predictions yet.")
		return b.String()
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%d. %s: %.2f%% (%d predictions, Brier %.4f)\n",
			row.Rank,
			escapeMarkdown(row.User.Name()),
			row.Stats.Accuracy,
			row.Stats.TotalPredictions,
			row.Stats.BrierScore,
		)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
