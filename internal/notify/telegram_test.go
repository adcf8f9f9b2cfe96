package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Guessometer/models"
)

type fakeSender struct {
	sent   []tgbotapi.MessageConfig
	failOn int64
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if msg.ChatID == f.failOn {
		return tgbotapi.Message{}, errors.New("chat not found")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func row(rank int, name string, accuracy float64, total int) models.LeaderboardRow {
	return models.LeaderboardRow{
		Rank:  rank,
		User:  models.User{ID: name, DisplayName: &name},
		Stats: models.UserStats{Accuracy: accuracy, TotalPredictions: total, BrierScore: 0.125},
	}
}

func TestFormatLeaderboard(t *testing.T) {
	rows := []models.LeaderboardRow{
		row(1, "ada_l", 80, 10),
		row(2, "bob", 66.67, 3),
		row(3, "cy", 50, 2),
	}

	text := FormatLeaderboard(rows, 2)
	assert.Contains(t, text, `1. ada\_l: 80.00% (10 predictions, Brier 0.1250)`)
	assert.Contains(t, text, "2. bob: 66.67%")
	assert.NotContains(t, text, "cy")
}

func TestFormatLeaderboardEmpty(t *testing.T) {
	assert.Contains(t, FormatLeaderboard(nil, 10), "No resolved predictions yet.")
}

func TestDigestSend(t *testing.T) {
	sender := &fakeSender{failOn: 2}
	d := NewDigest(sender, 5)

	result, err := d.Send(context.Background(), []models.LeaderboardRow{row(1, "ada", 100, 1)}, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, DigestResult{Sent: 2, Failed: 1}, result)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, tgbotapi.ModeMarkdown, sender.sent[0].ParseMode)
}

func TestDigestSendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDigest(&fakeSender{}, 5).Send(ctx, nil, []int64{1})
	assert.ErrorIs(t, err, context.Canceled)
}
