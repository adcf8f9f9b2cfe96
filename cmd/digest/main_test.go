package main

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Guessometer/models"
)

type stubBoard struct {
	rows []models.LeaderboardRow
	err  error
}

func (b stubBoard) Leaderboard(context.Context) ([]models.LeaderboardRow, error) {
	return b.rows, b.err
}

type recordingSender struct {
	chats []int64
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.chats = append(s.chats, c.(tgbotapi.MessageConfig).ChatID)
	return tgbotapi.Message{}, nil
}

func TestRunReturnsErrorWithoutChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("AIRTABLE_BASE_ID", "")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID")
}

func TestPost(t *testing.T) {
	ctx := context.Background()

	t.Run("Leaderboard failure is returned", func(t *testing.T) {
		sender := &recordingSender{}
		err := post(ctx, stubBoard{err: errors.New("stats unavailable")}, sender, 42)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading leaderboard")
		assert.Empty(t, sender.chats)
	})

	t.Run("Digest goes to the chat", func(t *testing.T) {
		sender := &recordingSender{}
		name := "ada"
		rows := []models.LeaderboardRow{{Rank: 1, User: models.User{ID: "u1", DisplayName: &name}}}

		require.NoError(t, post(ctx, stubBoard{rows: rows}, sender, 42))
		assert.Equal(t, []int64{42}, sender.chats)
	})
}
