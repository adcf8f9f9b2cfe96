package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Guessometer/models"
)

func row(id string, accuracy float64, total int) models.LeaderboardRow {
	return models.LeaderboardRow{
		User:  models.User{ID: id},
		Stats: models.UserStats{UserID: id, Accuracy: accuracy, TotalPredictions: total},
	}
}

func TestRankLeaderboard(t *testing.T) {
	rows := []models.LeaderboardRow{
		row("empty", 0, 0),
		row("small-sample", 100, 1),
		row("veteran", 75, 40),
		row("rookie", 75, 4),
		row("perfect", 100, 12),
		row("pending-only", 0, 3),
	}

	ranked := RankLeaderboard(rows)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.User.ID
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"perfect", "small-sample", "veteran", "rookie", "pending-only"}, ids)
}

func TestRankLeaderboardOrderingInvariant(t *testing.T) {
	rows := []models.LeaderboardRow{
		row("a", 50, 2), row("b", 50, 2), row("c", 10, 9), row("d", 90, 0),
		row("e", 66.67, 3), row("f", 66.67, 30), row("g", 0, 1),
	}

	ranked := RankLeaderboard(rows)
	require.NotEmpty(t, ranked)

	for _, r := range ranked {
		assert.Positive(t, r.Stats.TotalPredictions)
	}
	for i := 1; i < len(ranked); i++ {
		a, b := ranked[i-1].Stats, ranked[i].Stats
		ok := a.Accuracy > b.Accuracy || (a.Accuracy == b.Accuracy && a.TotalPredictions >= b.TotalPredictions)
		assert.Truef(t, ok, "rows %d and %d out of order: %+v, %+v", i-1, i, a, b)
	}
}

func TestRankLeaderboardEmpty(t *testing.T) {
	ranked := RankLeaderboard(nil)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}
