package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Guessometer/models"
)

func newTestCache(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, time.Minute), srv
}

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t)

	_, ok, err := c.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	name := "Alice"
	rows := []models.LeaderboardRow{{
		Rank:  1,
		User:  models.User{ID: "u1", DisplayName: &name},
		Stats: models.UserStats{UserID: "u1", TotalPredictions: 3, Accuracy: 66.67, BrierScore: 0.1367},
	}}
	stored, err := c.SetLeaderboard(ctx, 0, rows)
	require.NoError(t, err)
	require.True(t, stored)

	got, ok, err := c.GetLeaderboard(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", got[0].User.Name())
	assert.Equal(t, 66.67, got[0].Stats.Accuracy)

	srv.FastForward(2 * time.Minute)
	_, ok, err = c.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboardCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t)

	_, err := c.SetLeaderboard(ctx, 0, []models.LeaderboardRow{})
	require.NoError(t, err)
	require.NoError(t, srv.Set("unrelated", "keep"))

	require.NoError(t, c.InvalidateLeaderboard(ctx))

	_, ok, err := c.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, srv.Exists("unrelated"))

	version, err := c.LeaderboardVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// nothing left to delete
	assert.NoError(t, c.InvalidateLeaderboard(ctx))
}

func TestLeaderboardCacheSkipsStaleWrite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	version, err := c.LeaderboardVersion(ctx)
	require.NoError(t, err)

	// a recompute lands between loading the rows and caching them
	require.NoError(t, c.InvalidateLeaderboard(ctx))

	stale := []models.LeaderboardRow{{Rank: 1, User: models.User{ID: "old"}}}
	stored, err := c.SetLeaderboard(ctx, version, stale)
	require.NoError(t, err)
	assert.False(t, stored)

	_, ok, err := c.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	fresh, err := c.LeaderboardVersion(ctx)
	require.NoError(t, err)
	stored, err = c.SetLeaderboard(ctx, fresh, stale)
	require.NoError(t, err)
	assert.True(t, stored)
}
