package stats

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Guessometer/models"
)

type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) ListUserPredictions(ctx context.Context, userID string) ([]models.Prediction, error) {
	args := m.Called(ctx, userID)
	preds, _ := args.Get(0).([]models.Prediction)
	return preds, args.Error(1)
}

func (m *MockStatsStore) UpsertUserStats(ctx context.Context, s models.UserStats) (*models.UserStats, error) {
	args := m.Called(ctx, s)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return &s, nil
}

func (m *MockStatsStore) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.UserStats)
	return s, args.Error(1)
}

func (m *MockStatsStore) LeaderboardRows(ctx context.Context) ([]models.LeaderboardRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.LeaderboardRow)
	return rows, args.Error(1)
}

func (m *MockStatsStore) UsersWithPredictions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type memoryCache struct {
	mu          sync.Mutex
	rows        []models.LeaderboardRow
	ok          bool
	invalidated int
	version     int64
}

func (c *memoryCache) GetLeaderboard(context.Context) ([]models.LeaderboardRow, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows, c.ok, nil
}

func (c *memoryCache) LeaderboardVersion(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, nil
}

func (c *memoryCache) SetLeaderboard(_ context.Context, version int64, rows []models.LeaderboardRow) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return false, nil
	}
	c.rows, c.ok = rows, true
	return true, nil
}

func (c *memoryCache) InvalidateLeaderboard(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows, c.ok = nil, false
	c.invalidated++
	c.version++
	return nil
}

func newTestService(store models.StatsStore, cache LeaderboardCache) *Service {
	return NewService(store, Options{
		Cache: cache,
		Now:   func() time.Time { return fixedNow },
	})
}

func TestRecalculateUpsertsComputedStats(t *testing.T) {
	ctx := context.Background()
	store := new(MockStatsStore)
	cache := &memoryCache{ok: true}

	preds := []models.Prediction{
		prediction(80, models.OutcomeCorrect, true),
		prediction(60, models.OutcomeIncorrect, true),
		prediction(90, models.OutcomeCorrect, true),
		prediction(40, models.OutcomePending, true),
	}
	expected := models.UserStats{
		UserID:               "u1",
		TotalPredictions:     4,
		CorrectPredictions:   2,
		IncorrectPredictions: 1,
		PendingPredictions:   1,
		Accuracy:             66.67,
		BrierScore:           0.1367,
		LastCalculated:       fixedNow,
	}

	store.On("ListUserPredictions", ctx, "u1").Return(preds, nil)
	store.On("UpsertUserStats", ctx, expected).Return(nil, nil)

	svc := newTestService(store, cache)
	result, err := svc.Recalculate(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, expected, *result)
	assert.Equal(t, 1, cache.invalidated)
	store.AssertExpectations(t)
}

func TestRecalculateSkipsOrphans(t *testing.T) {
	store := new(MockStatsStore)
	svc := newTestService(store, nil)

	result, err := svc.Recalculate(context.Background(), "")

	assert.NoError(t, err)
	assert.Nil(t, result)
	store.AssertNotCalled(t, "ListUserPredictions", mock.Anything, mock.Anything)
}

func TestRecalculateStoreFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("read", func(t *testing.T) {
		store := new(MockStatsStore)
		store.On("ListUserPredictions", ctx, "u1").Return(nil, errors.New("connection refused"))

		_, err := newTestService(store, nil).Recalculate(ctx, "u1")
		assert.ErrorIs(t, err, ErrStatsUnavailable)
	})

	t.Run("write", func(t *testing.T) {
		store := new(MockStatsStore)
		store.On("ListUserPredictions", ctx, "u1").Return([]models.Prediction{}, nil)
		store.On("UpsertUserStats", ctx, mock.Anything).Return(nil, errors.New("deadlock detected"))

		_, err := newTestService(store, nil).Recalculate(ctx, "u1")
		assert.ErrorIs(t, err, ErrStatsUnavailable)
	})
}

func TestUserStatsComputesOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	store := new(MockStatsStore)
	store.On("GetUserStats", ctx, "u1").Return(nil, nil)
	store.On("ListUserPredictions", ctx, "u1").Return([]models.Prediction{}, nil)
	store.On("UpsertUserStats", ctx, mock.Anything).Return(nil, nil)

	result, err := newTestService(store, nil).UserStats(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalPredictions)
	store.AssertExpectations(t)
}

func TestUserStatsReturnsPersisted(t *testing.T) {
	ctx := context.Background()
	persisted := &models.UserStats{UserID: "u1", TotalPredictions: 7}
	store := new(MockStatsStore)
	store.On("GetUserStats", ctx, "u1").Return(persisted, nil)

	result, err := newTestService(store, nil).UserStats(ctx, "u1")

	require.NoError(t, err)
	assert.Same(t, persisted, result)
	store.AssertNotCalled(t, "UpsertUserStats", mock.Anything, mock.Anything)
}

func TestLeaderboardUsesCache(t *testing.T) {
	ctx := context.Background()
	store := new(MockStatsStore)
	store.On("LeaderboardRows", ctx).Return([]models.LeaderboardRow{
		row("b", 50, 4), row("a", 80, 5), row("z", 0, 0),
	}, nil).Once()
	cache := &memoryCache{}
	svc := newTestService(store, cache)

	first, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].User.ID)

	second, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	store.AssertNumberOfCalls(t, "LeaderboardRows", 1)
}

func TestTrendEmptyUser(t *testing.T) {
	ctx := context.Background()
	store := new(MockStatsStore)
	store.On("ListUserPredictions", ctx, "ghost").Return([]models.Prediction{}, nil)

	points, err := newTestService(store, nil).Trend(ctx, "ghost", models.PeriodAll, true)

	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	store := new(MockStatsStore)
	store.On("UsersWithPredictions", ctx).Return([]string{"u1", "u2", "u3"}, nil)
	store.On("ListUserPredictions", mock.Anything, mock.Anything).Return([]models.Prediction{}, nil)
	store.On("UpsertUserStats", mock.Anything, mock.Anything).Return(nil, nil)

	n, err := newTestService(store, nil).RecalculateAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	store.AssertNumberOfCalls(t, "UpsertUserStats", 3)
}

func TestUserLocksSerializeSameUser(t *testing.T) {
	locks := newUserLocks()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("u1")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Empty(t, locks.locks)
}

func TestBreakdownStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockStatsStore)
	store.On("ListUserPredictions", ctx, "u1").Return(nil, errors.New("connection refused"))

	_, err := newTestService(store, nil).Breakdown(ctx, "u1")
	assert.ErrorIs(t, err, ErrStatsUnavailable)
}

func TestLeaderboardDoesNotCacheRowsLoadedBeforeRecompute(t *testing.T) {
	ctx := context.Background()
	cache := &memoryCache{}
	store := new(MockStatsStore)
	svc := newTestService(store, cache)

	// the recompute commits while the leaderboard rows are being read
	store.On("LeaderboardRows", ctx).Run(func(mock.Arguments) {
		svc.invalidate(ctx)
	}).Return([]models.LeaderboardRow{row("a", 80, 5)}, nil).Once()
	store.On("LeaderboardRows", ctx).Return([]models.LeaderboardRow{row("a", 90, 6)}, nil).Once()

	first, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, cache.ok)

	second, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 90.0, second[0].Stats.Accuracy)
	assert.True(t, cache.ok)
	store.AssertNumberOfCalls(t, "LeaderboardRows", 2)
}
