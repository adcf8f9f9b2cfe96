package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/Guessometer/models"
)

// ErrStatsUnavailable is returned when stats cannot be read or recomputed
var ErrStatsUnavailable = errors.New("stats unavailable")

// LeaderboardCache stores the ranked leaderboard between recomputes.
// SetLeaderboard skips the write when InvalidateLeaderboard ran after the
// version was read.
type LeaderboardCache interface {
	GetLeaderboard(ctx context.Context) ([]models.LeaderboardRow, bool, error)
	LeaderboardVersion(ctx context.Context) (int64, error)
	SetLeaderboard(ctx context.Context, version int64, rows []models.LeaderboardRow) (bool, error)
	InvalidateLeaderboard(ctx context.Context) error
}

// Options configures a Service
type Options struct {
	Cache       LeaderboardCache
	Concurrency int // RecalculateAll workers
	Now         func() time.Time
}

// Service owns the only write path for UserStats
type Service struct {
	store       models.StatsStore
	cache       LeaderboardCache
	locks       *userLocks
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewService creates a stats service over store
func NewService(store models.StatsStore, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:       store,
		cache:       opts.Cache,
		locks:       newUserLocks(),
		concurrency: opts.Concurrency,
		now:         opts.Now,
		logger:      log.With().Str("component", "stats").Logger(),
	}
}

// Recalculate recomputes a user's stats from their current predictions and
// upserts the result. An empty user id is a no-op.
func (s *Service) Recalculate(ctx context.Context, userID string) (*models.UserStats, error) {
	if userID == "" {
		return nil, nil
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	predictions, err := s.store.ListUserPredictions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading predictions for %s: %w", ErrStatsUnavailable, userID, err)
	}

	computed := ComputeStats(userID, predictions, s.now())

	saved, err := s.store.UpsertUserStats(ctx, computed)
	if err != nil {
		return nil, fmt.Errorf("%w: saving stats for %s: %w", ErrStatsUnavailable, userID, err)
	}

	s.invalidate(ctx)

	s.logger.Debug().
		Str("user_id", userID).
		Int("total", saved.TotalPredictions).
		Float64("accuracy", saved.Accuracy).
		Float64("brier", saved.BrierScore).
		Msg("Recalculated user stats")
	return saved, nil
}

// RecalculateAll recomputes stats for every user that owns a prediction
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	userIDs, err := s.store.UsersWithPredictions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: listing users: %w", ErrStatsUnavailable, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			_, err := s.Recalculate(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.logger.Info().Int("users", len(userIDs)).Msg("Recalculated stats for all users")
	return len(userIDs), nil
}

// UserStats returns the persisted stats, computing them on first access
func (s *Service) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	existing, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading stats for %s: %w", ErrStatsUnavailable, userID, err)
	}
	if existing != nil {
		return existing, nil
	}
	return s.Recalculate(ctx, userID)
}

// Trend returns a user's running accuracy series
func (s *Service) Trend(ctx context.Context, userID string, period models.Period, includeBrier bool) ([]models.TrendPoint, error) {
	predictions, err := s.store.ListUserPredictions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading predictions for %s: %w", ErrStatsUnavailable, userID, err)
	}
	return ComputeTrend(predictions, period, includeBrier, s.now()), nil
}

// Breakdown returns a user's accuracy per category and month
func (s *Service) Breakdown(ctx context.Context, userID string) (*models.Breakdown, error) {
	predictions, err := s.store.ListUserPredictions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading predictions for %s: %w", ErrStatsUnavailable, userID, err)
	}
	b := ComputeBreakdown(userID, predictions)
	return &b, nil
}

// Leaderboard returns every user with at least one prediction, ranked
func (s *Service) Leaderboard(ctx context.Context) ([]models.LeaderboardRow, error) {
	cacheable := false
	var version int64
	if s.cache != nil {
		rows, ok, err := s.cache.GetLeaderboard(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Leaderboard cache read failed")
		} else if ok {
			return rows, nil
		}

		version, err = s.cache.LeaderboardVersion(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Leaderboard cache version read failed")
		} else {
			cacheable = true
		}
	}

	rows, err := s.store.LeaderboardRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading leaderboard: %w", ErrStatsUnavailable, err)
	}
	ranked := RankLeaderboard(rows)

	if cacheable {
		stored, err := s.cache.SetLeaderboard(ctx, version, ranked)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Leaderboard cache write failed")
		} else if !stored {
			s.logger.Debug().Msg("Leaderboard changed while loading, not cached")
		}
	}
	return ranked, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLeaderboard(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Leaderboard cache invalidation failed")
	}
}

// userLocks serializes recomputes per user
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

func (l *userLocks) lock(userID string) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
