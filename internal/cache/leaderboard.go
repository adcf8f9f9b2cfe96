package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alias1177/Guessometer/models"
)

const (
	keyPrefix      = "leaderboard:"
	leaderboardKey = keyPrefix + "all"
	// outside keyPrefix so invalidation never deletes it
	versionKey = "leaderboard_version"
)

// Options holds Redis connection settings
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Leaderboard caches the ranked leaderboard in Redis
type Leaderboard struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect opens a Redis client and verifies it with a ping
func Connect(ctx context.Context, opts Options) (*Leaderboard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return New(rdb, opts.TTL), nil
}

// New wraps an existing client
func New(rdb *redis.Client, ttl time.Duration) *Leaderboard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Leaderboard{rdb: rdb, ttl: ttl}
}

// GetLeaderboard returns the cached rows; ok is false on a miss
func (c *Leaderboard) GetLeaderboard(ctx context.Context) ([]models.LeaderboardRow, bool, error) {
	val, err := c.rdb.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rows []models.LeaderboardRow
	if err := json.Unmarshal(val, &rows); err != nil {
		return nil, false, fmt.Errorf("decoding cached leaderboard: %w", err)
	}
	return rows, true, nil
}

// LeaderboardVersion returns the invalidation counter. Read it before loading
// the rows that will be passed to SetLeaderboard.
func (c *Leaderboard) LeaderboardVersion(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetLeaderboard stores rows until the TTL expires or the next invalidation.
// Nothing is written when an invalidation happened after version was read.
func (c *Leaderboard) SetLeaderboard(ctx context.Context, version int64, rows []models.LeaderboardRow) (bool, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, leaderboardKey, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// InvalidateLeaderboard bumps the version and drops every leaderboard key
func (c *Leaderboard) InvalidateLeaderboard(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		return err
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the Redis client
func (c *Leaderboard) Close() error {
	return c.rdb.Close()
}
