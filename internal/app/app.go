package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/api/airtable"
	"github.com/Alias1177/Guessometer/internal/cache"
	"github.com/Alias1177/Guessometer/internal/config"
	"github.com/Alias1177/Guessometer/internal/database"
	"github.com/Alias1177/Guessometer/internal/predictions"
	"github.com/Alias1177/Guessometer/internal/recordsync"
	"github.com/Alias1177/Guessometer/internal/stats"
	"github.com/Alias1177/Guessometer/models"
)

// App holds the wired services shared by the binaries
type App struct {
	Config      *config.Config
	DB          *database.DB
	Cache       *cache.Leaderboard // nil without REDIS_ADDR
	Stats       *stats.Service
	Predictions *predictions.Service
	Airtable    *airtable.Client       // nil without Airtable credentials
	Sync        *recordsync.Dispatcher // nil without Airtable credentials
	Importer    *recordsync.Importer   // nil without Airtable credentials
}

// Open connects to the backing services and wires the domain services
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &App{Config: cfg, DB: db}

	statsOpts := stats.Options{Concurrency: cfg.StatsWorkers}
	if cfg.RedisAddr != "" {
		lb, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.LeaderboardCacheTTL,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Cache = lb
		statsOpts.Cache = lb
	} else {
		log.Warn().Msg("REDIS_ADDR not set, leaderboard cache disabled")
	}
	a.Stats = stats.NewService(db, statsOpts)

	var syncer models.RecordSyncer
	if cfg.AirtableEnabled() {
		a.Airtable = airtable.NewClient(airtable.ClientOptions{
			BaseID:         cfg.AirtableBaseID,
			Token:          cfg.AirtableToken,
			Production:     cfg.Production(),
			RequestTimeout: cfg.Timeout(),
			RequestsPerSec: cfg.AirtableRPS,
		})
		a.Sync = recordsync.NewDispatcher(a.Airtable, db, recordsync.Options{
			Workers:    cfg.SyncWorkers,
			QueueSize:  cfg.SyncQueueSize,
			JobTimeout: cfg.Timeout(),
		})
		a.Importer = recordsync.NewImporter(a.Airtable, db, a.Stats, cfg.StatsWorkers)
		syncer = a.Sync
		log.Info().Str("table", a.Airtable.Table()).Msg("Airtable sync enabled")
	} else {
		log.Warn().Msg("Airtable credentials not set, record sync disabled")
	}

	a.Predictions = predictions.NewService(db, a.Stats, syncer)
	return a, nil
}

// Close drains the sync queue and releases connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Sync != nil {
		if err := a.Sync.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("draining sync queue: %w", err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}
