package recordsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/Guessometer/internal/api/airtable"
	"github.com/Alias1177/Guessometer/models"
)

const importedCategoryColor = "#666666"

// Source lists the records of the external service
type Source interface {
	ListRecords(ctx context.Context) ([]airtable.Record, error)
}

// ImportStore is what the importer writes to
type ImportStore interface {
	PredictionByAirtableID(ctx context.Context, airtableID string) (*models.Prediction, error)
	CreatePrediction(ctx context.Context, p models.Prediction) (*models.Prediction, error)
	CreateCategory(ctx context.Context, name string, color *string) (*models.Category, error)
}

// Recalculator recomputes a user's stats
type Recalculator interface {
	Recalculate(ctx context.Context, userID string) (*models.UserStats, error)
}

// ImportResult summarizes an import run
type ImportResult struct {
	Fetched    int `json:"fetched"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Categories int `json:"categories"`
	Users      int `json:"users"`
}

// Importer pulls records from the external service into the local store
type Importer struct {
	source      Source
	store       ImportStore
	stats       Recalculator
	concurrency int
	logger      zerolog.Logger
}

// NewImporter creates an importer. concurrency bounds the stats recomputes.
func NewImporter(source Source, store ImportStore, stats Recalculator, concurrency int) *Importer {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Importer{
		source:      source,
		store:       store,
		stats:       stats,
		concurrency: concurrency,
		logger:      log.With().Str("component", "importer").Logger(),
	}
}

// Import creates a local prediction for every record not yet linked, registers
// the categories seen and recalculates stats for the owners of new predictions.
func (im *Importer) Import(ctx context.Context) (ImportResult, error) {
	var result ImportResult

	records, err := im.source.ListRecords(ctx)
	if err != nil {
		return result, fmt.Errorf("fetching records: %w", err)
	}
	result.Fetched = len(records)

	users := make(map[string]struct{})
	categories := make(map[string]struct{})

	for _, rec := range records {
		p := rec.Prediction()
		categories[p.Category] = struct{}{}

		existing, err := im.store.PredictionByAirtableID(ctx, rec.ID)
		if err != nil {
			return result, fmt.Errorf("looking up record %s: %w", rec.ID, err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		if _, err := im.store.CreatePrediction(ctx, p); err != nil {
			return result, fmt.Errorf("importing record %s: %w", rec.ID, err)
		}
		result.Created++
		if owner := p.Owner(); owner != "" {
			users[owner] = struct{}{}
		}
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	color := importedCategoryColor
	for _, name := range names {
		if _, err := im.store.CreateCategory(ctx, name, &color); err != nil {
			return result, fmt.Errorf("importing category %s: %w", name, err)
		}
		result.Categories++
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for userID := range users {
		userID := userID
		g.Go(func() error {
			_, err := im.stats.Recalculate(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("recalculating stats: %w", err)
	}
	result.Users = len(users)

	im.logger.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("users", result.Users).
		Msg("Import finished")

	return result, nil
}
