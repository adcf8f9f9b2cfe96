package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/Guessometer/models"
)

const statsColumns = `
	user_id, total_predictions, correct_predictions, incorrect_predictions,
	pending_predictions, accuracy, brier_score, last_calculated`

// UpsertUserStats inserts or replaces a user's aggregate row
func (db *DB) UpsertUserStats(ctx context.Context, s models.UserStats) (*models.UserStats, error) {
	var saved models.UserStats
	err := db.QueryRowxContext(ctx, `
		INSERT INTO user_stats (`+statsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			total_predictions = EXCLUDED.total_predictions,
			correct_predictions = EXCLUDED.correct_predictions,
			incorrect_predictions = EXCLUDED.incorrect_predictions,
			pending_predictions = EXCLUDED.pending_predictions,
			accuracy = EXCLUDED.accuracy,
			brier_score = EXCLUDED.brier_score,
			last_calculated = EXCLUDED.last_calculated
		RETURNING `+statsColumns,
		s.UserID, s.TotalPredictions, s.CorrectPredictions, s.IncorrectPredictions,
		s.PendingPredictions,
		decimal.NewFromFloat(s.Accuracy).StringFixed(2),
		decimal.NewFromFloat(s.BrierScore).StringFixed(4),
		s.LastCalculated,
	).StructScan(&saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetUserStats retrieves a user's aggregate; nil when never calculated
func (db *DB) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var s models.UserStats
	err := db.GetContext(ctx, &s, `SELECT `+statsColumns+` FROM user_stats WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

type leaderboardRecord struct {
	models.UserStats
	Email       *string      `db:"email"`
	DisplayName *string      `db:"display_name"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

// LeaderboardRows joins every user that has predictions with their stats
func (db *DB) LeaderboardRows(ctx context.Context) ([]models.LeaderboardRow, error) {
	var records []leaderboardRecord
	err := db.SelectContext(ctx, &records, `
		SELECT
			s.user_id, s.total_predictions, s.correct_predictions, s.incorrect_predictions,
			s.pending_predictions, s.accuracy, s.brier_score, s.last_calculated,
			u.email, u.display_name, u.created_at
		FROM user_stats s
		INNER JOIN users u ON u.id = s.user_id
		WHERE s.total_predictions > 0
		ORDER BY s.accuracy DESC, s.total_predictions DESC
	`)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LeaderboardRow, 0, len(records))
	for _, r := range records {
		user := models.User{
			ID:          r.UserID,
			Email:       r.Email,
			DisplayName: r.DisplayName,
		}
		if r.CreatedAt.Valid {
			user.CreatedAt = r.CreatedAt.Time
		}
		rows = append(rows, models.LeaderboardRow{User: user, Stats: r.UserStats})
	}
	return rows, nil
}
