package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Alias1177/Guessometer/models"
)

const predictionColumns = `
	p.id, p.airtable_id, p.user_id, p.prediction_text, p.description, p.category,
	p.confidence_level, p.target_date, p.prediction_date, p.outcome, p.is_public,
	p.created_at, p.updated_at`

const predictionSelect = `SELECT ` + predictionColumns + `, u.display_name AS user_display_name
	FROM predictions p
	LEFT JOIN users u ON u.id = p.user_id`

// GetPrediction retrieves a prediction by id; nil when it does not exist
func (db *DB) GetPrediction(ctx context.Context, id string) (*models.Prediction, error) {
	var p models.Prediction
	err := db.GetContext(ctx, &p, predictionSelect+` WHERE p.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// PredictionByAirtableID retrieves a prediction linked to an Airtable record
func (db *DB) PredictionByAirtableID(ctx context.Context, airtableID string) (*models.Prediction, error) {
	var p models.Prediction
	err := db.GetContext(ctx, &p, predictionSelect+` WHERE p.airtable_id = $1`, airtableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListUserPredictions returns all of a user's predictions, public and private, newest first
func (db *DB) ListUserPredictions(ctx context.Context, userID string) ([]models.Prediction, error) {
	preds := []models.Prediction{}
	err := db.SelectContext(ctx, &preds,
		predictionSelect+` WHERE p.user_id = $1 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// ListPublicPredictions returns the community feed, newest first
func (db *DB) ListPublicPredictions(ctx context.Context, limit, offset int) ([]models.Prediction, error) {
	preds := []models.Prediction{}
	err := db.SelectContext(ctx, &preds,
		predictionSelect+` WHERE p.is_public ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// CreatePrediction inserts a prediction. Id, outcome and timestamps are filled when empty.
func (db *DB) CreatePrediction(ctx context.Context, p models.Prediction) (*models.Prediction, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PredictionDate.IsZero() {
		p.PredictionDate = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Outcome = models.ParseOutcome(string(p.Outcome))

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO predictions (
			id, airtable_id, user_id, prediction_text, description, category,
			confidence_level, target_date, prediction_date, outcome, is_public,
			created_at, updated_at
		) VALUES (
			:id, :airtable_id, :user_id, :prediction_text, :description, :category,
			:confidence_level, :target_date, :prediction_date, :outcome, :is_public,
			:created_at, :updated_at
		)`, p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePrediction applies the non-nil fields of upd
func (db *DB) UpdatePrediction(ctx context.Context, id string, upd models.PredictionUpdate) (*models.Prediction, error) {
	var outcome *string
	if upd.Outcome != nil {
		o := string(models.ParseOutcome(string(*upd.Outcome)))
		outcome = &o
	}

	var p models.Prediction
	err := db.QueryRowxContext(ctx, `
		UPDATE predictions p SET
			prediction_text = COALESCE($2, p.prediction_text),
			description = COALESCE($3, p.description),
			category = COALESCE($4, p.category),
			confidence_level = COALESCE($5, p.confidence_level),
			target_date = COALESCE($6, p.target_date),
			outcome = COALESCE($7, p.outcome),
			is_public = COALESCE($8, p.is_public),
			updated_at = NOW()
		WHERE p.id = $1
		RETURNING `+predictionColumns,
		id, upd.PredictionText, upd.Description, upd.Category, upd.ConfidenceLevel,
		upd.TargetDate, outcome, upd.IsPublic,
	).StructScan(&p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SetAirtableID links a prediction to its Airtable record
func (db *DB) SetAirtableID(ctx context.Context, id, airtableID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE predictions
		SET airtable_id = $1, updated_at = NOW()
		WHERE id = $2
	`, airtableID, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// LinkedAirtableID returns the Airtable record id of a prediction, "" when it
// is unlinked or no longer exists
func (db *DB) LinkedAirtableID(ctx context.Context, id string) (string, error) {
	var airtableID sql.NullString
	err := db.GetContext(ctx, &airtableID, `SELECT airtable_id FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return airtableID.String, nil
}

// DeletePrediction removes an owner's prediction together with its likes and
// comments in one transaction
func (db *DB) DeletePrediction(ctx context.Context, id, ownerID string) (*models.Prediction, error) {
	return db.deletePrediction(ctx, id, &ownerID)
}

// AdminDeletePrediction removes any prediction together with its likes and comments
func (db *DB) AdminDeletePrediction(ctx context.Context, id string) (*models.Prediction, error) {
	return db.deletePrediction(ctx, id, nil)
}

func (db *DB) deletePrediction(ctx context.Context, id string, ownerID *string) (*models.Prediction, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	// No-op once committed
	defer tx.Rollback()

	p, err := lockPrediction(ctx, tx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE prediction_id = $1`, id); err != nil {
		return nil, fmt.Errorf("deleting likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE prediction_id = $1`, id); err != nil {
		return nil, fmt.Errorf("deleting comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM predictions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting prediction: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func lockPrediction(ctx context.Context, tx *sqlx.Tx, id string, ownerID *string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions p WHERE p.id = $1`
	args := []interface{}{id}
	if ownerID != nil {
		query += ` AND p.user_id = $2`
		args = append(args, *ownerID)
	}
	query += ` FOR UPDATE`

	var p models.Prediction
	if err := tx.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("locking prediction: %w", err)
	}
	return &p, nil
}

// UsersWithPredictions lists every user owning at least one prediction
func (db *DB) UsersWithPredictions(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := db.SelectContext(ctx, &ids, `
		SELECT DISTINCT user_id
		FROM predictions
		WHERE user_id IS NOT NULL
		ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
