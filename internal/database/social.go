package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alias1177/Guessometer/models"
)

// ToggleLike adds the user's like, or removes it when already present
func (db *DB) ToggleLike(ctx context.Context, userID, predictionID string) (models.LikeState, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM likes WHERE user_id = $1 AND prediction_id = $2
	`, userID, predictionID)
	if err != nil {
		return models.LikeState{}, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return models.LikeState{}, err
	}

	liked := removed == 0
	if liked {
		_, err = db.ExecContext(ctx, `
			INSERT INTO likes (id, user_id, prediction_id, created_at)
			VALUES ($1, $2, $3, NOW())
		`, uuid.NewString(), userID, predictionID)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation: a concurrent like won
			err = nil
		}
		if err != nil {
			return models.LikeState{}, err
		}
	}

	count, err := db.LikeCount(ctx, predictionID)
	if err != nil {
		return models.LikeState{}, err
	}
	return models.LikeState{Liked: liked, Count: count}, nil
}

// LikeCount returns the number of likes on a prediction
func (db *DB) LikeCount(ctx context.Context, predictionID string) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM likes WHERE prediction_id = $1`, predictionID)
	return n, err
}

// HasLiked reports whether the user liked the prediction
func (db *DB) HasLiked(ctx context.Context, userID, predictionID string) (bool, error) {
	var exists bool
	err := db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND prediction_id = $2)
	`, userID, predictionID)
	return exists, err
}

// AddComment stores a comment
func (db *DB) AddComment(ctx context.Context, userID, predictionID, content string) (*models.Comment, error) {
	now := time.Now().UTC()
	c := models.Comment{
		ID:           uuid.NewString(),
		UserID:       userID,
		PredictionID: predictionID,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO comments (id, user_id, prediction_id, content, created_at, updated_at)
		VALUES (:id, :user_id, :prediction_id, :content, :created_at, :updated_at)
	`, c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComments returns a prediction's comments, newest first
func (db *DB) ListComments(ctx context.Context, predictionID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := db.SelectContext(ctx, &comments, `
		SELECT c.id, c.user_id, c.prediction_id, c.content, c.created_at, c.updated_at,
			u.display_name AS user_display_name
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.prediction_id = $1
		ORDER BY c.created_at DESC
	`, predictionID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CommentCount returns the number of comments on a prediction
func (db *DB) CommentCount(ctx context.Context, predictionID string) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM comments WHERE prediction_id = $1`, predictionID)
	return n, err
}

// DeleteComment removes a comment, reporting whether it existed
func (db *DB) DeleteComment(ctx context.Context, commentID string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListCategories returns all categories by name
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := db.SelectContext(ctx, &categories, `
		SELECT id, airtable_id, name, color, created_at FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory inserts a category; an existing name is returned unchanged
func (db *DB) CreateCategory(ctx context.Context, name string, color *string) (*models.Category, error) {
	var c models.Category
	err := db.QueryRowxContext(ctx, `
		INSERT INTO categories (id, name, color, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, airtable_id, name, color, created_at
	`, uuid.NewString(), name, color).StructScan(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
