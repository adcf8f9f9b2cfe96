package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Alias1177/Guessometer/models"
)

const userColumns = `id, email, display_name, first_name, last_name, profile_image_url, provider, created_at, updated_at`

// UpsertUser creates or refreshes a user from the identity provider.
// A display name the user chose is never overwritten.
func (db *DB) UpsertUser(ctx context.Context, u models.User) (*models.User, error) {
	if u.Provider == "" {
		u.Provider = "google"
	}

	var saved models.User
	err := db.QueryRowxContext(ctx, `
		INSERT INTO users (id, email, display_name, first_name, last_name, profile_image_url, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			display_name = COALESCE(users.display_name, EXCLUDED.display_name),
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = NOW()
		RETURNING `+userColumns,
		u.ID, u.Email, u.DisplayName, u.FirstName, u.LastName, u.ProfileImageURL, u.Provider,
	).StructScan(&saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetUser retrieves a user by id; nil when it does not exist
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by display name
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY display_name`); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateDisplayName sets a user's display name
func (db *DB) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.User, error) {
	var u models.User
	err := db.QueryRowxContext(ctx, `
		UPDATE users
		SET display_name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns,
		displayName, userID,
	).StructScan(&u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
