package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrNotFound is returned by mutations that target a missing row
var ErrNotFound = errors.New("not found")

// DB represents a database connection
type DB struct {
	*sqlx.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection and bootstraps the schema
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sqlx.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db}, nil
}

// Wrap adopts an existing handle without touching the schema
func Wrap(db *sqlx.DB) *DB {
	return &DB{db}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		email VARCHAR UNIQUE,
		display_name VARCHAR,
		first_name VARCHAR,
		last_name VARCHAR,
		profile_image_url VARCHAR,
		provider VARCHAR NOT NULL DEFAULT 'google',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		id VARCHAR PRIMARY KEY,
		airtable_id VARCHAR UNIQUE,
		user_id VARCHAR REFERENCES users(id),
		prediction_text TEXT NOT NULL,
		description TEXT,
		category VARCHAR NOT NULL,
		confidence_level INTEGER NOT NULL,
		target_date TIMESTAMPTZ NOT NULL,
		prediction_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		outcome VARCHAR NOT NULL DEFAULT 'pending',
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id VARCHAR PRIMARY KEY,
		airtable_id VARCHAR UNIQUE,
		name VARCHAR NOT NULL UNIQUE,
		color VARCHAR,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id VARCHAR PRIMARY KEY REFERENCES users(id),
		total_predictions INTEGER NOT NULL DEFAULT 0,
		correct_predictions INTEGER NOT NULL DEFAULT 0,
		incorrect_predictions INTEGER NOT NULL DEFAULT 0,
		pending_predictions INTEGER NOT NULL DEFAULT 0,
		accuracy NUMERIC(5,2) NOT NULL DEFAULT 0,
		brier_score NUMERIC(5,4) NOT NULL DEFAULT 0,
		last_calculated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL REFERENCES users(id),
		prediction_id VARCHAR NOT NULL REFERENCES predictions(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, prediction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL REFERENCES users(id),
		prediction_id VARCHAR NOT NULL REFERENCES predictions(id),
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_prediction ON comments (prediction_id, created_at)`,
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
