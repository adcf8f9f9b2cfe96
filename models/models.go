package models

import (
	"time"
)

// Outcome is the resolution state of a prediction
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// ParseOutcome maps a stored outcome string to an Outcome.
// Empty or unknown values are pending.
func ParseOutcome(raw string) Outcome {
	switch Outcome(raw) {
	case OutcomeCorrect:
		return OutcomeCorrect
	case OutcomeIncorrect:
		return OutcomeIncorrect
	default:
		return OutcomePending
	}
}

// Valid reports whether o is one of the three known states
func (o Outcome) Valid() bool {
	return o == OutcomePending || o == OutcomeCorrect || o == OutcomeIncorrect
}

// Resolved reports whether o is correct or incorrect
func (o Outcome) Resolved() bool {
	return o == OutcomeCorrect || o == OutcomeIncorrect
}

// CanTransition reports whether an outcome may move from one state to another.
// Resolved predictions go back through pending before they can flip.
func CanTransition(from, to Outcome) bool {
	from, to = ParseOutcome(string(from)), ParseOutcome(string(to))
	if from == to {
		return true
	}
	return from == OutcomePending || to == OutcomePending
}

// User is an authenticated account
type User struct {
	ID              string    `json:"id" db:"id"`
	Email           *string   `json:"email,omitempty" db:"email"`
	DisplayName     *string   `json:"display_name,omitempty" db:"display_name"`
	FirstName       *string   `json:"first_name,omitempty" db:"first_name"`
	LastName        *string   `json:"last_name,omitempty" db:"last_name"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty" db:"profile_image_url"`
	Provider        string    `json:"provider" db:"provider"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Name returns the display name, falling back to the email
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	if u.Email != nil {
		return *u.Email
	}
	return u.ID
}

// Prediction is a single forecast made by a user
type Prediction struct {
	ID              string    `json:"id" db:"id"`
	AirtableID      *string   `json:"airtable_id,omitempty" db:"airtable_id"`
	UserID          *string   `json:"user_id,omitempty" db:"user_id"`
	PredictionText  string    `json:"prediction_text" db:"prediction_text"`
	Description     *string   `json:"description,omitempty" db:"description"`
	Category        string    `json:"category" db:"category"`
	ConfidenceLevel int       `json:"confidence_level" db:"confidence_level"` // percent, 0-100
	TargetDate      time.Time `json:"target_date" db:"target_date"`
	PredictionDate  time.Time `json:"prediction_date" db:"prediction_date"`
	Outcome         Outcome   `json:"outcome" db:"outcome"`
	IsPublic        bool      `json:"is_public" db:"is_public"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	UserDisplayName *string `json:"user_display_name,omitempty" db:"user_display_name"`
}

// Owner returns the owning user id, or "" for orphaned records
func (p Prediction) Owner() string {
	if p.UserID == nil {
		return ""
	}
	return *p.UserID
}

// PredictionUpdate carries the mutable fields of a prediction; nil fields are left untouched
type PredictionUpdate struct {
	PredictionText  *string    `json:"prediction_text,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Category        *string    `json:"category,omitempty"`
	ConfidenceLevel *int       `json:"confidence_level,omitempty"`
	TargetDate      *time.Time `json:"target_date,omitempty"`
	Outcome         *Outcome   `json:"outcome,omitempty"`
	IsPublic        *bool      `json:"is_public,omitempty"`
}

// UserStats is the derived per-user aggregate. It is always recomputed from the
// user's public predictions, never patched.
type UserStats struct {
	UserID               string    `json:"user_id" db:"user_id"`
	TotalPredictions     int       `json:"total_predictions" db:"total_predictions"`
	CorrectPredictions   int       `json:"correct_predictions" db:"correct_predictions"`
	IncorrectPredictions int       `json:"incorrect_predictions" db:"incorrect_predictions"`
	PendingPredictions   int       `json:"pending_predictions" db:"pending_predictions"`
	Accuracy             float64   `json:"accuracy" db:"accuracy"`       // percent, 2 dp
	BrierScore           float64   `json:"brier_score" db:"brier_score"` // 0..1, 4 dp
	LastCalculated       time.Time `json:"last_calculated" db:"last_calculated"`
}

// TrendPoint is one day of a running accuracy series
type TrendPoint struct {
	Date       string   `json:"date"`
	Accuracy   float64  `json:"accuracy"`
	Confidence float64  `json:"confidence"`
	BrierScore *float64 `json:"brierScore,omitempty"`
}

// LeaderboardRow joins a user with their stats
type LeaderboardRow struct {
	Rank  int       `json:"rank"`
	User  User      `json:"user"`
	Stats UserStats `json:"stats"`
}

// Like is a thumbs up on a prediction
type Like struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	PredictionID string    `json:"prediction_id" db:"prediction_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// LikeState is the result of toggling a like
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Comment is a user comment on a prediction
type Comment struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	PredictionID    string    `json:"prediction_id" db:"prediction_id"`
	Content         string    `json:"content" db:"content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
	UserDisplayName *string   `json:"user_display_name,omitempty" db:"user_display_name"`
}

// Category groups predictions by topic
type Category struct {
	ID         string    `json:"id" db:"id"`
	AirtableID *string   `json:"airtable_id,omitempty" db:"airtable_id"`
	Name       string    `json:"name" db:"name"`
	Color      *string   `json:"color,omitempty" db:"color"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// GroupStats is accuracy over one slice of a user's resolved predictions
type GroupStats struct {
	Key        string  `json:"key"`
	Resolved   int     `json:"resolved"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
	BrierScore float64 `json:"brier_score"`
}

// Breakdown splits a user's resolved public predictions by category and month
type Breakdown struct {
	UserID        string       `json:"user_id"`
	Categories    []GroupStats `json:"categories"`
	Months        []GroupStats `json:"months"`
	LongestStreak int          `json:"longest_streak"`
	CurrentStreak int          `json:"current_streak"` // negative for a run of misses
}
