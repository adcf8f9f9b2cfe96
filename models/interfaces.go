package models

import "context"

// PredictionReader is the read side of the prediction store used by the stats engine
type PredictionReader interface {
	ListUserPredictions(ctx context.Context, userID string) ([]Prediction, error)
}

// StatsStore persists the derived per-user aggregate
type StatsStore interface {
	PredictionReader
	UpsertUserStats(ctx context.Context, stats UserStats) (*UserStats, error)
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
	LeaderboardRows(ctx context.Context) ([]LeaderboardRow, error)
	UsersWithPredictions(ctx context.Context) ([]string, error)
}

// PredictionStore is the full prediction persistence contract
type PredictionStore interface {
	GetPrediction(ctx context.Context, id string) (*Prediction, error)
	ListUserPredictions(ctx context.Context, userID string) ([]Prediction, error)
	ListPublicPredictions(ctx context.Context, limit, offset int) ([]Prediction, error)
	CreatePrediction(ctx context.Context, p Prediction) (*Prediction, error)
	UpdatePrediction(ctx context.Context, id string, upd PredictionUpdate) (*Prediction, error)
	SetAirtableID(ctx context.Context, id, airtableID string) error
	DeletePrediction(ctx context.Context, id, ownerID string) (*Prediction, error)
	AdminDeletePrediction(ctx context.Context, id string) (*Prediction, error)
	PredictionByAirtableID(ctx context.Context, airtableID string) (*Prediction, error)
}

// SocialStore covers likes and comments
type SocialStore interface {
	ToggleLike(ctx context.Context, userID, predictionID string) (LikeState, error)
	LikeCount(ctx context.Context, predictionID string) (int, error)
	HasLiked(ctx context.Context, userID, predictionID string) (bool, error)
	AddComment(ctx context.Context, userID, predictionID, content string) (*Comment, error)
	ListComments(ctx context.Context, predictionID string) ([]Comment, error)
	CommentCount(ctx context.Context, predictionID string) (int, error)
	DeleteComment(ctx context.Context, commentID string) (bool, error)
}

// RecordSyncer mirrors prediction mutations to an external record service
type RecordSyncer interface {
	PredictionCreated(p Prediction)
	PredictionUpdated(p Prediction, upd PredictionUpdate)
	PredictionDeleted(p Prediction)
}
