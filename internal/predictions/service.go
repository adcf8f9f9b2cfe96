package predictions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/database"
	"github.com/Alias1177/Guessometer/models"
)

var (
	// ErrNotFound is returned when the prediction or comment does not exist
	ErrNotFound = errors.New("prediction not found")
	// ErrForbidden is returned when a user mutates someone else's prediction
	ErrForbidden = errors.New("prediction belongs to another user")
	// ErrInvalidTransition is returned when a resolved outcome is flipped without going back to pending
	ErrInvalidTransition = errors.New("invalid outcome transition")
	// ErrInvalidInput is returned for values outside the accepted range
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the persistence the service needs
type Store interface {
	models.PredictionStore
	models.SocialStore
}

// Recalculator recomputes a user's stats
type Recalculator interface {
	Recalculate(ctx context.Context, userID string) (*models.UserStats, error)
}

// Service runs the prediction lifecycle. Every committed mutation with an
// owner triggers a stats recompute, then a background sync.
type Service struct {
	store  Store
	stats  Recalculator
	syncer models.RecordSyncer
	logger zerolog.Logger
}

type noopSyncer struct{}

func (noopSyncer) PredictionCreated(models.Prediction)                          {}
func (noopSyncer) PredictionUpdated(models.Prediction, models.PredictionUpdate) {}
func (noopSyncer) PredictionDeleted(models.Prediction)                          {}

// NewService creates a prediction service; syncer may be nil
func NewService(store Store, stats Recalculator, syncer models.RecordSyncer) *Service {
	if syncer == nil {
		syncer = noopSyncer{}
	}
	return &Service{
		store:  store,
		stats:  stats,
		syncer: syncer,
		logger: log.With().Str("component", "predictions").Logger(),
	}
}

// Get returns a prediction by id
func (s *Service) Get(ctx context.Context, id string) (*models.Prediction, error) {
	p, err := s.store.GetPrediction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting prediction %s: %w", id, err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListPublic pages through public predictions, newest first
func (s *Service) ListPublic(ctx context.Context, limit, offset int) ([]models.Prediction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListPublicPredictions(ctx, limit, offset)
}

// ListForUser returns all of a user's predictions including private ones
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Prediction, error) {
	return s.store.ListUserPredictions(ctx, userID)
}

// Create stores a new prediction owned by userID
func (s *Service) Create(ctx context.Context, userID string, p models.Prediction) (*models.Prediction, error) {
	p.PredictionText = strings.TrimSpace(p.PredictionText)
	if p.PredictionText == "" {
		return nil, fmt.Errorf("%w: prediction text is required", ErrInvalidInput)
	}
	if err := checkConfidence(p.ConfidenceLevel); err != nil {
		return nil, err
	}
	if p.Category == "" {
		p.Category = "general"
	}

	p.ID = ""
	p.AirtableID = nil
	p.UserID = &userID
	p.Outcome = models.ParseOutcome(string(p.Outcome))

	created, err := s.store.CreatePrediction(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("creating prediction: %w", err)
	}

	s.logger.Info().Str("prediction_id", created.ID).Str("user_id", userID).Msg("Prediction created")
	s.syncer.PredictionCreated(*created)
	return created, s.recalculate(ctx, created.Owner())
}

// Update applies an owner's changes to their prediction
func (s *Service) Update(ctx context.Context, userID, id string, upd models.PredictionUpdate) (*models.Prediction, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Owner() != userID {
		return nil, ErrForbidden
	}
	if upd.Outcome != nil && !models.CanTransition(current.Outcome, *upd.Outcome) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Outcome, *upd.Outcome)
	}
	return s.update(ctx, id, upd)
}

// AdminUpdate applies changes to any prediction. Outcome transitions are not restricted.
func (s *Service) AdminUpdate(ctx context.Context, id string, upd models.PredictionUpdate) (*models.Prediction, error) {
	return s.update(ctx, id, upd)
}

func (s *Service) update(ctx context.Context, id string, upd models.PredictionUpdate) (*models.Prediction, error) {
	if upd.ConfidenceLevel != nil {
		if err := checkConfidence(*upd.ConfidenceLevel); err != nil {
			return nil, err
		}
	}
	if upd.Outcome != nil && !upd.Outcome.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, *upd.Outcome)
	}

	updated, err := s.store.UpdatePrediction(ctx, id, upd)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating prediction %s: %w", id, err)
	}

	s.syncer.PredictionUpdated(*updated, upd)
	return updated, s.recalculate(ctx, updated.Owner())
}

// Delete removes an owner's prediction with its likes and comments
func (s *Service) Delete(ctx context.Context, userID, id string) (*models.Prediction, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Owner() != userID {
		return nil, ErrForbidden
	}

	deleted, err := s.store.DeletePrediction(ctx, id, userID)
	return s.afterDelete(ctx, id, deleted, err)
}

// AdminDelete removes any prediction with its likes and comments
func (s *Service) AdminDelete(ctx context.Context, id string) (*models.Prediction, error) {
	deleted, err := s.store.AdminDeletePrediction(ctx, id)
	return s.afterDelete(ctx, id, deleted, err)
}

func (s *Service) afterDelete(ctx context.Context, id string, deleted *models.Prediction, err error) (*models.Prediction, error) {
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("deleting prediction %s: %w", id, err)
	}

	s.logger.Info().Str("prediction_id", id).Msg("Prediction deleted")
	s.syncer.PredictionDeleted(*deleted)
	return deleted, s.recalculate(ctx, deleted.Owner())
}

// ToggleLike likes or unlikes a prediction for userID
func (s *Service) ToggleLike(ctx context.Context, userID, predictionID string) (models.LikeState, error) {
	if _, err := s.Get(ctx, predictionID); err != nil {
		return models.LikeState{}, err
	}
	state, err := s.store.ToggleLike(ctx, userID, predictionID)
	if err != nil {
		return models.LikeState{}, fmt.Errorf("toggling like: %w", err)
	}
	return state, nil
}

// Likes returns the like count and whether userID liked the prediction
func (s *Service) Likes(ctx context.Context, userID, predictionID string) (models.LikeState, error) {
	count, err := s.store.LikeCount(ctx, predictionID)
	if err != nil {
		return models.LikeState{}, fmt.Errorf("counting likes: %w", err)
	}
	state := models.LikeState{Count: count}
	if userID != "" {
		if state.Liked, err = s.store.HasLiked(ctx, userID, predictionID); err != nil {
			return models.LikeState{}, fmt.Errorf("checking like: %w", err)
		}
	}
	return state, nil
}

// AddComment attaches a comment to a prediction
func (s *Service) AddComment(ctx context.Context, userID, predictionID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}
	if _, err := s.Get(ctx, predictionID); err != nil {
		return nil, err
	}
	c, err := s.store.AddComment(ctx, userID, predictionID, content)
	if err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}
	return c, nil
}

// Comments lists a prediction's comments, newest first
func (s *Service) Comments(ctx context.Context, predictionID string) ([]models.Comment, error) {
	return s.store.ListComments(ctx, predictionID)
}

// CommentCount returns the number of comments on a prediction
func (s *Service) CommentCount(ctx context.Context, predictionID string) (int, error) {
	return s.store.CommentCount(ctx, predictionID)
}

// AdminDeleteComment removes any comment
func (s *Service) AdminDeleteComment(ctx context.Context, commentID string) error {
	ok, err := s.store.DeleteComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("deleting comment %s: %w", commentID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// recalculate refreshes the owner's stats. The mutation is already committed,
// so the error is logged and handed back for the caller to report as a warning.
func (s *Service) recalculate(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if _, err := s.stats.Recalculate(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to recalculate stats")
		return err
	}
	return nil
}

func checkConfidence(c int) error {
	if c < 0 || c > 100 {
		return fmt.Errorf("%w: confidence %d outside 0-100", ErrInvalidInput, c)
	}
	return nil
}
