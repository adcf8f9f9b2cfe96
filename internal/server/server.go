package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/recordsync"
	"github.com/Alias1177/Guessometer/models"
)

// PredictionService is the prediction lifecycle used by the handlers
type PredictionService interface {
	Get(ctx context.Context, id string) (*models.Prediction, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Prediction, error)
	ListForUser(ctx context.Context, userID string) ([]models.Prediction, error)
	Create(ctx context.Context, userID string, p models.Prediction) (*models.Prediction, error)
	Update(ctx context.Context, userID, id string, upd models.PredictionUpdate) (*models.Prediction, error)
	AdminUpdate(ctx context.Context, id string, upd models.PredictionUpdate) (*models.Prediction, error)
	Delete(ctx context.Context, userID, id string) (*models.Prediction, error)
	AdminDelete(ctx context.Context, id string) (*models.Prediction, error)
	ToggleLike(ctx context.Context, userID, predictionID string) (models.LikeState, error)
	Likes(ctx context.Context, userID, predictionID string) (models.LikeState, error)
	AddComment(ctx context.Context, userID, predictionID, content string) (*models.Comment, error)
	Comments(ctx context.Context, predictionID string) ([]models.Comment, error)
	CommentCount(ctx context.Context, predictionID string) (int, error)
	AdminDeleteComment(ctx context.Context, commentID string) error
}

// StatsService serves the derived stats
type StatsService interface {
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
	Recalculate(ctx context.Context, userID string) (*models.UserStats, error)
	RecalculateAll(ctx context.Context) (int, error)
	Trend(ctx context.Context, userID string, period models.Period, includeBrier bool) ([]models.TrendPoint, error)
	Breakdown(ctx context.Context, userID string) (*models.Breakdown, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardRow, error)
}

// UserStore manages accounts
type UserStore interface {
	UpsertUser(ctx context.Context, u models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.User, error)
}

// CategoryStore manages categories
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string, color *string) (*models.Category, error)
}

// Importer pulls predictions from the record service
type Importer interface {
	Import(ctx context.Context) (recordsync.ImportResult, error)
}

// Deps are the collaborators of the HTTP server. Importer may be nil.
type Deps struct {
	Predictions  PredictionService
	Stats        StatsService
	Users        UserStore
	Categories   CategoryStore
	Importer     Importer
	Auth         Authenticator
	AdminKeyHash string
	Timeout      time.Duration
}

// Server is the HTTP API
type Server struct {
	deps     Deps
	router   *chi.Mux
	validate *validator.Validate
	logger   zerolog.Logger

	knownUsers sync.Map
	httpServer *http.Server
}

// New creates the server and its routes
func New(deps Deps) *Server {
	if deps.Auth == nil {
		deps.Auth = HeaderAuthenticator{}
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 30 * time.Second
	}

	s := &Server{
		deps:     deps,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.With().Str("component", "http").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.deps.Timeout))
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/categories", s.handleListCategories)
		r.Get("/predictions", s.handleListPublic)
		r.With(s.optionalUser).Get("/predictions/{id}/likes", s.handleLikes)
		r.Get("/predictions/{id}/comments", s.handleComments)
		r.Get("/predictions/{id}/comments/count", s.handleCommentCount)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/auth/user", s.handleCurrentUser)
			r.Get("/user/stats", s.handleUserStats)
			r.Get("/user/accuracy-trend", s.handleTrend)
			r.Get("/user/breakdown", s.handleBreakdown)
			r.Put("/user/display-name", s.handleDisplayName)
			r.Post("/user/recalculate-stats", s.handleRecalculate)
			r.Get("/user/predictions", s.handleUserPredictions)

			r.Post("/predictions", s.handleCreatePrediction)
			r.Patch("/predictions/{id}", s.handleUpdatePrediction)
			r.Delete("/predictions/{id}", s.handleDeletePrediction)
			r.Post("/predictions/{id}/like", s.handleToggleLike)
			r.Post("/predictions/{id}/comments", s.handleAddComment)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/check", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": true})
			})
			r.Get("/users", s.handleAdminUsers)
			r.Patch("/users/{userID}/display-name", s.handleAdminDisplayName)
			r.Patch("/predictions/{id}", s.handleAdminUpdatePrediction)
			r.Delete("/predictions/{id}", s.handleAdminDeletePrediction)
			r.Delete("/comments/{id}", s.handleAdminDeleteComment)
			r.Post("/categories", s.handleCreateCategory)
			r.Post("/recalculate-all", s.handleRecalculateAll)
			r.Post("/sync/predictions", s.handleImport)
		})
	})
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request")
	})
}
