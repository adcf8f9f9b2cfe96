package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Alias1177/Guessometer/models"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Stats.Leaderboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.UserStats(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch user stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := models.ParsePeriod(q.Get("period"))
	includeBrier := q.Get("includeBrierScore") == "true"

	trend, err := s.deps.Stats.Trend(r.Context(), UserID(r.Context()), period, includeBrier)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch accuracy trend")
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Stats.Breakdown(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch breakdown")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.Recalculate(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to recalculate stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Users.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch user")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDisplayName(w http.ResponseWriter, r *http.Request) {
	s.updateDisplayName(w, r, UserID(r.Context()))
}

func (s *Server) handleAdminDisplayName(w http.ResponseWriter, r *http.Request) {
	s.updateDisplayName(w, r, chi.URLParam(r, "userID"))
}

func (s *Server) updateDisplayName(w http.ResponseWriter, r *http.Request, userID string) {
	var req displayNameRequest
	if !s.decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Display name is required")
		return
	}

	u, err := s.deps.Users.UpdateDisplayName(r.Context(), userID, name)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to update display name")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
}

func (s *Server) handleListPublic(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	preds, err := s.deps.Predictions.ListPublic(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch predictions")
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (s *Server) handleUserPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := s.deps.Predictions.ListForUser(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch predictions")
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (s *Server) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req createPredictionRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.deps.Predictions.Create(r.Context(), UserID(r.Context()), req.prediction())
	if p == nil {
		s.writeServiceError(w, r, err, "Failed to create prediction")
		return
	}
	s.writeMutation(w, r, http.StatusCreated, p, err)
}

func (s *Server) handleUpdatePrediction(w http.ResponseWriter, r *http.Request) {
	var req updatePredictionRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.deps.Predictions.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.update())
	if p == nil {
		s.writeServiceError(w, r, err, "Failed to update prediction")
		return
	}
	s.writeMutation(w, r, http.StatusOK, p, err)
}

func (s *Server) handleAdminUpdatePrediction(w http.ResponseWriter, r *http.Request) {
	var req updatePredictionRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.deps.Predictions.AdminUpdate(r.Context(), chi.URLParam(r, "id"), req.update())
	if p == nil {
		s.writeServiceError(w, r, err, "Failed to update prediction")
		return
	}
	s.writeMutation(w, r, http.StatusOK, p, err)
}

func (s *Server) handleDeletePrediction(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Predictions.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if p == nil {
		s.writeServiceError(w, r, err, "Failed to delete prediction")
		return
	}
	s.writeMutation(w, r, http.StatusNoContent, nil, err)
}

func (s *Server) handleAdminDeletePrediction(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Predictions.AdminDelete(r.Context(), chi.URLParam(r, "id"))
	if p == nil {
		s.writeServiceError(w, r, err, "Failed to delete prediction")
		return
	}
	s.writeMutation(w, r, http.StatusNoContent, nil, err)
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Predictions.ToggleLike(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to toggle like")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleLikes(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Predictions.Likes(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch likes")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.deps.Predictions.AddComment(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to add comment")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.deps.Predictions.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCommentCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Predictions.CommentCount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch comment count")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleAdminDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Predictions.AdminDeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.ListCategories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.deps.Categories.CreateCategory(r.Context(), strings.TrimSpace(req.Name), req.Color)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Stats.RecalculateAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to recalculate stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"users": n})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Importer == nil {
		writeError(w, http.StatusServiceUnavailable, "Airtable is not configured")
		return
	}

	result, err := s.deps.Importer.Import(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to import predictions")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
