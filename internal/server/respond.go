package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Alias1177/Guessometer/internal/database"
	"github.com/Alias1177/Guessometer/internal/predictions"
	"github.com/Alias1177/Guessometer/internal/stats"
)

// HeaderStatsWarning is set when a mutation committed but the stats recompute failed
const HeaderStatsWarning = "X-Stats-Warning"

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decode reads a JSON body into v and validates it
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage reports the first failed field
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Invalid input data"
	}
	e := ve[0]
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", field, e.Tag(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// writeServiceError maps service errors to status codes
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, predictions.ErrNotFound), errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, predictions.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, predictions.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, predictions.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stats.ErrStatsUnavailable):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg(action)
		writeError(w, http.StatusServiceUnavailable, "Stats are temporarily unavailable")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg(action)
		writeError(w, http.StatusInternalServerError, action)
	}
}

// writeMutation writes a committed record. err is non-nil only when the stats
// recompute failed after commit; it is reported as a warning header.
func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, status int, v interface{}, err error) {
	if err != nil {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Mutation committed without stats refresh")
		w.Header().Set(HeaderStatsWarning, "stats recalculation failed")
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, v)
}
