package server

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Alias1177/Guessometer/models"
)

// Identity headers read by HeaderAuthenticator
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderAdminKey  = "X-Admin-Key"
)

// Authenticator resolves the caller of a request
type Authenticator interface {
	Authenticate(r *http.Request) (models.User, bool)
}

// HeaderAuthenticator trusts identity headers set by an upstream auth proxy
type HeaderAuthenticator struct{}

// Authenticate implements Authenticator
func (HeaderAuthenticator) Authenticate(r *http.Request) (models.User, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return models.User{}, false
	}
	u := models.User{ID: id, Provider: "proxy"}
	if email := strings.TrimSpace(r.Header.Get(HeaderUserEmail)); email != "" {
		u.Email = &email
	}
	return u, true
}

type ctxKey struct{}

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the authenticated user id, or "" for anonymous requests
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.deps.Auth.Authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := s.ensureUser(r.Context(), u); err != nil {
			s.logger.Error().Err(err).Str("user_id", u.ID).Msg("Failed to register user")
			writeError(w, http.StatusInternalServerError, "Failed to load user")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), u.ID)))
	})
}

func (s *Server) optionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := s.deps.Auth.Authenticate(r); ok {
			r = r.WithContext(withUserID(r.Context(), u.ID))
		}
		next.ServeHTTP(w, r)
	})
}

// ensureUser upserts an account the first time this process sees it
func (s *Server) ensureUser(ctx context.Context, u models.User) error {
	if _, seen := s.knownUsers.Load(u.ID); seen {
		return nil
	}
	if _, err := s.deps.Users.UpsertUser(ctx, u); err != nil {
		return err
	}
	s.knownUsers.Store(u.ID, struct{}{})
	return nil
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(HeaderAdminKey)
		if s.deps.AdminKeyHash == "" || key == "" {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.deps.AdminKeyHash), []byte(key)); err != nil {
			s.logger.Warn().Str("remote", r.RemoteAddr).Msg("Rejected admin key")
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
