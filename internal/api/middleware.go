package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/sofrim/sofrim-server/internal/auth"
	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

// Session is the identity triple supplied with every authenticated call.
// Handlers trust it; authentication happened in the middleware.
type Session struct {
	UserID string
	Name   string
	Role   string
}

// WithSession returns a context carrying the session. Exported for tests that
// drive handlers without the middleware.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession extracts the caller identity from the request context.
func GetSession(r *http.Request) (Session, bool) {
	s, ok := r.Context().Value(sessionKey).(Session)
	return s, ok
}

type Middleware struct {
	DB *db.DB
}

// Auth validates the bearer token and re-checks that the user still exists,
// which covers tokens outliving a deleted account or a wiped database.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			JSONError(w, msgUnauthorized, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			JSONError(w, msgUnauthorized, http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			JSONError(w, msgUnauthorized, http.StatusUnauthorized)
			return
		}

		exists, err := m.DB.UserExists(claims.UserID)
		if err != nil {
			log.Printf("auth middleware: checking user %s: %v", claims.UserID, err)
			JSONError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		if !exists {
			JSONError(w, msgUnauthorized, http.StatusUnauthorized)
			return
		}

		ctx := WithSession(r.Context(), Session{
			UserID: claims.UserID,
			Name:   claims.Name,
			Role:   claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Admin is Auth plus a role gate.
func (m *Middleware) Admin(next http.Handler) http.Handler {
	return m.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r)
		if !ok || sess.Role != model.RoleAdmin {
			JSONError(w, msgForbidden, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
