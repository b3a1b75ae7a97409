package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/server/auth"
	"github.com/go-chi/chi/v5"
)

type ctxKey string

const userNameKey ctxKey = "userName"

func withPrincipal(ctx context.Context, userName string) context.Context {
	return context.WithValue(ctx, userNameKey, userName)
}

// principal returns the authenticated username stored by authenticate.
func principal(ctx context.Context) string {
	userName, _ := ctx.Value(userNameKey).(string)
	return userName
}

// authenticate requires a valid bearer token for an existing account and
// stores that account's current username in the request context. Tokens
// name the account by ID, so they follow renames and die with the account.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get(common.AuthorizationHeaderName), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			writeMessage(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		a, err := s.accounts.GetByID(r.Context(), userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), a.UserName)))
	})
}

// requireRole admits principals whose account currently holds role. Roles
// are read from the store, so a revoked role takes effect immediately.
func (s *HTTPServer) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := s.accounts.Get(r.Context(), principal(r.Context()))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if !a.HasRole(role) {
				s.writeError(w, r, common.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireOwnership answers 404 for entries the principal does not own,
// whether or not they exist.
func (s *HTTPServer) requireOwnership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owned, err := s.guard.VerifyOwnership(r.Context(), principal(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !owned {
			s.writeError(w, r, common.ErrEntryNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
