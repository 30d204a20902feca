package auth

import (
	"net/http"
	"strings"

	"github.com/tontan-resort/tontan-pms/internal/platform/httpx"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// Middleware gates routes on a verified bearer token.
type Middleware struct {
	tokens  *TokenManager
	service *Service
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(tokens *TokenManager, service *Service) *Middleware {
	return &Middleware{tokens: tokens, service: service}
}

// RequireAuth verifies the Authorization header and loads the account into
// the request context. The account is re-read on every request so disabled
// accounts lose access immediately, not at token expiry.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		userID, err := m.tokens.Verify(raw)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		user, err := m.service.UserByID(r.Context(), userID)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithActor(r.Context(), shared.Actor{UserID: user.ID, Role: user.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only the listed roles through. It must run after
// RequireAuth.
func (m *Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := make(map[shared.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
