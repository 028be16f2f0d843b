package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

// AuthMiddleware is the authorization gate in front of every staff route.
type AuthMiddleware struct {
	resolver ports.SessionResolver
	logger   *slog.Logger
}

func NewAuthMiddleware(resolver ports.SessionResolver, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		logger:   logger,
	}
}

type contextKey string

const AuthKey contextKey = "auth"

// WithAuth stores a resolved session on the context.
func WithAuth(ctx context.Context, auth domain.AuthResult) context.Context {
	return context.WithValue(ctx, AuthKey, auth)
}

// AuthFromContext returns the session stored by the gate, or an
// unauthenticated result.
func AuthFromContext(ctx context.Context) domain.AuthResult {
	if auth, ok := ctx.Value(AuthKey).(domain.AuthResult); ok {
		return auth
	}
	return domain.Unauthenticated()
}

// RequireRole resolves the session and lets the request through only when it
// is authenticated and, if roles is non-empty, holds one of them. Both
// failures answer 401.
func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := m.resolver.Resolve(r.Context(), r)
		log := logging.FromContext(r.Context(), m.logger)

		if !auth.Authenticated() {
			log.Debug("rejected unauthenticated request", "path", r.URL.Path)
			writeUnauthorized(w, log)
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, auth.Role) {
			log.Warn("role not allowed", "path", r.URL.Path, "role", auth.Role, "auth_type", auth.Kind)
			writeUnauthorized(w, log)
			return
		}

		next(w, r.WithContext(WithAuth(r.Context(), auth)))
	}
}

func (m *AuthMiddleware) RequireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(nil, next)
}

// Require adapts RequireRole for router groups.
func (m *AuthMiddleware) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireRole(roles, next.ServeHTTP)
	}
}

func writeUnauthorized(w http.ResponseWriter, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"}); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}
