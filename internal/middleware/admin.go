package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
	"github.com/opsdesk/admin-console-go/internal/httputil"
	"github.com/opsdesk/admin-console-go/internal/identity"
)

type contextKey string

const AdminContextKey contextKey = "admin"

func GetAdmin(ctx context.Context) *identity.Identity {
	if admin, ok := ctx.Value(AdminContextKey).(*identity.Identity); ok {
		return admin
	}
	return nil
}

// AdminGate verifies that the caller's bearer credential resolves to an
// admin account before any mutating operation runs. A nil provider means the
// identity integration is not configured at all, which is a deployment gap
// (501) rather than an authorization failure.
type AdminGate struct {
	provider identity.Provider
}

func NewAdminGate(provider identity.Provider) *AdminGate {
	return &AdminGate{provider: provider}
}

func (g *AdminGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.provider == nil {
			httputil.WriteError(w, apperrors.ProviderUnconfigured())
			return
		}

		token := BearerToken(r)
		if token == "" {
			httputil.WriteError(w, apperrors.Unauthenticated("Missing bearer credential"))
			return
		}

		ident, err := g.provider.VerifyToken(r.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("admin gate: bearer verification failed")
			httputil.WriteError(w, apperrors.InvalidToken("Bearer credential could not be verified"))
			return
		}

		if !ident.IsAdmin {
			log.Warn().Str("userId", ident.UserID).Msg("admin gate: non-admin caller rejected")
			httputil.WriteError(w, apperrors.Forbidden("Admin privilege required"))
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken returns the raw bearer credential from the Authorization
// header, or "" when none is present.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
