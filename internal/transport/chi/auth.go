package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
)

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type identityKey struct{}

// IdentityFromContext returns the authenticated identity, empty when anonymous.
func IdentityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

// ContextWithIdentity stores the authenticated identity.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// BearerAuthMiddleware rejects requests without a valid "Authorization: Bearer <token>"
// header and stores the resolved identity in the request context.
func BearerAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			identity, err := auth.Authenticate(r.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")
					return
				}
				logpkg.FromContext(r.Context()).Error("token lookup failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			ctx = logpkg.With(ctx, zap.String("identity", identity))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
