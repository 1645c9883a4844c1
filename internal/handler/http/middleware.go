package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/bmanav26/E-Commerce/internal/auth"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
	"github.com/bmanav26/E-Commerce/pkg/httputil"
	"github.com/bmanav26/E-Commerce/pkg/logger"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// sessionCookieName is the cookie carrying the session token.
const sessionCookieName = "token"

// ClaimsFromContext returns the authenticated claims, or nil when the request
// did not pass through Authenticate.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// tokenFromRequest extracts the session token, preferring the session cookie
// over an Authorization bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

// Authenticate validates the session token and rejects revoked sessions.
func Authenticate(jwtManager *auth.JWTManager, revoker auth.Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("please login to access this resource"), nil)
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("please login to access this resource"), nil)
				return
			}

			revoked, err := revoker.IsRevoked(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}
			if revoked {
				httputil.WriteError(w, r, apperrors.Unauthorized("please login to access this resource"), nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx = logger.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role is not in the allowed set.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("please login to access this resource"), nil)
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				httputil.WriteError(w, r, apperrors.Forbidden("role "+claims.Role+" is not allowed to access this resource"), nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Envelope{
					"success": false,
					"message": "Content-Type must be application/json",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
