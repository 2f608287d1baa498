package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/val/markdown-notes/internal/api/response"
	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/service"
)

type contextKey string

const claimsKey contextKey = "claims"

// CookieName is where the session token lives on the client.
const CookieName = "jwt"

// Auth authenticates the request from the jwt cookie: signature, expiry, then
// the revocation cross-check against the store. On success the token claims
// are attached to the request context.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				response.Fail(w, http.StatusUnauthorized, "Missing token")
				return
			}

			claims, err := authService.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				response.HandleError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// AuthBearer is the header variant of Auth for clients that send
// "Authorization: Bearer <token>" instead of the cookie.
func AuthBearer(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Fail(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				response.Fail(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			claims, err := authService.Authenticate(r.Context(), parts[1])
			if err != nil {
				response.HandleError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireVerified re-checks the stored verification flag, not the token's
// cached snapshot, since verification can happen after token issuance.
func RequireVerified(profileService *service.ProfileService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				response.Fail(w, http.StatusUnauthorized, "Missing token")
				return
			}

			id, err := claims.UserID()
			if err != nil {
				response.HandleError(w, r, domain.Unauthorized("Invalid token"))
				return
			}

			user, err := profileService.Get(r.Context(), id)
			if err != nil || !user.IsVerified {
				response.Fail(w, http.StatusUnauthorized, "Email is not verified")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin trusts the admin flag in the already-authenticated claims.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || !claims.IsAdmin {
			response.Fail(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the token claims attached by Auth or AuthBearer.
func ClaimsFrom(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok
}
