// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const (
	PrincipalKey contextKey = "principal"
	ClaimsKey    contextKey = "jwt_claims"

	AccessTokenCookie = "accessToken"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID    string
	Email     string
	Name      string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (c *AccessTokenClaims) Principal() core.Principal {
	return core.Principal{
		UserID: c.UserID,
		Email:  c.Email,
		Name:   c.Name,
		Role:   c.Role,
	}
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				claims, err := verifier.VerifyAccessToken(r.Context(), token)
				if err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := core.Authorize(GetPrincipal(r.Context()), roles...); err != nil {
				core.JSONError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(core.RoleAdmin)(next)
}

// ExtractToken prefers the access token cookie and falls back to the
// Authorization header.
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.FromError(err).StatusCode != http.StatusUnauthorized {
		core.JSONError(w, core.TokenInvalidError())
		return
	}
	core.JSONError(w, err)
}

func withClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, PrincipalKey, claims.Principal())
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WithPrincipal is used by tests and internal callers that already hold an
// authenticated identity.
func WithPrincipal(ctx context.Context, p core.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func GetPrincipal(ctx context.Context) core.Principal {
	if p, ok := ctx.Value(PrincipalKey).(core.Principal); ok {
		return p
	}
	return core.Principal{}
}

func GetUserID(ctx context.Context) string {
	return GetPrincipal(ctx).UserID
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
