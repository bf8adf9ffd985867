package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// TokenVerifier resolves a bearer token to an identity.
type TokenVerifier interface {
	VerifyToken(token string) (*Identity, error)
}

// Authenticate rejects requests without a valid bearer token before any
// handler runs. On success the identity and role are stored on the request
// context.
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			ident, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := WithIdentity(c.Request().Context(), ident)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// WithIdentity returns a copy of ctx carrying the identity's id and role.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, ident.ID)
	return context.WithValue(ctx, UserRoleKey, ident.Role)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}
