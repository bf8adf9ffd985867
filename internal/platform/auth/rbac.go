package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// RequireRole returns middleware that admits only the listed roles. Admins get
// no implicit pass; list RoleAdmin explicitly where it applies.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Access denied")
		}
	}
}

// DenyRole returns middleware that rejects the listed roles and admits every
// other authenticated role.
func DenyRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == "" {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			for _, denied := range roles {
				if role == denied {
					return echo.NewHTTPError(http.StatusForbidden, "Access denied")
				}
			}
			return next(c)
		}
	}
}
