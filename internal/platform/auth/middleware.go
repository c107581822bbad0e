package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Guard answers the two questions the route guard asks.
type Guard interface {
	IsAuthenticated(ctx context.Context) bool
	CanAccess(route string) bool
}

// RequireAuth rejects requests while no session is present.
func RequireAuth(g Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AuthSkipper(c) {
				return next(c)
			}
			if !g.IsAuthenticated(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
			}
			return next(c)
		}
	}
}

// RequireRoute rejects requests when the session role may not open route.
func RequireRoute(g Guard, route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.IsAuthenticated(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
			}
			if !g.CanAccess(route) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("route %s not allowed for this role", route))
			}
			return next(c)
		}
	}
}

// RoleChecker reports the session role.
type RoleChecker interface {
	HasRole(r Role) bool
}

// RequireRole returns middleware that checks the session holds one of roles.
func RequireRole(rc RoleChecker, roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, r := range roles {
				if rc.HasRole(r) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("required role: %v", roles))
		}
	}
}
