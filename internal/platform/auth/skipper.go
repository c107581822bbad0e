package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass the session guard.
var publicPaths = map[string]bool{
	"/health":     true,
	"/metrics":    true,
	"/auth/login": true,
}

// AuthSkipper returns true for requests whose route should skip the guard.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether path is reachable without a session.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
