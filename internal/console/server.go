package console

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ehr/hospital-console/internal/domain/admin"
	"github.com/ehr/hospital-console/internal/domain/billing"
	"github.com/ehr/hospital-console/internal/domain/dashboard"
	"github.com/ehr/hospital-console/internal/domain/documents"
	"github.com/ehr/hospital-console/internal/domain/encounter"
	"github.com/ehr/hospital-console/internal/domain/identity"
	"github.com/ehr/hospital-console/internal/domain/scheduling"
	"github.com/ehr/hospital-console/internal/platform/analytics"
	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/db"
	"github.com/ehr/hospital-console/internal/platform/live"
	"github.com/ehr/hospital-console/internal/platform/middleware"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/session"
)

// NewServer builds the echo instance serving the console API.
func (a *App) NewServer() *echo.Echo {
	logger := a.Logger
	cfg := a.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.HTTPTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(a.Telemetry.MetricsMiddleware())
	e.Use(middleware.Audit(logger, a.actor, a.Usage, a.Live))

	e.GET("/health", db.HealthHandler(a.HealthChecks()))
	e.GET("/metrics", a.Telemetry.PrometheusHandler())

	limit := middleware.RateLimit(middleware.DefaultRateLimitConfig())

	authGroup := e.Group("/auth", limit)
	authGroup.POST("/login", a.handleLogin)
	authGroup.POST("/logout", a.handleLogout)
	authGroup.GET("/me", a.handleMe)

	apiV1 := e.Group("/api/v1", limit, auth.RequireAuth(a.Session))
	apiV1.GET("/menu", a.handleMenu)

	dashboard.NewHandler(a.Dashboard, a.Session).RegisterRoutes(apiV1)
	admin.NewHandler(a.Users, a.Session, a.Session).RegisterRoutes(apiV1)
	identity.NewHandler(a.Identity, a.Session, a.Session).RegisterRoutes(apiV1)
	scheduling.NewHandler(a.Appointments, a.Session, a.Session).RegisterRoutes(apiV1)
	encounter.NewHandler(a.Stays, a.Session, a.Session).RegisterRoutes(apiV1)
	documents.NewHandler(a.Documents, a.Session, a.Session).RegisterRoutes(apiV1)
	billing.NewHandler(a.Billing, a.Session, a.Session).RegisterRoutes(apiV1)

	live.NewHandler(a.Live, cfg.CORSOrigins).RegisterRoutes(apiV1)

	usage := apiV1.Group("/usage", auth.RequireRole(a.Session, auth.RoleAdmin))
	analytics.NewUsageHandler(a.Usage).RegisterRoutes(usage)

	return e
}

func (a *App) actor(echo.Context) (string, string) {
	u := a.Session.CurrentUser()
	if u == nil {
		return "", ""
	}
	return u.ID.String(), string(u.Role)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *App) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	s, err := a.Session.Login(ctx, session.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			return echo.NewHTTPError(http.StatusUnauthorized, authErr.Message)
		}
		return resource.HTTPError(err)
	}
	if err := a.Session.SetSessionData(ctx, s); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s.User)
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Session.Logout(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleMe(c echo.Context) error {
	u := a.Session.CurrentUser()
	if u == nil || !a.Session.IsAuthenticated(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}
	return c.JSON(http.StatusOK, u)
}

func (a *App) handleMenu(c echo.Context) error {
	items := auth.Menu(a.Session.Role())
	if items == nil {
		items = []auth.MenuItem{}
	}
	return c.JSON(http.StatusOK, items)
}
