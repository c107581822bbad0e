package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/resource"
)

// Session is what the dashboard needs from the session manager.
type Session interface {
	auth.Guard
	auth.RoleChecker
}

// Summary is the dashboard payload. Stats is only computed for admins.
type Summary struct {
	Admin    bool   `json:"isAdmin"`
	Consumer bool   `json:"isConsumidor"`
	Stats    *Stats `json:"stats,omitempty"`
}

type Handler struct {
	svc     *Service
	session Session
}

func NewHandler(svc *Service, session Session) *Handler {
	return &Handler{svc: svc, session: session}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/"+auth.RouteDashboard, auth.RequireRoute(h.session, auth.RouteDashboard))
	g.GET("", h.GetDashboard)
	g.GET("/stats", h.GetStats, auth.RequireRole(h.session, auth.RoleAdmin))
}

func (h *Handler) GetDashboard(c echo.Context) error {
	summary := Summary{
		Admin:    h.session.HasRole(auth.RoleAdmin),
		Consumer: h.session.HasRole(auth.RoleConsumer),
	}
	if summary.Admin {
		stats, err := h.svc.Stats(c.Request().Context())
		if err != nil {
			return resource.HTTPError(err)
		}
		summary.Stats = stats
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return resource.HTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
