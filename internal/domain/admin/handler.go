package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/resource"
)

type Handler struct {
	svc   *Service
	guard auth.Guard
	audit resource.Audit
}

func NewHandler(svc *Service, guard auth.Guard, audit resource.Audit) *Handler {
	return &Handler{svc: svc, guard: guard, audit: audit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/"+auth.RouteUsers, auth.RequireRoute(h.guard, auth.RouteUsers))
	g.GET("/activos", h.ListActiveUsers)
	g.POST("/:id/change-password", h.ChangePassword)
	g.PATCH("/:id/toggle-status", h.ToggleStatus)
	resource.NewHandler[User, CreateUserRequest, UpdateUserRequest](
		h.svc, resource.Parser(ParseUserFilter), h.audit).Register(g)
}

func (h *Handler) ListActiveUsers(c echo.Context) error {
	users, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return resource.HTTPError(err)
	}
	if users == nil {
		users = []User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ChangePassword(c.Request().Context(), c.Param("id"), req); err != nil {
		return resource.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ToggleStatus(c echo.Context) error {
	var req struct {
		Active *bool `json:"activo"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Active == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "activo is required")
	}
	u, err := h.svc.ToggleStatus(c.Request().Context(), c.Param("id"), *req.Active)
	if err != nil {
		return resource.HTTPError(err)
	}
	return c.JSON(http.StatusOK, u)
}
