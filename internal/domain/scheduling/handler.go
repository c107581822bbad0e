package scheduling

import (
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
	g := api.Group("/"+auth.RouteAppointments, auth.RequireRoute(h.guard, auth.RouteAppointments))
	resource.NewHandler[Appointment, CreateAppointmentRequest, UpdateAppointmentRequest](
		h.svc, resource.Parser(ParseAppointmentFilter), h.audit).Register(g)
}
