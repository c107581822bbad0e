package encounter

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
	g := api.Group("/"+auth.RouteHospitalization, auth.RequireRoute(h.guard, auth.RouteHospitalization))
	resource.NewHandler[Hospitalization, CreateHospitalizationRequest, UpdateHospitalizationRequest](
		h.svc, resource.Parser(ParseHospitalizationFilter), h.audit).Register(g)
}
