package identity

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
	patients := api.Group("/"+auth.RoutePatients, auth.RequireRoute(h.guard, auth.RoutePatients))
	patients.GET("/email/:email", h.GetPatientByEmail)
	patients.GET("/buscar/:nombre", h.SearchPatients)
	resource.NewHandler[Patient, CreatePatientRequest, UpdatePatientRequest](
		h.svc.Patients, resource.Parser(ParsePatientFilter), h.audit).Register(patients)

	physicians := api.Group("/"+auth.RoutePhysicians, auth.RequireRoute(h.guard, auth.RoutePhysicians))
	resource.NewHandler[Physician, CreatePhysicianRequest, UpdatePhysicianRequest](
		h.svc.Physicians, resource.Parser(ParsePhysicianFilter), h.audit).Register(physicians)

	nurses := api.Group("/"+auth.RouteNurses, auth.RequireRoute(h.guard, auth.RouteNurses))
	resource.NewHandler[Nurse, CreateNurseRequest, UpdateNurseRequest](
		h.svc.Nurses, resource.Parser(ParseNurseFilter), h.audit).Register(nurses)
}

func (h *Handler) GetPatientByEmail(c echo.Context) error {
	p, err := h.svc.Patients.ByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return resource.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	patients, err := h.svc.Patients.Search(c.Request().Context(), c.Param("nombre"))
	if err != nil {
		return resource.HTTPError(err)
	}
	if patients == nil {
		patients = []Patient{}
	}
	return c.JSON(http.StatusOK, patients)
}
