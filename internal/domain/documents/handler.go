package documents

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/pkg/pagination"
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
	records := api.Group("/"+auth.RouteMedicalRecords, auth.RequireRoute(h.guard, auth.RouteMedicalRecords))
	resource.NewHandler[MedicalRecord, CreateMedicalRecordRequest, UpdateMedicalRecordRequest](
		h.svc.Records, resource.Parser(ParseMedicalRecordFilter), h.audit).Register(records)

	entries := api.Group("/"+auth.RouteRecordEntries, auth.RequireRoute(h.guard, auth.RouteRecordEntries))
	resource.NewHandler[RecordEntry, CreateRecordEntryRequest, UpdateRecordEntryRequest](
		h.svc.Entries, resource.Parser(ParseRecordEntryFilter), h.audit).Register(entries)

	// Entries are nested under the record too, gated by the entries route.
	records.GET("/:id/entradas", h.ListRecordEntries, auth.RequireRoute(h.guard, auth.RouteRecordEntries))
}

func (h *Handler) ListRecordEntries(c echo.Context) error {
	resp, err := h.svc.Entries.ForRecord(c.Request().Context(), c.Param("id"), pagination.FromContext(c))
	if err != nil {
		return resource.HTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}
