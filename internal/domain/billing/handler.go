package billing

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
	invoices := api.Group("/"+auth.RouteInvoices, auth.RequireRoute(h.guard, auth.RouteInvoices))
	resource.NewHandler[Invoice, CreateInvoiceRequest, UpdateInvoiceRequest](
		h.svc.Invoices, resource.Parser(ParseInvoiceFilter), h.audit).Register(invoices)
	invoices.GET("/:id/detalles", h.ListInvoiceLines, auth.RequireRoute(h.guard, auth.RouteInvoiceLines))

	lines := api.Group("/"+auth.RouteInvoiceLines, auth.RequireRoute(h.guard, auth.RouteInvoiceLines))
	resource.NewHandler[LineItem, CreateLineItemRequest, UpdateLineItemRequest](
		h.svc.LineItems, resource.Parser(ParseLineItemFilter), h.audit).Register(lines)
}

func (h *Handler) ListInvoiceLines(c echo.Context) error {
	resp, err := h.svc.LineItems.ForInvoice(c.Request().Context(), c.Param("id"), pagination.FromContext(c))
	if err != nil {
		return resource.HTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}
