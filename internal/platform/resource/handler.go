package resource

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/pkg/pagination"
)

// Service is the CRUD surface a Handler drives. *Resource satisfies it, and
// entity services may shadow List to route filters.
type Service[T, C, U any] interface {
	List(ctx context.Context, p pagination.Params, filter Filter) (*pagination.Response[T], error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, req C) (*T, error)
	Update(ctx context.Context, id string, req U) (*T, error)
	Delete(ctx context.Context, id string) error
}

// SoftService adds the soft-delete lifecycle.
type SoftService interface {
	Reactivate(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

// FilterParser builds an entity filter from query parameters.
type FilterParser func(q url.Values) Filter

// Parser adapts a typed filter constructor.
func Parser[F Filter](parse func(url.Values) F) FilterParser {
	return func(q url.Values) Filter { return parse(q) }
}

type creationStamper interface{ StampCreation(Audit) }
type editionStamper interface{ StampEdition(Audit) }

// Handler serves list/get/create/update/delete for one entity over echo.
type Handler[T, C, U any] struct {
	svc    Service[T, C, U]
	filter FilterParser
	audit  Audit
}

func NewHandler[T, C, U any](svc Service[T, C, U], filter FilterParser, audit Audit) *Handler[T, C, U] {
	return &Handler[T, C, U]{svc: svc, filter: filter, audit: audit}
}

// Register mounts the CRUD routes on g. When svc also implements SoftService,
// POST /:id/reactivate and DELETE /:id/purge are added.
func (h *Handler[T, C, U]) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	if soft, ok := h.svc.(SoftService); ok {
		g.POST("/:id/reactivate", func(c echo.Context) error {
			if err := soft.Reactivate(c.Request().Context(), c.Param("id")); err != nil {
				return HTTPError(err)
			}
			return c.NoContent(http.StatusNoContent)
		})
		g.DELETE("/:id/purge", func(c echo.Context) error {
			if err := soft.Purge(c.Request().Context(), c.Param("id")); err != nil {
				return HTTPError(err)
			}
			return c.NoContent(http.StatusNoContent)
		})
	}
}

func (h *Handler[T, C, U]) List(c echo.Context) error {
	var filter Filter
	if h.filter != nil {
		filter = h.filter(c.QueryParams())
	}
	resp, err := h.svc.List(c.Request().Context(), pagination.FromContext(c), filter)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler[T, C, U]) Get(c echo.Context) error {
	item, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler[T, C, U]) Create(c echo.Context) error {
	var req C
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s, ok := any(&req).(creationStamper); ok {
		s.StampCreation(h.audit)
	}
	item, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler[T, C, U]) Update(c echo.Context) error {
	var req U
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s, ok := any(&req).(editionStamper); ok {
		s.StampEdition(h.audit)
	}
	item, err := h.svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler[T, C, U]) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
