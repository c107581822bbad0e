package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 1000
	// MaxSkip bounds (page-1)*limit so the offset fits a 32-bit backend integer.
	MaxSkip = 1<<31 - 1
)

// Params holds 1-based pagination parameters.
type Params struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = DefaultPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if last := MaxPage(limit); page > last {
		page = last
	}

	order := strings.ToLower(c.QueryParam("order"))
	if order != "asc" && order != "desc" {
		order = ""
	}

	return Params{Page: page, Limit: limit, Sort: c.QueryParam("sort"), Order: order}
}

// Validate rejects params that cannot be turned into a backend offset.
func (p Params) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", p.Page)
	}
	if p.Limit < 1 {
		return fmt.Errorf("limit must be >= 1, got %d", p.Limit)
	}
	if last := MaxPage(p.Limit); p.Page > last {
		return fmt.Errorf("page must be <= %d for limit %d, got %d", last, p.Limit, p.Page)
	}
	if p.Order != "" && p.Order != "asc" && p.Order != "desc" {
		return fmt.Errorf("order must be asc or desc, got %q", p.Order)
	}
	return nil
}

// MaxPage is the highest page whose offset stays within MaxSkip.
func MaxPage(limit int) int {
	if limit < 1 {
		limit = 1
	}
	return MaxSkip/limit + 1
}

// Skip returns the zero-based offset the backend expects.
func (p Params) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Query returns the backend query parameters for this page.
func (p Params) Query() map[string]any {
	q := map[string]any{
		"skip":  p.Skip(),
		"limit": p.Limit,
	}
	if p.Sort != "" {
		q["sort"] = p.Sort
	}
	if p.Order != "" {
		q["order"] = p.Order
	}
	return q
}

// Response wraps a paginated list.
type Response[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewResponse builds the envelope for one page of items. The backend does not
// report a collection size, so Total is the page length and a full page is
// assumed to have a successor.
func NewResponse[T any](items []T, p Params) *Response[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := p.Page
	if len(items) > 0 && len(items) == p.Limit {
		totalPages = p.Page + 1
	}
	return &Response[T]{
		Data:       items,
		Total:      len(items),
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}

// Normalize decodes a list body that is either a bare JSON array or an object
// with a "data" array. Any other shape yields an empty page.
func Normalize[T any](raw json.RawMessage, p Params) (*Response[T], error) {
	items, err := DecodeItems[T](raw)
	if err != nil {
		return nil, err
	}
	return NewResponse(items, p), nil
}

// DecodeItems extracts the item slice from either accepted list shape.
func DecodeItems[T any](raw json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []T{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	case '{':
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode list envelope: %w", err)
		}
		data := strings.TrimSpace(string(wrapped.Data))
		if data == "" || data[0] != '[' {
			return []T{}, nil
		}
		var items []T
		if err := json.Unmarshal(wrapped.Data, &items); err != nil {
			return nil, fmt.Errorf("decode list data: %w", err)
		}
		return items, nil
	}
	return []T{}, nil
}

// HasNext reports whether the envelope claims another page.
func (r *Response[T]) HasNext() bool {
	return r.TotalPages > r.Page
}

// HasPrevious returns true if there are results before the current page.
func (r *Response[T]) HasPrevious() bool {
	return r.Page > 1
}
