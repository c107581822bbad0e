// Package resource implements the paginated CRUD contract shared by every
// backend entity: skip/limit paging, verbatim filters, list normalization and
// the soft-delete lifecycle.
package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/pkg/pagination"
)

// Backend is the subset of *apiclient.Client used by resources.
type Backend interface {
	Get(ctx context.Context, endpoint string, params apiclient.Params, out any) error
	GetRaw(ctx context.Context, endpoint string, params apiclient.Params) (json.RawMessage, error)
	Post(ctx context.Context, endpoint string, body, out any) error
	Put(ctx context.Context, endpoint string, body, out any) error
	Patch(ctx context.Context, endpoint string, body, out any) error
	Delete(ctx context.Context, endpoint string, out any) error
}

// Filter renders an entity filter into query parameters.
type Filter interface {
	Params() apiclient.Params
}

// Validator is implemented by create requests that can be checked locally.
type Validator interface {
	Validate() error
}

// Resource is a CRUD client for one backend collection. T is the entity, C the
// create request and U the update request.
type Resource[T, C, U any] struct {
	backend  Backend
	endpoint string
}

func New[T, C, U any](backend Backend, endpoint string) *Resource[T, C, U] {
	return &Resource[T, C, U]{backend: backend, endpoint: endpoint}
}

func (r *Resource[T, C, U]) Endpoint() string { return r.endpoint }

// Backend exposes the client so entity services can add custom calls.
func (r *Resource[T, C, U]) Backend() Backend { return r.backend }

func (r *Resource[T, C, U]) List(ctx context.Context, p pagination.Params, filter Filter) (*pagination.Response[T], error) {
	return r.ListAt(ctx, r.endpoint, p, filter)
}

// ListAt lists from an alternative endpoint with the same paging contract.
func (r *Resource[T, C, U]) ListAt(ctx context.Context, endpoint string, p pagination.Params, filter Filter) (*pagination.Response[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	params := apiclient.Params(p.Query())
	if filter != nil {
		params = params.Merge(filter.Params())
	}

	raw, err := r.backend.GetRaw(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", endpoint, err)
	}
	resp, err := pagination.Normalize[T](raw, p)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", endpoint, err)
	}
	return resp, nil
}

// All fetches a non-paginated list endpoint, accepting either list shape.
func (r *Resource[T, C, U]) All(ctx context.Context, endpoint string) ([]T, error) {
	raw, err := r.backend.GetRaw(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", endpoint, err)
	}
	items, err := pagination.DecodeItems[T](raw)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", endpoint, err)
	}
	return items, nil
}

func (r *Resource[T, C, U]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.backend.Get(ctx, r.item(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get %s: %w", r.item(id), err)
	}
	return &out, nil
}

// Create validates req locally before sending it.
func (r *Resource[T, C, U]) Create(ctx context.Context, req C) (*T, error) {
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	var out T
	if err := r.backend.Post(ctx, r.endpoint, req, &out); err != nil {
		return nil, fmt.Errorf("create %s: %w", r.endpoint, err)
	}
	return &out, nil
}

func (r *Resource[T, C, U]) Update(ctx context.Context, id string, req U) (*T, error) {
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	var out T
	if err := r.backend.Put(ctx, r.item(id), req, &out); err != nil {
		return nil, fmt.Errorf("update %s: %w", r.item(id), err)
	}
	return &out, nil
}

// Delete removes the record permanently.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id string) error {
	if err := r.backend.Delete(ctx, r.item(id), nil); err != nil {
		return fmt.Errorf("delete %s: %w", r.item(id), err)
	}
	return nil
}

func (r *Resource[T, C, U]) item(id string, sub ...string) string {
	return apiclient.Path(append([]string{r.endpoint, id}, sub...)...)
}

// SoftResource replaces hard delete with deactivate/reactivate/purge.
type SoftResource[T, C, U any] struct {
	*Resource[T, C, U]
}

func NewSoft[T, C, U any](backend Backend, endpoint string) *SoftResource[T, C, U] {
	return &SoftResource[T, C, U]{Resource: New[T, C, U](backend, endpoint)}
}

// Delete deactivates the record. Use Purge for irreversible removal.
func (r *SoftResource[T, C, U]) Delete(ctx context.Context, id string) error {
	return r.Deactivate(ctx, id)
}

func (r *SoftResource[T, C, U]) Deactivate(ctx context.Context, id string) error {
	endpoint := r.item(id, "inactivar")
	if err := r.backend.Patch(ctx, endpoint, nil, nil); err != nil {
		return fmt.Errorf("deactivate %s: %w", endpoint, err)
	}
	return nil
}

func (r *SoftResource[T, C, U]) Reactivate(ctx context.Context, id string) error {
	endpoint := r.item(id, "reactivar")
	if err := r.backend.Patch(ctx, endpoint, nil, nil); err != nil {
		return fmt.Errorf("reactivate %s: %w", endpoint, err)
	}
	return nil
}

func (r *SoftResource[T, C, U]) Purge(ctx context.Context, id string) error {
	return r.Resource.Delete(ctx, id)
}
