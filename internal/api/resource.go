package api

import (
	"context"
	"net/http"
	"net/url"
)

// Resource is plain CRUD over /api/<name>.
type Resource[T any] struct {
	d    Doer
	base string
}

func NewResource[T any](d Doer, name string) *Resource[T] {
	return &Resource[T]{d: d, base: "/api/" + name}
}

func (r *Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	return get[[]T](ctx, r.d, r.base, query)
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return get[T](ctx, r.d, path(r.base, id), nil)
}

func (r *Resource[T]) Create(ctx context.Context, body any) (T, error) {
	return send[T](ctx, r.d, http.MethodPost, r.base, body)
}

func (r *Resource[T]) Update(ctx context.Context, id string, body any) (T, error) {
	return send[T](ctx, r.d, http.MethodPut, path(r.base, id), body)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.d, http.MethodDelete, path(r.base, id), nil)
}
