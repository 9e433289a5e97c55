// Package api is the typed data-access layer over the club backend. Every call
// goes through a Doer, normally a *client.Client, so credential refresh applies uniformly.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

// Doer sends one backend request.
type Doer interface {
	Do(ctx context.Context, req *client.Request) (*client.Response, error)
}

// API groups the data-access objects.
type API struct {
	Auth       *Auth
	Users      *Users
	Clubs      *ClubsAPI
	Activities *ActivitiesAPI
	Admin      *Admin
	Images     *Images
}

func New(d Doer) *API {
	return &API{
		Auth:       &Auth{d: d},
		Users:      &Users{d: d},
		Clubs:      &ClubsAPI{d: d},
		Activities: &ActivitiesAPI{Resource: NewResource[models.Activity](d, "activities"), d: d},
		Admin:      &Admin{d: d},
		Images:     &Images{d: d},
	}
}

func call[T any](ctx context.Context, d Doer, req *client.Request) (T, error) {
	var out T
	resp, err := d.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func get[T any](ctx context.Context, d Doer, path string, query url.Values) (T, error) {
	return call[T](ctx, d, &client.Request{Method: http.MethodGet, Path: path, Query: query})
}

func send[T any](ctx context.Context, d Doer, method, path string, body any) (T, error) {
	return call[T](ctx, d, &client.Request{Method: method, Path: path, Body: body})
}

// exec sends a request whose reply body is ignored.
func exec(ctx context.Context, d Doer, method, path string, body any) error {
	_, err := d.Do(ctx, &client.Request{Method: method, Path: path, Body: body})
	return err
}
