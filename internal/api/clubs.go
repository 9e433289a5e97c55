package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

// ClubsAPI is the public club directory plus club-level admin actions.
type ClubsAPI struct {
	d Doer
}

// ListClubsOptions filters the directory. Zero values are not sent.
type ListClubsOptions struct {
	Page     int
	Size     int
	Category string
}

func (o ListClubsOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	return q
}

func (c *ClubsAPI) List(ctx context.Context, opts ListClubsOptions) ([]models.Club, error) {
	return get[[]models.Club](ctx, c.d, Clubs, opts.query())
}

func (c *ClubsAPI) Get(ctx context.Context, id string) (models.Club, error) {
	return get[models.Club](ctx, c.d, Club(id), nil)
}

func (c *ClubsAPI) Create(ctx context.Context, req models.CreateClubRequest) (models.CreateClubResponse, error) {
	return send[models.CreateClubResponse](ctx, c.d, http.MethodPost, Clubs, req)
}

// UpdateSettings sends arbitrary settings fields to the admin settings endpoint.
func (c *ClubsAPI) UpdateSettings(ctx context.Context, id string, settings map[string]any) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, c.d, http.MethodPut, AdminClubSettings(id), settings)
}

func (c *ClubsAPI) RequestToJoin(ctx context.Context, id string) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, c.d, http.MethodPost, ClubJoin(id), nil)
}

func (c *ClubsAPI) UpdatePhoto(ctx context.Context, id, fileName string, data []byte) (models.ImageUpload, error) {
	if err := ValidateImage(data); err != nil {
		return models.ImageUpload{}, err
	}
	return call[models.ImageUpload](ctx, c.d, &client.Request{
		Method: http.MethodPut,
		Path:   ClubPhoto(id),
		Files:  []client.File{{Param: "photo", Name: fileName, Data: data}},
	})
}

// Delete deactivates a club. The backend models this as a PUT.
func (c *ClubsAPI) Delete(ctx context.Context, id string) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, c.d, http.MethodPut, AdminClubDelete(id), nil)
}

func (c *ClubsAPI) Reactivate(ctx context.Context, id string) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, c.d, http.MethodPut, AdminClubReactivate(id), nil)
}
