package api

import (
	"context"
	"net/http"

	"github.com/devilmonastery/clubhouse/internal/models"
)

// ActivitiesAPI is CRUD over /api/activities plus the club-scoped views.
type ActivitiesAPI struct {
	*Resource[models.Activity]
	d Doer
}

func (a *ActivitiesAPI) ByClub(ctx context.Context, clubID string) ([]models.Activity, error) {
	return get[[]models.Activity](ctx, a.d, ClubActivities(clubID), nil)
}

func (a *ActivitiesAPI) AdminByClub(ctx context.Context, clubID string) ([]models.Activity, error) {
	return get[[]models.Activity](ctx, a.d, AdminClubActivities(clubID), nil)
}

func (a *ActivitiesAPI) AdminCreate(ctx context.Context, clubID string, in models.ActivityInput) (models.Activity, error) {
	return send[models.Activity](ctx, a.d, http.MethodPost, AdminClubActivities(clubID), in)
}

func (a *ActivitiesAPI) AdminUpdate(ctx context.Context, activityID string, in models.ActivityInput) (models.Activity, error) {
	return send[models.Activity](ctx, a.d, http.MethodPut, AdminActivity(activityID), in)
}

func (a *ActivitiesAPI) AdminCancel(ctx context.Context, activityID string) error {
	return exec(ctx, a.d, http.MethodDelete, AdminActivity(activityID), nil)
}
