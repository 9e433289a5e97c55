package api

import (
	"context"
	"net/http"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

// Users is the signed-in user's own profile, memberships and notifications.
type Users struct {
	d Doer
}

func (u *Users) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (models.UserProfile, error) {
	return send[models.UserProfile](ctx, u.d, http.MethodPut, UsersMe, update)
}

func (u *Users) ChangePassword(ctx context.Context, current, next string) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, u.d, http.MethodPost, UsersChangePassword,
		models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
}

func (u *Users) UpdatePhoto(ctx context.Context, fileName string, data []byte) (models.ImageUpload, error) {
	if err := ValidateImage(data); err != nil {
		return models.ImageUpload{}, err
	}
	return call[models.ImageUpload](ctx, u.d, &client.Request{
		Method: http.MethodPut,
		Path:   UsersPhoto,
		Files:  []client.File{{Param: "photo", Name: fileName, Data: data}},
	})
}

func (u *Users) Notifications(ctx context.Context) ([]models.Notification, error) {
	return get[[]models.Notification](ctx, u.d, UsersNotifications, nil)
}

func (u *Users) MarkNotificationsRead(ctx context.Context, ids []string) error {
	return exec(ctx, u.d, http.MethodPut, UsersNotifications, models.MarkReadRequest{IDs: ids})
}

func (u *Users) MyActivities(ctx context.Context) ([]models.Activity, error) {
	return get[[]models.Activity](ctx, u.d, UsersActivities, nil)
}

func (u *Users) MyClubs(ctx context.Context) ([]models.Club, error) {
	return get[[]models.Club](ctx, u.d, UsersClubs, nil)
}

func (u *Users) UpcomingEvents(ctx context.Context) ([]models.Activity, error) {
	return get[[]models.Activity](ctx, u.d, UsersEvents, nil)
}

func (u *Users) JoinActivity(ctx context.Context, activityID string) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, u.d, http.MethodPost, UserActivity(activityID), nil)
}

func (u *Users) LeaveActivity(ctx context.Context, activityID string) (models.MessageResponse, error) {
	return send[models.MessageResponse](ctx, u.d, http.MethodPut, UserActivity(activityID), nil)
}
