package api

import (
	"context"
	"net/http"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

// Admin is the club administration panel.
type Admin struct {
	d Doer
}

func (a *Admin) MemberStats(ctx context.Context, clubID string) (models.MemberStats, error) {
	return get[models.MemberStats](ctx, a.d, AdminMemberStats(clubID), nil)
}

func (a *Admin) MembersList(ctx context.Context, clubID string) ([]models.ClubMember, error) {
	return get[[]models.ClubMember](ctx, a.d, AdminMembersList(clubID), nil)
}

func (a *Admin) WeeklyHeatmap(ctx context.Context, clubID string) ([]models.HeatmapCell, error) {
	return get[[]models.HeatmapCell](ctx, a.d, AdminWeeklyHeatmap(clubID), nil)
}

func (a *Admin) EnrollmentStats(ctx context.Context, clubID string) ([]models.EnrollmentStat, error) {
	return get[[]models.EnrollmentStat](ctx, a.d, AdminEnrollments(clubID), nil)
}

func (a *Admin) JoinRequests(ctx context.Context, clubID string) ([]models.JoinRequest, error) {
	return get[[]models.JoinRequest](ctx, a.d, AdminJoinRequests(clubID), nil)
}

type joinDecisionBody struct {
	Action models.JoinDecision `json:"action"`
}

// ProcessJoinRequest approves or rejects a pending join request.
func (a *Admin) ProcessJoinRequest(ctx context.Context, clubID, requestID string, approve bool) (models.MessageResponse, error) {
	decision := models.JoinRejected
	if approve {
		decision = models.JoinApproved
	}
	return send[models.MessageResponse](ctx, a.d, http.MethodPut, AdminJoinRequest(clubID, requestID),
		joinDecisionBody{Action: decision})
}

// ExportMembers returns the raw export document and its content type.
func (a *Admin) ExportMembers(ctx context.Context, clubID string) ([]byte, string, error) {
	resp, err := a.d.Do(ctx, &client.Request{Method: http.MethodGet, Path: AdminMembersExport(clubID)})
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
