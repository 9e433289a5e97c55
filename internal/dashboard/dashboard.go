// Package dashboard assembles page-sized views from several backend calls.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devilmonastery/clubhouse/internal/api"
	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
)

// ViewerFunc returns the signed-in user, nil when unknown.
type ViewerFunc func() *models.UserProfile

// Loader fans out backend calls. Requests that hit an expired credential all
// queue behind the same refresh, so concurrent loads cost one refresh at most.
type Loader struct {
	api    *api.API
	viewer ViewerFunc
	log    *slog.Logger
}

func NewLoader(a *api.API, viewer ViewerFunc, log *slog.Logger) *Loader {
	return &Loader{api: a, viewer: viewer, log: logger.WithComponent(log, "dashboard")}
}

// ClubDetails is the admin view of one club.
type ClubDetails struct {
	Club         models.Club
	Members      []models.ClubMember
	Activities   []models.Activity
	JoinRequests []models.JoinRequest
	Stats        models.MemberStats
	IsAdmin      bool
}

// ClubPage is what any member sees of a club.
type ClubPage struct {
	Club       models.Club
	Activities []models.Activity
	IsAdmin    bool
}

// UserDashboard is the landing page of a signed-in user.
type UserDashboard struct {
	Clubs         []models.Club
	Activities    []models.Activity
	Events        []models.Activity
	Notifications []models.Notification
	Unread        int
}

// ClubDetails loads a club with its members, activities, pending join
// requests and stats. The first failing call cancels the rest and is returned.
func (l *Loader) ClubDetails(ctx context.Context, clubID string) (*ClubDetails, error) {
	start := time.Now()
	var out ClubDetails

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Club, err = l.api.Clubs.Get(ctx, clubID)
		return wrap("club", err)
	})
	g.Go(func() (err error) {
		out.Members, err = l.api.Admin.MembersList(ctx, clubID)
		return wrap("members", err)
	})
	g.Go(func() (err error) {
		out.Activities, err = l.api.Activities.AdminByClub(ctx, clubID)
		return wrap("activities", err)
	})
	g.Go(func() (err error) {
		out.JoinRequests, err = l.api.Admin.JoinRequests(ctx, clubID)
		return wrap("join requests", err)
	})
	g.Go(func() (err error) {
		out.Stats, err = l.api.Admin.MemberStats(ctx, clubID)
		return wrap("member stats", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.IsAdmin = IsClubAdmin(&out.Club, l.currentUser())
	logger.WithDuration(l.log, time.Since(start)).Debug("club details loaded",
		slog.String("club_id", clubID),
		slog.Int("members", len(out.Members)))
	return &out, nil
}

// ClubPage loads a club and its public activities.
func (l *Loader) ClubPage(ctx context.Context, clubID string) (*ClubPage, error) {
	var out ClubPage

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Club, err = l.api.Clubs.Get(ctx, clubID)
		return wrap("club", err)
	})
	g.Go(func() (err error) {
		out.Activities, err = l.api.Activities.ByClub(ctx, clubID)
		return wrap("activities", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.IsAdmin = IsClubAdmin(&out.Club, l.currentUser())
	return &out, nil
}

// UserDashboard loads the user's clubs, activities, upcoming events and notifications.
func (l *Loader) UserDashboard(ctx context.Context) (*UserDashboard, error) {
	var out UserDashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Clubs, err = l.api.Users.MyClubs(ctx)
		return wrap("my clubs", err)
	})
	g.Go(func() (err error) {
		out.Activities, err = l.api.Users.MyActivities(ctx)
		return wrap("my activities", err)
	})
	g.Go(func() (err error) {
		out.Events, err = l.api.Users.UpcomingEvents(ctx)
		return wrap("upcoming events", err)
	})
	g.Go(func() (err error) {
		out.Notifications, err = l.api.Users.Notifications(ctx)
		return wrap("notifications", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Unread = len(models.Unread(out.Notifications))
	return &out, nil
}

// IsClubAdmin reports whether user administers club.
func IsClubAdmin(club *models.Club, user *models.UserProfile) bool {
	if club == nil || user == nil || club.AdminID == nil {
		return false
	}
	return *club.AdminID == user.ID
}

func (l *Loader) currentUser() *models.UserProfile {
	if l.viewer == nil {
		return nil
	}
	return l.viewer()
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
