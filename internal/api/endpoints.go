package api

import (
	"net/url"
	"strings"
)

// Auth endpoints
const (
	AuthLogin          = "/api/auth/login"
	AuthRegister       = "/api/auth/enroll"
	AuthLogout         = "/api/auth/logout"
	AuthRefresh        = "/api/auth/refresh"
	AuthProfile        = "/api/auth/me"
	AuthForgotPassword = "/api/auth/forgot-password"
	AuthVerifyCode     = "/api/auth/verifyPassResetCode"
	AuthSubmitReset    = "/api/auth/submitPasswordReset"
)

// Endpoints of the signed-in user
const (
	UsersMe             = "/api/users/me"
	UsersPhoto          = "/api/users/me/photo"
	UsersChangePassword = "/api/users/me/change-password"
	UsersActivities     = "/api/users/me/activities"
	UsersClubs          = "/api/users/me/groups"
	UsersNotifications  = "/api/users/me/notifications"
	UsersEvents         = "/api/users/me/events"
)

const (
	ImagesUpload = "/api/images/upload"
	Activities   = "/api/activities"
	Clubs        = "/api/groups"
)

// path joins escaped segments onto base.
func path(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// UserActivity is the enrollment endpoint: POST joins, PUT leaves.
func UserActivity(activityID string) string {
	return path("/api/users/me/activity", activityID)
}

func Activity(id string) string { return path(Activities, id) }

func Club(id string) string { return path(Clubs, id) }

func ClubActivities(id string) string { return path(Clubs, id) + "/activities" }

func ClubJoin(id string) string { return path(Clubs, id) + "/join" }

func ClubPhoto(id string) string { return path(Clubs, id) + "/photo" }

func adminClub(clubID string, rest string) string {
	return path("/api/admin/clubs", clubID) + rest
}

func AdminClubActivities(clubID string) string { return adminClub(clubID, "/activities") }
func AdminClubSettings(clubID string) string   { return adminClub(clubID, "/settings") }
func AdminClubDelete(clubID string) string     { return adminClub(clubID, "/delete") }
func AdminClubReactivate(clubID string) string { return adminClub(clubID, "/reactivate") }
func AdminMemberStats(clubID string) string    { return adminClub(clubID, "/members/stats") }
func AdminMembersList(clubID string) string    { return adminClub(clubID, "/members/list") }
func AdminMembersExport(clubID string) string  { return adminClub(clubID, "/members/export") }
func AdminJoinRequests(clubID string) string   { return adminClub(clubID, "/join-requests") }

func AdminJoinRequest(clubID, requestID string) string {
	return path(adminClub(clubID, "/join-requests"), requestID)
}

func AdminActivity(id string) string { return path("/api/admin/activities", id) }

func AdminWeeklyHeatmap(clubID string) string {
	return adminClub(clubID, "/activities/weekly-heatmap")
}

func AdminEnrollments(clubID string) string {
	return adminClub(clubID, "/activities/enrollments")
}
