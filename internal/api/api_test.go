package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

type recorded struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        []byte
}

// recorder is a fake backend that remembers every request and replies from a route table.
type recorder struct {
	mu       sync.Mutex
	requests []recorded
	replies  map[string]string // "METHOD path" -> JSON body
	status   map[string]int
}

func newRecorder(t *testing.T) (*recorder, *API) {
	t.Helper()
	rec := &recorder{replies: map[string]string{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, recorded{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			Query:       r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		key := r.Method + " " + r.URL.EscapedPath()
		reply, status := rec.replies[key], rec.status[key]
		rec.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	c, err := client.NewClient(client.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return rec, New(c)
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func TestEndpointsEscapeSegments(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Club("42"), "/api/groups/42"},
		{Club("a/b"), "/api/groups/a%2Fb"},
		{ClubActivities("7"), "/api/groups/7/activities"},
		{ClubJoin("7"), "/api/groups/7/join"},
		{UserActivity("3"), "/api/users/me/activity/3"},
		{AdminJoinRequest("1", "99"), "/api/admin/clubs/1/join-requests/99"},
		{AdminWeeklyHeatmap("1"), "/api/admin/clubs/1/activities/weekly-heatmap"},
		{AdminEnrollments("1"), "/api/admin/clubs/1/activities/enrollments"},
		{AdminActivity("5"), "/api/admin/activities/5"},
		{AdminMembersExport("1"), "/api/admin/clubs/1/members/export"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLoginSkipsRefresh(t *testing.T) {
	rec, a := newRecorder(t)
	rec.replies["POST /api/auth/login"] = `{"message":"bad credentials"}`
	rec.status["POST /api/auth/login"] = http.StatusUnauthorized

	_, err := a.Auth.Login(context.Background(), models.LoginRequest{Username: "ana", Password: "pw"})
	require.True(t, client.IsUnauthorized(err))
	require.Equal(t, "bad credentials", client.Message(err))
	require.JSONEq(t, `{"username":"ana","password":"pw"}`, string(rec.last(t).Body))
}

func TestLoginDecodesResponse(t *testing.T) {
	rec, a := newRecorder(t)
	rec.replies["POST /api/auth/login"] = `{"login_success":true,"message":"ok","token":"tok","user":{"id":9,"username":"ana","roles":["student"]}}`

	resp, err := a.Auth.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	require.True(t, resp.LoginSuccess)
	require.Equal(t, "tok", resp.Token)
	require.Equal(t, int64(9), resp.User.ID)
}

func TestPasswordResetBodies(t *testing.T) {
	rec, a := newRecorder(t)
	ctx := context.Background()

	_, err := a.Auth.RequestPasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, AuthForgotPassword, rec.last(t).Path)
	require.JSONEq(t, `{"email":"ana@example.com"}`, string(rec.last(t).Body))

	_, err = a.Auth.VerifyResetCode(ctx, "123456")
	require.NoError(t, err)
	require.JSONEq(t, `{"verificationCode":"123456"}`, string(rec.last(t).Body))

	_, err = a.Auth.SubmitNewPassword(ctx, "s3cret")
	require.NoError(t, err)
	require.JSONEq(t, `{"newPassword":"s3cret"}`, string(rec.last(t).Body))
}

func TestJoinAndLeaveActivityMethods(t *testing.T) {
	rec, a := newRecorder(t)
	ctx := context.Background()

	_, err := a.Users.JoinActivity(ctx, "12")
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, rec.last(t).Method)
	require.Equal(t, "/api/users/me/activity/12", rec.last(t).Path)

	_, err = a.Users.LeaveActivity(ctx, "12")
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, rec.last(t).Method)
}

func TestMarkNotificationsRead(t *testing.T) {
	rec, a := newRecorder(t)
	require.NoError(t, a.Users.MarkNotificationsRead(context.Background(), []string{"1", "2"}))
	last := rec.last(t)
	require.Equal(t, http.MethodPut, last.Method)
	require.JSONEq(t, `{"notification_ids":["1","2"]}`, string(last.Body))
}

func TestListClubsQuery(t *testing.T) {
	rec, a := newRecorder(t)
	rec.replies["GET /api/groups"] = `[{"groupId":1,"group_name":"Chess","group_category":"games","status":"active"}]`

	clubs, err := a.Clubs.List(context.Background(), ListClubsOptions{Page: 2, Size: 10, Category: "games"})
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	require.Equal(t, "Chess", clubs[0].Name)
	require.Equal(t, "category=games&page=2&size=10", rec.last(t).Query)

	_, err = a.Clubs.List(context.Background(), ListClubsOptions{})
	require.NoError(t, err)
	require.Empty(t, rec.last(t).Query)
}

func TestCreateClub(t *testing.T) {
	rec, a := newRecorder(t)
	rec.replies["POST /api/groups"] = `{"groupId":77,"message":"created"}`

	resp, err := a.Clubs.Create(context.Background(), models.CreateClubRequest{
		Name:     "Chess",
		Category: "games",
		Contacts: []models.ClubContact{{Name: "Ana", Type: models.ContactEmail, Value: "ana@example.com", Primary: true}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(77), resp.GroupID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.last(t).Body, &body))
	require.Equal(t, "Chess", body["group_name"])
	require.Len(t, body["contact_info"], 1)
}

func TestClubAdminActionsUsePut(t *testing.T) {
	rec, a := newRecorder(t)
	ctx := context.Background()

	_, err := a.Clubs.Delete(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, recorded{Method: http.MethodPut, Path: "/api/admin/clubs/4/delete"}, stripBody(rec.last(t)))

	_, err = a.Clubs.Reactivate(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, "/api/admin/clubs/4/reactivate", rec.last(t).Path)

	_, err = a.Clubs.UpdateSettings(ctx, "4", map[string]any{"group_description": "new"})
	require.NoError(t, err)
	require.JSONEq(t, `{"group_description":"new"}`, string(rec.last(t).Body))
}

func stripBody(r recorded) recorded {
	return recorded{Method: r.Method, Path: r.Path}
}

func TestProcessJoinRequest(t *testing.T) {
	tests := []struct {
		approve bool
		want    string
	}{
		{true, `{"action":"Aprobado"}`},
		{false, `{"action":"Rechazado"}`},
	}
	for _, tt := range tests {
		rec, a := newRecorder(t)
		_, err := a.Admin.ProcessJoinRequest(context.Background(), "1", "99", tt.approve)
		require.NoError(t, err)
		last := rec.last(t)
		require.Equal(t, http.MethodPut, last.Method)
		require.Equal(t, "/api/admin/clubs/1/join-requests/99", last.Path)
		require.JSONEq(t, tt.want, string(last.Body))
	}
}

func TestExportMembersReturnsRawBody(t *testing.T) {
	rec, a := newRecorder(t)
	rec.replies["GET /api/admin/clubs/1/members/export"] = "name,email\nAna,ana@example.com\n"

	body, _, err := a.Admin.ExportMembers(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "name,email\nAna,ana@example.com\n", string(body))
}

func TestActivitiesResource(t *testing.T) {
	rec, a := newRecorder(t)
	ctx := context.Background()
	rec.replies["GET /api/activities/5"] = `{"activityId":5,"name":"Tournament","max_participants":16}`

	act, err := a.Activities.Get(ctx, "5")
	require.NoError(t, err)
	require.Equal(t, "Tournament", act.Name)
	require.Equal(t, 16, act.SeatsLeft())

	require.NoError(t, a.Activities.Delete(ctx, "5"))
	require.Equal(t, http.MethodDelete, rec.last(t).Method)

	require.NoError(t, a.Activities.AdminCancel(ctx, "5"))
	require.Equal(t, "/api/admin/activities/5", rec.last(t).Path)

	_, err = a.Activities.AdminCreate(ctx, "3", models.ActivityInput{Name: "Blitz"})
	require.NoError(t, err)
	require.Equal(t, "/api/admin/clubs/3/activities", rec.last(t).Path)
	require.JSONEq(t, `{"name":"Blitz"}`, string(rec.last(t).Body))
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadIsMultipart(t *testing.T) {
	rec, a := newRecorder(t)
	rec.replies["POST /api/images/upload"] = `{"url":"https://cdn.example.com/x.png"}`

	up, err := a.Images.Upload(context.Background(), "x.png", pngHeader, "Logo", "")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/x.png", up.URL)

	last := rec.last(t)
	mediaType, params, err := mime.ParseMediaType(last.ContentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	mr := multipart.NewReader(bytes.NewReader(last.Body), params["boundary"])
	form, err := mr.ReadForm(1 << 20)
	require.NoError(t, err)
	require.Equal(t, []string{"Logo"}, form.Value["title"])
	require.Len(t, form.File["image"], 1)
	require.Equal(t, "x.png", form.File["image"][0].Filename)
}

func TestValidateImage(t *testing.T) {
	require.ErrorIs(t, ValidateImage(nil), ErrEmptyImage)
	require.ErrorIs(t, ValidateImage(append(pngHeader, make([]byte, MaxImageSize)...)), ErrImageTooLarge)
	err := ValidateImage([]byte("plain text, not an image"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "text/plain"))
	require.NoError(t, ValidateImage(pngHeader))
}
