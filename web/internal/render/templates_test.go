package render

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/clubhouse/internal/dashboard"
	"github.com/devilmonastery/clubhouse/internal/models"
)

func loadEmbedded(t *testing.T) *TemplateSet {
	t.Helper()
	ts, err := LoadTemplates("", "UTC")
	require.NoError(t, err)
	return ts
}

func TestLoadTemplates(t *testing.T) {
	ts := loadEmbedded(t)

	requiredTemplates := []string{
		"login.html",
		"dashboard.html",
		"clubs.html",
		"club.html",
		"activities.html",
		"activity.html",
		"notifications.html",
		"admin_club.html",
		"error.html",
	}
	for _, required := range requiredTemplates {
		if !ts.Has(required) {
			t.Errorf("Expected template %q to be loaded, but it wasn't found", required)
		}
	}

	for _, name := range ts.Names() {
		if name == "" {
			t.Errorf("Found empty template name")
		}
	}
}

func TestLoadTemplatesFromDirectory(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/base.html":   {Data: []byte(`{{define "base"}}[{{block "content" .}}{{end}}]{{end}}`)},
		"components/nav.html": {Data: []byte(`{{define "nav"}}nav{{end}}`)},
		"pages/one.html":      {Data: []byte(`{{define "content"}}one {{.}}{{end}}`)},
		"pages/two.html":      {Data: []byte(`{{define "content"}}two {{.}}{{end}}`)},
	}
	ts, err := LoadTemplatesFS(fsys, "UTC")
	require.NoError(t, err)
	require.Equal(t, []string{"one.html", "two.html"}, ts.Names())

	var buf bytes.Buffer
	require.NoError(t, ts.Execute(&buf, "two.html", "x"))
	require.Equal(t, "[two x]", buf.String())
}

func TestLoadTemplatesNoPages(t *testing.T) {
	_, err := LoadTemplatesFS(fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}{{end}}`)},
	}, "UTC")
	require.Error(t, err)
}

func TestExecuteUnknownTemplate(t *testing.T) {
	ts := loadEmbedded(t)
	var buf bytes.Buffer
	require.Error(t, ts.Execute(&buf, "missing.html", nil))
}

func pageData(page string, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"User":        &models.UserProfile{ID: 7, FirstName: "Ana", LastName: "Ruiz"},
		"CurrentPage": page,
		"Flash":       "",
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// Each page must render its own blocks, never another page's.
func TestTemplatesDoNotCollide(t *testing.T) {
	ts := loadEmbedded(t)

	var buf bytes.Buffer
	err := ts.Execute(&buf, "clubs.html", pageData("clubs", map[string]interface{}{
		"Clubs":    []models.Club{{GroupID: 3, Name: "Chess Club", Description: "Weekly games"}},
		"Category": "",
		"Page":     1,
	}))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Clubs - Clubhouse")
	require.Contains(t, out, `href="/clubs/3/chess-club"`)
	require.Contains(t, out, "Weekly games")
	require.NotContains(t, out, "Sign in - Clubhouse")
	require.NotContains(t, out, "Dashboard - Clubhouse")
}

func TestLoginPageShowsExpiredNotice(t *testing.T) {
	ts := loadEmbedded(t)

	var buf bytes.Buffer
	err := ts.Execute(&buf, "login.html", map[string]interface{}{
		"User":        (*models.UserProfile)(nil),
		"CurrentPage": "login",
		"Expired":     true,
		"Next":        "/clubs",
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Your session has expired")
	require.Contains(t, buf.String(), `value="/clubs"`)
	require.NotContains(t, buf.String(), "Sign out")
}

func TestClubPageRendersMarkdownAndAdminLink(t *testing.T) {
	ts := loadEmbedded(t)
	admin := int64(7)

	var buf bytes.Buffer
	err := ts.Execute(&buf, "club.html", pageData("clubs", map[string]interface{}{
		"ClubPage": &dashboard.ClubPage{
			Club:    models.Club{GroupID: 3, Name: "Chess", Description: "**Bring** a board <script>x</script>", AdminID: &admin},
			IsAdmin: true,
		},
	}))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "<strong>Bring</strong>")
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, `/admin/clubs/3`)
	require.NotContains(t, out, "Request to join")
}

func TestActivityRowFormatsTime(t *testing.T) {
	ts := loadEmbedded(t)
	ten := 10

	var buf bytes.Buffer
	err := ts.Execute(&buf, "activities.html", pageData("activities", map[string]interface{}{
		"Activities": []models.Activity{{ActivityID: 9, Name: "Blitz Night", StartDate: "2026-03-02T18:30:00", MaxParticipants: &ten}},
	}))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Mon 02 Mar 2026 18:30")
	require.Contains(t, out, `/activities/9/blitz-night`)
	require.Contains(t, out, "10 left")
}

func TestFuncMapHelpers(t *testing.T) {
	fm := FuncMap("UTC")

	dict := fm["dict"].(func(...interface{}) map[string]interface{})
	require.Equal(t, map[string]interface{}{"a": 1}, dict("a", 1))
	require.Nil(t, dict("odd"))
	require.Nil(t, dict(1, 2))

	title := fm["title"].(func(string) string)
	require.Equal(t, "Active", title("ACTIVE"))
	require.Equal(t, "", title(""))

	asset := fm["assetURL"].(func(string) string)
	require.True(t, strings.HasPrefix(asset("app.css"), "/static/"+Version+"/"))
}
