package urlutil

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// ClubPath builds the web path for a club: /clubs/{id}/{slug}.
// The slug is decoration; routing only uses the id.
func ClubPath(clubID int64, name string) string {
	p := "/clubs/" + strconv.FormatInt(clubID, 10)
	if s := slug.Make(name); s != "" {
		p += "/" + s
	}
	return p
}

// ActivityPath builds the web path for an activity: /activities/{id}/{slug}.
func ActivityPath(activityID int64, name string) string {
	p := "/activities/" + strconv.FormatInt(activityID, 10)
	if s := slug.Make(name); s != "" {
		p += "/" + s
	}
	return p
}

// BuildClubViewURL builds an absolute URL for viewing a club on the web dashboard.
func BuildClubViewURL(baseURL string, clubID int64, name string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + ClubPath(clubID, name)
	return u.String(), nil
}

// LoginURL returns the login page path that sends the user back to next.
// expired marks a forced logout after the session could not be renewed.
func LoginURL(next string, expired bool) string {
	q := url.Values{}
	if expired {
		q.Set("expired", "1")
	}
	if next = SafeNext(next); next != "/" {
		q.Set("next", next)
	}
	if len(q) == 0 {
		return "/login"
	}
	return "/login?" + q.Encode()
}

// SafeNext keeps only same-site absolute paths, falling back to "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}
