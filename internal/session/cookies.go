package session

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RefreshCookiesKey holds the backend's refresh cookies next to the credential,
// for processes that do not keep a cookie jar alive between requests.
const RefreshCookiesKey = "refreshCookies"

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SaveRefreshCookies persists cookies, removing the entry when there are none.
func SaveRefreshCookies(st Storage, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return st.Remove(RefreshCookiesKey)
	}
	saved := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	if err := st.Set(RefreshCookiesKey, string(data)); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}

// LoadRefreshCookies reads saved cookies. Unreadable entries are dropped.
func LoadRefreshCookies(st Storage) []*http.Cookie {
	raw, ok, err := st.Get(RefreshCookiesKey)
	if err != nil || !ok {
		return nil
	}
	var saved []savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		_ = st.Remove(RefreshCookiesKey)
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		if s.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value})
	}
	return cookies
}
