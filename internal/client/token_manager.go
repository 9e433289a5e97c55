package client

// TokenStore is where the gateway reads and publishes the bearer credential.
// Different implementations keep it on disk (CLI), per browser session (web) or in memory (tests).
type TokenStore interface {
	// Token returns the current credential and whether one exists
	Token() (token string, ok bool)

	// SetToken persists and publishes a refreshed credential
	SetToken(token string) error

	// ClearToken removes stored credentials
	ClearToken() error
}
