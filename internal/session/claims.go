package session

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNoToken is returned when there is no credential to inspect
	ErrNoToken = errors.New("no token in session")

	// ErrInvalidToken is returned when the token cannot be parsed as a JWT
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is what the client can learn from a bearer token without verifying it.
// The backend remains the authority; these are for display and expiry hints.
type Claims struct {
	UserID    string
	Username  string
	Email     string
	Roles     []string
	ExpiresAt time.Time // zero if the token has no exp claim
}

// ParseClaims reads a JWT's claims without verifying its signature.
func ParseClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	c := &Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		c.UserID = sub
	}
	for _, key := range []string{"id", "user_id", "userId"} {
		if c.UserID != "" {
			break
		}
		switch v := claims[key].(type) {
		case string:
			c.UserID = v
		case float64:
			c.UserID = formatNumericID(v)
		}
	}
	if v, ok := claims["username"].(string); ok {
		c.Username = v
	}
	if v, ok := claims["email"].(string); ok {
		c.Email = v
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				c.Roles = append(c.Roles, s)
			}
		}
	} else if role, ok := claims["role"].(string); ok {
		c.Roles = []string{role}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	return c, nil
}

// Expired reports whether the token's exp claim lies before now.
// Tokens without exp are never considered expired; the backend decides.
func (c *Claims) Expired(clock clockwork.Clock) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return clock.Now().After(c.ExpiresAt)
}

// ExpiresIn returns the time left before expiry, negative once expired, and
// zero when the token carries no exp claim.
func (c *Claims) ExpiresIn(clock clockwork.Clock) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(clock.Now())
}

func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func formatNumericID(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}
