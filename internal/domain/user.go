// Package domain defines the entities shared across PipeDeck services,
// repositories, and HTTP handlers.
package domain

import (
	"strings"
	"time"
)

// User is the identity derived from a hosted-auth session. It is never
// constructed independently of a Session.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate checks the minimal identity attributes.
func (u *User) Validate() error {
	if u.ID == "" {
		return NewValidationError("MISSING_USER_ID", "User ID is required", nil)
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return NewValidationError("INVALID_EMAIL", "A valid email address is required",
			map[string]interface{}{"field": "email"})
	}
	return nil
}

// Session is the token bundle issued by the hosted auth service. The token
// fields are owned by that service; this application only carries them.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// Expired reports whether the access token expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
