package domain

import "time"

// Identity is an authentication account. It carries no role.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is an authenticated identity plus its bearer token
type Session struct {
	ID         string
	IdentityID string
	Email      string
	Token      string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
