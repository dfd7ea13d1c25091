package domain

import "time"

// SessionLifetime is how long a session stays usable after creation or the
// last refresh.
const SessionLifetime = 10 * 24 * time.Hour

// Session is a server-side login record. Refresh tokens are only honoured
// while the session they name is valid and unexpired.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Usable reports whether the session may back a refresh at now.
func (s *Session) Usable(now time.Time) bool {
	return s.Valid && now.Before(s.ExpiresAt)
}
