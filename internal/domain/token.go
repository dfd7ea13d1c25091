package domain

import "time"

// Identity is what a token pair asserts about its bearer.
type Identity struct {
	UserID    string
	Email     string
	Role      string
	SessionID string
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
