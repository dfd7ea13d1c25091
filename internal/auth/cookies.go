package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/StayGo/internal/domain"
)

// Cookie names.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Cookies writes and clears the token cookies.
type Cookies struct {
	secure        bool
	accessMaxAge  int
	refreshMaxAge int
}

// NewCookies sizes the cookie lifetimes after the token lifetimes.
func NewCookies(secure bool, accessTTL, refreshTTL time.Duration) Cookies {
	return Cookies{
		secure:        secure,
		accessMaxAge:  int(accessTTL / time.Second),
		refreshMaxAge: int(refreshTTL / time.Second),
	}
}

// Set writes both token cookies.
func (c Cookies) Set(w http.ResponseWriter, pair *domain.TokenPair) {
	http.SetCookie(w, c.cookie(AccessCookie, pair.AccessToken, c.accessMaxAge))
	http.SetCookie(w, c.cookie(RefreshCookie, pair.RefreshToken, c.refreshMaxAge))
}

// Clear expires both token cookies.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookie, "", -1))
	http.SetCookie(w, c.cookie(RefreshCookie, "", -1))
}

func (c Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// AccessToken reads the access token from its cookie, falling back to an
// Authorization: Bearer header for non-browser clients.
func AccessToken(r *http.Request) string {
	if ck, err := r.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// RefreshToken reads the refresh token cookie.
func RefreshToken(r *http.Request) string {
	if ck, err := r.Cookie(RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}
