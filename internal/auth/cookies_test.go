package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StayGo/internal/domain"
)

func cookiesByName(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rr.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestCookies_Set(t *testing.T) {
	c := NewCookies(true, 15*time.Minute, 240*time.Hour)
	rr := httptest.NewRecorder()

	c.Set(rr, &domain.TokenPair{AccessToken: "acc", RefreshToken: "ref"})

	got := cookiesByName(rr)
	require.Len(t, got, 2)

	access := got[AccessCookie]
	assert.Equal(t, "acc", access.Value)
	assert.Equal(t, 900, access.MaxAge)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := got[RefreshCookie]
	assert.Equal(t, "ref", refresh.Value)
	assert.Equal(t, 864000, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)
}

func TestCookies_Clear(t *testing.T) {
	c := NewCookies(false, 15*time.Minute, 240*time.Hour)
	rr := httptest.NewRecorder()

	c.Clear(rr)

	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := cookiesByName(rr)[name]
		require.NotNil(t, ck, name)
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
		assert.False(t, ck.Secure)
	}
	assert.Contains(t, rr.Header().Values("Set-Cookie")[0], "Max-Age=0")
}

func TestAccessToken_CookieThenBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, AccessToken(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", AccessToken(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, AccessToken(req))

	req.Header.Set("Authorization", "bearer header-token")
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", AccessToken(req))
}

func TestRefreshToken_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RefreshToken(req))

	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "r"})
	assert.Equal(t, "r", RefreshToken(req))
}
