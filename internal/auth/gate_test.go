package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/middleware"
)

const uuidPattern = "{id:[0-9a-fA-F-]{36}}"

var testPublicRoutes = []Route{
	{http.MethodPost, "/api/v1/auth/signin"},
	{http.MethodGet, "/api/v1/rooms"},
	{http.MethodGet, "/api/v1/rooms/" + uuidPattern},
	{http.MethodGet, "/api/v1/users/" + uuidPattern},
}

type gateFixture struct {
	*refreshFixture
	gate   *Gate
	router chi.Router
	seen   *middleware.Claims
}

func newGateFixture(t *testing.T, opts ...RefresherOption) *gateFixture {
	t.Helper()
	f := &gateFixture{refreshFixture: newRefreshFixture(t, opts...)}
	f.gate = NewGate(f.issuer, f.refresher, NewCookies(false, 15*time.Minute, 240*time.Hour), testPublicRoutes, newTestLogger())

	capture := func(w http.ResponseWriter, r *http.Request) {
		f.seen, _ = middleware.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}
	r := chi.NewRouter()
	r.Use(f.gate.Middleware)
	r.Get("/api/v1/rooms", capture)
	r.Get("/api/v1/rooms/{id}", capture)
	r.Get("/api/v1/users/me", capture)
	r.Get("/api/v1/users/{id}", capture)
	r.Post("/api/v1/reservations", capture)
	f.router = r
	return f
}

func (f *gateFixture) do(method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *gateFixture) accessCookie() *http.Cookie {
	return &http.Cookie{Name: AccessCookie, Value: f.pair.AccessToken}
}

func (f *gateFixture) refreshCookie() *http.Cookie {
	return &http.Cookie{Name: RefreshCookie, Value: f.pair.RefreshToken}
}

func TestGate_IsPublic(t *testing.T) {
	f := newGateFixture(t)

	assert.True(t, f.gate.IsPublic(http.MethodPost, "/api/v1/auth/signin"))
	assert.True(t, f.gate.IsPublic(http.MethodGet, "/api/v1/rooms"))
	assert.True(t, f.gate.IsPublic(http.MethodGet, "/api/v1/users/7b6c1f7e-3f55-4a43-9a0e-2d1f1c1b0a01"))
	assert.True(t, f.gate.IsPublic(http.MethodOptions, "/api/v1/reservations"))

	assert.False(t, f.gate.IsPublic(http.MethodGet, "/api/v1/users/me"))
	assert.False(t, f.gate.IsPublic(http.MethodPost, "/api/v1/rooms"))
	assert.False(t, f.gate.IsPublic(http.MethodGet, "/api/v1/reservations"))
}

func TestGate_PublicAnonymous(t *testing.T) {
	f := newGateFixture(t)

	rr := f.do(http.MethodGet, "/api/v1/rooms")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, f.seen)
}

func TestGate_PublicWithValidTokenAttachesClaims(t *testing.T) {
	f := newGateFixture(t)

	rr := f.do(http.MethodGet, "/api/v1/rooms", f.accessCookie())

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, testIdentity.UserID, f.seen.UserID)
}

func TestGate_PublicWithExpiredTokenDoesNotRefresh(t *testing.T) {
	f := newGateFixture(t)
	f.clock.Advance(time.Hour)

	rr := f.do(http.MethodGet, "/api/v1/rooms", f.accessCookie(), f.refreshCookie())

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, f.seen)
	assert.Empty(t, rr.Result().Cookies())
	assert.Zero(t, f.sessions.gets.Load())
}

func TestGate_ProtectedValidAccess(t *testing.T) {
	f := newGateFixture(t)

	rr := f.do(http.MethodGet, "/api/v1/users/me", f.accessCookie())

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, testIdentity.Email, f.seen.Email)
	assert.Equal(t, f.session.ID, f.seen.SessionID)
	assert.Empty(t, rr.Result().Cookies())
	assert.Zero(t, f.sessions.gets.Load(), "valid access tokens never hit the store")
}

func TestGate_ProtectedBearerFallback(t *testing.T) {
	f := newGateFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
	req.Header.Set("Authorization", "Bearer "+f.pair.AccessToken)
	rr := httptest.NewRecorder()

	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.seen)
}

func TestGate_ProtectedRejections(t *testing.T) {
	tests := []struct {
		name    string
		cookies func(f *gateFixture) []*http.Cookie
	}{
		{"no token", func(f *gateFixture) []*http.Cookie { return nil }},
		{"garbage access token", func(f *gateFixture) []*http.Cookie {
			return []*http.Cookie{{Name: AccessCookie, Value: "garbage"}}
		}},
		{"refresh token in access cookie", func(f *gateFixture) []*http.Cookie {
			return []*http.Cookie{{Name: AccessCookie, Value: f.pair.RefreshToken}, f.refreshCookie()}
		}},
		{"expired access without refresh", func(f *gateFixture) []*http.Cookie {
			f.clock.Advance(time.Hour)
			return []*http.Cookie{f.accessCookie()}
		}},
		{"expired access with garbage refresh", func(f *gateFixture) []*http.Cookie {
			f.clock.Advance(time.Hour)
			return []*http.Cookie{f.accessCookie(), {Name: RefreshCookie, Value: "garbage"}}
		}},
		{"expired access and revoked session", func(f *gateFixture) []*http.Cookie {
			f.clock.Advance(time.Hour)
			f.sessions.Delete(f.session.ID)
			return []*http.Cookie{f.accessCookie(), f.refreshCookie()}
		}},
		{"expired access and store down", func(f *gateFixture) []*http.Cookie {
			f.clock.Advance(time.Hour)
			f.sessions.err = errStoreDown
			return []*http.Cookie{f.accessCookie(), f.refreshCookie()}
		}},
		{"session past its lifetime", func(f *gateFixture) []*http.Cookie {
			f.clock.Advance(domain.SessionLifetime)
			return []*http.Cookie{f.accessCookie(), f.refreshCookie()}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t)

			rr := f.do(http.MethodPost, "/api/v1/reservations", tt.cookies(f)...)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
			assert.Nil(t, f.seen)
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}

func TestGate_SilentRefresh(t *testing.T) {
	f := newGateFixture(t)
	f.clock.Advance(20 * time.Minute)

	rr := f.do(http.MethodPost, "/api/v1/reservations", f.accessCookie(), f.refreshCookie())

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, f.session.ID, f.seen.SessionID)
	assert.Equal(t, testIdentity.UserID, f.seen.UserID)

	cookies := cookiesByName(rr)
	require.Contains(t, cookies, AccessCookie)
	require.Contains(t, cookies, RefreshCookie)
	assert.NotEqual(t, f.pair.AccessToken, cookies[AccessCookie].Value)

	claims, err := f.issuer.ParseAccess(cookies[AccessCookie].Value)
	require.NoError(t, err)
	assert.Equal(t, f.session.ID, claims.SessionID)

	stored, _ := f.sessions.Session(f.session.ID)
	assert.Equal(t, f.clock.Now().Add(domain.SessionLifetime), stored.ExpiresAt)
}

func TestGate_RefreshCookieOnly(t *testing.T) {
	f := newGateFixture(t)
	f.clock.Advance(20 * time.Minute)

	rr := f.do(http.MethodGet, "/api/v1/users/me", f.refreshCookie())

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, f.session.ID, f.seen.SessionID)

	cookies := cookiesByName(rr)
	require.Contains(t, cookies, AccessCookie)
	require.Contains(t, cookies, RefreshCookie)
	_, err := f.issuer.ParseAccess(cookies[AccessCookie].Value)
	assert.NoError(t, err)
}

func TestGate_RefreshCookieOnlyRevokedSession(t *testing.T) {
	f := newGateFixture(t)
	f.sessions.Delete(f.session.ID)

	rr := f.do(http.MethodGet, "/api/v1/users/me", f.refreshCookie())

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, f.seen)
	assert.Empty(t, rr.Result().Cookies())
}

func TestGate_SilentRefreshWithRotation(t *testing.T) {
	f := newGateFixture(t, WithRotation(true))
	f.clock.Advance(20 * time.Minute)

	rr := f.do(http.MethodPost, "/api/v1/reservations", f.accessCookie(), f.refreshCookie())

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, f.seen)
	assert.NotEqual(t, f.session.ID, f.seen.SessionID)

	old, _ := f.sessions.Session(f.session.ID)
	assert.False(t, old.Valid)
}

func TestGate_RefreshSurvivesCanceledRequest(t *testing.T) {
	f := newGateFixture(t)
	f.clock.Advance(20 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil).WithContext(ctx)
	req.AddCookie(f.accessCookie())
	req.AddCookie(f.refreshCookie())
	rr := httptest.NewRecorder()

	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, rr.Result().Cookies(), 2)
}
