package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/StayGo/internal/auth"
	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/event"
	redisrepo "github.com/utafrali/StayGo/internal/repository/redis"
	"github.com/utafrali/StayGo/internal/service"
	"github.com/utafrali/StayGo/pkg/health"
	"github.com/utafrali/StayGo/pkg/middleware"
)

const testPassword = "Str0ng!Pass"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// apiFixture is the whole HTTP stack: router, gate, services and a
// miniredis-backed session store, with mocked relational repositories.
type apiFixture struct {
	router       http.Handler
	clock        *testClock
	issuer       *auth.TokenIssuer
	sessions     *redisrepo.SessionStore
	users        *mockUserRepo
	places       *mockPlaceRepo
	rooms        *mockRoomRepo
	reservations *mockReservationRepo
	reviews      *mockReviewRepo
}

func newAPIFixture(t *testing.T, opts ...func(*RouterConfig)) *apiFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	clk := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	mr := miniredis.RunT(t)
	mr.SetTime(clk.Now())
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &apiFixture{
		clock:        clk,
		sessions:     redisrepo.NewSessionStore(client, redisrepo.WithClock(clk.Now)),
		users:        &mockUserRepo{},
		places:       &mockPlaceRepo{},
		rooms:        &mockRoomRepo{},
		reservations: &mockReservationRepo{},
		reviews:      &mockReviewRepo{},
	}
	f.issuer = auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret:  "access-secret-access-secret-0123",
		RefreshSecret: "refresh-secret-refresh-secret-01",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
		Issuer:        "staygo",
	}, auth.WithIssuerClock(clk.Now))

	reg := prometheus.NewRegistry()
	refresher := auth.NewRefresher(f.issuer, f.sessions, logger,
		auth.WithUserLookup(f.users),
		auth.WithRefreshMetrics(reg),
	)
	cookies := auth.NewCookies(false, f.issuer.AccessTTL(), f.issuer.RefreshTTL())
	producer := event.NewProducer(nopPublisher{}, logger)

	authSvc := service.NewAuthService(f.users, f.sessions, f.issuer, refresher, producer, logger,
		service.WithBcryptCost(bcrypt.MinCost))
	userSvc := service.NewUserService(f.users, f.sessions, producer, logger, bcrypt.MinCost)
	placeSvc := service.NewPlaceService(f.places, logger)
	roomSvc := service.NewRoomService(f.rooms, f.places, logger)
	reservationSvc := service.NewReservationService(f.reservations, f.rooms, f.users, producer, logger)
	reviewSvc := service.NewReviewService(f.reviews, f.reservations, f.rooms, producer, logger)

	rc := RouterConfig{
		ServiceName: "staygo",
		Gate:        auth.NewGate(f.issuer, refresher, cookies, PublicRoutes(), logger),
		Health:      health.NewHandler(),
		Metrics:     middleware.NewHTTPMetrics(reg, "staygo"),
		Gatherer:    reg,
		CORS:        middleware.CORSConfig{AllowedOrigins: []string{"*"}},
		PprofCIDRs:  []string{"127.0.0.0/8"},
		Logger:      logger,
	}
	for _, opt := range opts {
		opt(&rc)
	}
	f.router = NewRouter(rc, Handlers{
		Auth:        NewAuthHandler(authSvc, cookies, logger),
		User:        NewUserHandler(userSvc, logger),
		Place:       NewPlaceHandler(placeSvc, logger),
		Room:        NewRoomHandler(roomSvc, logger),
		Reservation: NewReservationHandler(reservationSvc, logger),
		Review:      NewReviewHandler(reviewSvc, logger),
	})
	return f
}

func newUser(t *testing.T, email, role string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test " + role,
		Role:         role,
	}
}

// login opens a session for user and returns the cookies a browser would
// hold after signing in.
func (f *apiFixture) login(t *testing.T, user *domain.User) []*http.Cookie {
	t.Helper()
	ctx := context.Background()
	sess, err := f.sessions.Create(ctx, user.Email)
	require.NoError(t, err)
	pair, err := f.issuer.Issue(ctx, domain.Identity{
		UserID: user.ID, Email: user.Email, Role: user.Role, SessionID: sess.ID,
	})
	require.NoError(t, err)
	return []*http.Cookie{
		{Name: auth.AccessCookie, Value: pair.AccessToken},
		{Name: auth.RefreshCookie, Value: pair.RefreshToken},
	}
}

func (f *apiFixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func responseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
