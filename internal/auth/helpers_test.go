package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StayGo/internal/domain"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
)

const (
	testAccessSecret  = "access-secret-access-secret-0123"
	testRefreshSecret = "refresh-secret-refresh-secret-01"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
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

func newTestIssuer(clock *testClock) *TokenIssuer {
	return NewTokenIssuer(IssuerConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
		Issuer:        "staygo",
	}, WithIssuerClock(clock.Now))
}

// memSessions is an in-memory SessionStore with call counters.
type memSessions struct {
	mu       sync.Mutex
	clock    *testClock
	sessions map[string]*domain.Session
	err      error
	release  chan struct{}

	gets    atomic.Int32
	touches atomic.Int32
}

func newMemSessions(clock *testClock) *memSessions {
	return &memSessions{clock: clock, sessions: make(map[string]*domain.Session)}
}

func (m *memSessions) Create(_ context.Context, email string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	now := m.clock.Now()
	s := &domain.Session{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(email),
		Valid:     true,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionLifetime),
	}
	m.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.gets.Add(1)
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok || !s.Usable(m.clock.Now()) {
		return nil, apperrors.NotFound("session", id)
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Touch(_ context.Context, id string) error {
	m.touches.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return apperrors.NotFound("session", id)
	}
	s.ExpiresAt = m.clock.Now().Add(domain.SessionLifetime)
	return nil
}

func (m *memSessions) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return apperrors.NotFound("session", id)
	}
	s.Valid = false
	return nil
}

func (m *memSessions) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *memSessions) Session(id string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

var errStoreDown = errors.New("connection refused")
