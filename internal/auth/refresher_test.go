package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StayGo/internal/domain"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
)

type refreshFixture struct {
	clock     *testClock
	issuer    *TokenIssuer
	sessions  *memSessions
	refresher *Refresher
	session   *domain.Session
	pair      *domain.TokenPair
}

func newRefreshFixture(t *testing.T, opts ...RefresherOption) *refreshFixture {
	t.Helper()
	f := &refreshFixture{clock: newTestClock()}
	f.issuer = newTestIssuer(f.clock)
	f.sessions = newMemSessions(f.clock)
	f.refresher = NewRefresher(f.issuer, f.sessions, newTestLogger(), opts...)

	var err error
	f.session, err = f.sessions.Create(context.Background(), "guest@example.com")
	require.NoError(t, err)

	id := testIdentity
	id.SessionID = f.session.ID
	f.pair, err = f.issuer.Issue(context.Background(), id)
	require.NoError(t, err)
	return f
}

func TestRefresh_TouchesSession(t *testing.T) {
	f := newRefreshFixture(t)
	f.clock.Advance(3 * 24 * time.Hour)

	out, err := f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, f.session.ID, out.Claims.SessionID)
	assert.Equal(t, testIdentity.UserID, out.Claims.Subject)

	access, err := f.issuer.ParseAccess(out.Pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.session.ID, access.SessionID)

	stored, ok := f.sessions.Session(f.session.ID)
	require.True(t, ok)
	assert.Equal(t, f.clock.Now().Add(domain.SessionLifetime), stored.ExpiresAt)
	assert.True(t, stored.Valid)
}

func TestRefresh_Rotation(t *testing.T) {
	f := newRefreshFixture(t, WithRotation(true))

	out, err := f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, f.session.ID, out.Claims.SessionID)
	old, _ := f.sessions.Session(f.session.ID)
	assert.False(t, old.Valid)
	fresh, ok := f.sessions.Session(out.Claims.SessionID)
	require.True(t, ok)
	assert.True(t, fresh.Valid)

	_, err = f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked, "old refresh token dies with its session")
}

func TestRefresh_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *refreshFixture) string
		want    error
	}{
		{"empty token", func(f *refreshFixture) string { return "" }, ErrTokenInvalid},
		{"access token", func(f *refreshFixture) string { return f.pair.AccessToken }, ErrTokenInvalid},
		{"expired token", func(f *refreshFixture) string {
			f.clock.Advance(241 * time.Hour)
			return f.pair.RefreshToken
		}, ErrTokenExpired},
		{"deleted session", func(f *refreshFixture) string {
			f.sessions.Delete(f.session.ID)
			return f.pair.RefreshToken
		}, ErrSessionRevoked},
		{"invalidated session", func(f *refreshFixture) string {
			_ = f.sessions.Invalidate(context.Background(), f.session.ID)
			return f.pair.RefreshToken
		}, ErrSessionRevoked},
		{"store failure", func(f *refreshFixture) string {
			f.sessions.err = errStoreDown
			return f.pair.RefreshToken
		}, errStoreDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRefreshFixture(t)
			token := tt.prepare(f)

			out, err := f.refresher.Refresh(context.Background(), token)

			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.sessions.touches.Load())
		})
	}
}

func TestRefresh_SessionOfAnotherAccount(t *testing.T) {
	f := newRefreshFixture(t)
	other, err := f.sessions.Create(context.Background(), "someone@example.com")
	require.NoError(t, err)

	id := testIdentity
	id.SessionID = other.ID
	pair, err := f.issuer.Issue(context.Background(), id)
	require.NoError(t, err)

	_, err = f.refresher.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

type stubUsers map[string]*domain.User

func (u stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return user, nil
}

func TestRefresh_ReadsCurrentRole(t *testing.T) {
	users := stubUsers{testIdentity.UserID: {ID: testIdentity.UserID, Email: testIdentity.Email, Role: domain.RoleAdmin}}
	f := newRefreshFixture(t, WithUserLookup(users))

	out, err := f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, out.Claims.Role)

	access, err := f.issuer.ParseAccess(out.Pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, access.Role)

	users[testIdentity.UserID].Role = domain.RoleUser
	out, err = f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, out.Claims.Role)
}

func TestRefresh_DeletedAccountIsRevoked(t *testing.T) {
	f := newRefreshFixture(t, WithUserLookup(stubUsers{}))

	_, err := f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.Zero(t, f.sessions.touches.Load())
}

func TestRefresh_CollapsesConcurrentCalls(t *testing.T) {
	f := newRefreshFixture(t)
	f.sessions.release = make(chan struct{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]*Refreshed, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(f.sessions.release)
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Same(t, results[0].Pair, results[i].Pair)
	}
	assert.Equal(t, int32(1), f.sessions.gets.Load())
	assert.Equal(t, int32(1), f.sessions.touches.Load())
}

func TestRefresh_SurvivesClientCancel(t *testing.T) {
	f := newRefreshFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.refresher.Refresh(ctx, f.pair.RefreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, out.Pair.AccessToken)
}

func TestRefresh_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newRefreshFixture(t, WithRefreshMetrics(reg))

	_, err := f.refresher.Refresh(context.Background(), f.pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.refresher.Refresh(context.Background(), "junk")
	require.Error(t, err)

	assert.Equal(t, float64(1), metricValue(t, f.refresher.results.WithLabelValues("ok")))
	assert.Equal(t, float64(1), metricValue(t, f.refresher.results.WithLabelValues("rejected")))
}

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if c := pb.GetCounter(); c != nil {
		return c.GetValue()
	}
	return pb.GetGauge().GetValue()
}
