package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/StayGo/internal/domain"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
)

// ErrSessionRevoked is returned when a refresh token names a session that
// is missing, invalidated or expired.
var ErrSessionRevoked = errors.New("session revoked")

// SessionStore is the subset of the session store the refresh path needs.
type SessionStore interface {
	Create(ctx context.Context, email string) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Touch(ctx context.Context, id string) error
	Invalidate(ctx context.Context, id string) error
}

// UserLookup loads the account a session belongs to.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Refreshed is the outcome of a successful refresh.
type Refreshed struct {
	Claims *Claims
	Pair   *domain.TokenPair
}

// Refresher re-validates a refresh token against its session and issues a
// new pair bound to it. Concurrent refreshes of one session share a single
// store round-trip and a single new pair.
type Refresher struct {
	issuer   *TokenIssuer
	sessions SessionStore
	users    UserLookup
	logger   *slog.Logger
	rotate   bool
	group    singleflight.Group
	results  *prometheus.CounterVec
}

// RefresherOption customises a Refresher.
type RefresherOption func(*Refresher)

// WithRotation makes every refresh move the login to a fresh session and
// invalidate the old one instead of extending it.
func WithRotation(rotate bool) RefresherOption {
	return func(r *Refresher) { r.rotate = rotate }
}

// WithUserLookup makes every refresh re-read the account so that role
// changes apply to the next pair and deleted accounts cannot refresh.
func WithUserLookup(users UserLookup) RefresherOption {
	return func(r *Refresher) { r.users = users }
}

// WithRefreshMetrics counts refresh outcomes on reg.
func WithRefreshMetrics(reg prometheus.Registerer) RefresherOption {
	return func(r *Refresher) {
		r.results = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_refresh_total",
			Help: "Token refresh attempts by result",
		}, []string{"result"})
		reg.MustRegister(r.results)
	}
}

// NewRefresher creates a Refresher.
func NewRefresher(issuer *TokenIssuer, sessions SessionStore, logger *slog.Logger, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		issuer:   issuer,
		sessions: sessions,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh validates refreshToken and returns the new claims and pair. The
// store work runs detached from ctx cancellation so a disconnecting client
// cannot leave a touched session without the pair that goes with it.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (*Refreshed, error) {
	claims, err := r.issuer.ParseRefresh(refreshToken)
	if err != nil {
		r.count("rejected")
		return nil, err
	}

	v, err, shared := r.group.Do(claims.SessionID, func() (any, error) {
		return r.refresh(context.WithoutCancel(ctx), claims)
	})
	if err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			r.count("revoked")
		} else {
			r.count("error")
		}
		return nil, err
	}
	r.count("ok")

	if shared {
		r.logger.DebugContext(ctx, "refresh shared with concurrent request",
			slog.String("session_id", claims.SessionID),
		)
	}
	return v.(*Refreshed), nil
}

func (r *Refresher) refresh(ctx context.Context, claims *Claims) (*Refreshed, error) {
	sess, err := r.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !strings.EqualFold(sess.Email, claims.Email) {
		return nil, fmt.Errorf("%w: session belongs to another account", ErrSessionRevoked)
	}

	id := claims.Identity()
	if r.users != nil {
		user, err := r.users.GetByID(ctx, id.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: account no longer exists", ErrSessionRevoked)
			}
			return nil, fmt.Errorf("load user: %w", err)
		}
		if !strings.EqualFold(user.Email, sess.Email) {
			return nil, fmt.Errorf("%w: account email changed", ErrSessionRevoked)
		}
		id.Role = user.Role
	}

	if r.rotate {
		next, err := r.sessions.Create(ctx, sess.Email)
		if err != nil {
			return nil, fmt.Errorf("rotate session: %w", err)
		}
		if err := r.sessions.Invalidate(ctx, sess.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("invalidate rotated session: %w", err)
		}
		id.SessionID = next.ID
	} else if err := r.sessions.Touch(ctx, sess.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("touch session: %w", err)
	}

	pair, err := r.issuer.Issue(ctx, id)
	if err != nil {
		return nil, err
	}

	refreshed := *claims
	refreshed.SessionID = id.SessionID
	refreshed.Role = id.Role

	r.logger.InfoContext(ctx, "session refreshed",
		slog.String("user_id", id.UserID),
		slog.String("session_id", id.SessionID),
		slog.Bool("rotated", r.rotate),
	)

	return &Refreshed{Claims: &refreshed, Pair: pair}, nil
}

func (r *Refresher) count(result string) {
	if r.results != nil {
		r.results.WithLabelValues(result).Inc()
	}
}
