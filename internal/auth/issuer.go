package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/StayGo/internal/domain"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/middleware"
)

var (
	// ErrTokenExpired means the signature checked out but exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers empty, malformed, wrongly signed and wrong
	// algorithm tokens.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload shared by access and refresh tokens.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// Identity returns the bearer identity asserted by the claims.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{
		UserID:    c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		SessionID: c.SessionID,
	}
}

// RequestClaims converts to the request-scoped form handlers read.
func (c *Claims) RequestClaims() *middleware.Claims {
	return &middleware.Claims{
		UserID:    c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		SessionID: c.SessionID,
	}
}

// IssuerConfig configures a TokenIssuer.
type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenIssuer signs and verifies HS256 token pairs. It holds no state
// besides its keys.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// IssuerOption customises a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithIssuerClock overrides the time source used for iat, exp and
// validation.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) { i.now = now }
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(cfg IssuerConfig, opts ...IssuerOption) *TokenIssuer {
	i := &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// AccessTTL is the lifetime of issued access tokens.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Issue signs an access and a refresh token for id in parallel. Any failure
// is reported as an internal error.
func (i *TokenIssuer) Issue(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	if id.UserID == "" || id.SessionID == "" {
		return nil, apperrors.Internal(fmt.Errorf("issue tokens: identity missing user or session id"))
	}

	now := i.now().UTC()
	pair := &domain.TokenPair{
		AccessExpiresAt:  now.Add(i.accessTTL),
		RefreshExpiresAt: now.Add(i.refreshTTL),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		token, err := i.sign(ctx, id, now, pair.AccessExpiresAt, i.accessSecret)
		if err != nil {
			return fmt.Errorf("sign access token: %w", err)
		}
		pair.AccessToken = token
		return nil
	})
	g.Go(func() error {
		token, err := i.sign(ctx, id, now, pair.RefreshExpiresAt, i.refreshSecret)
		if err != nil {
			return fmt.Errorf("sign refresh token: %w", err)
		}
		pair.RefreshToken = token
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal(err)
	}

	return pair, nil
}

func (i *TokenIssuer) sign(ctx context.Context, id domain.Identity, now, exp time.Time, secret []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	claims := &Claims{
		Email:     id.Email,
		Role:      id.Role,
		SessionID: id.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccess verifies an access token.
func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, i.accessSecret)
}

// ParseRefresh verifies a refresh token.
func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, i.refreshSecret)
}

func (i *TokenIssuer) parse(token string, secret []byte) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing sub or sessionId", ErrTokenInvalid)
	}
	return claims, nil
}
