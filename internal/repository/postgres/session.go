package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/database"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
)

// SessionStore implements repository.SessionStore using PostgreSQL. Rows
// outlive their usefulness until SweepExpired removes them.
type SessionStore struct {
	db  database.DBTX
	now func() time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates a new PostgreSQL-backed session store.
func NewSessionStore(db database.DBTX, opts ...SessionOption) *SessionStore {
	s := &SessionStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session for email.
func (s *SessionStore) Create(ctx context.Context, email string) (_ *domain.Session, err error) {
	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Valid:     true,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionLifetime),
	}

	query := `INSERT INTO sessions (id, email, valid, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)`
	ctx, end := database.TraceQuery(ctx, "CreateSession", query)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, query, sess.ID, sess.Email, sess.Valid, sess.CreatedAt, sess.ExpiresAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get returns the session if it is valid and unexpired.
func (s *SessionStore) Get(ctx context.Context, id string) (_ *domain.Session, err error) {
	query := `
		SELECT id, email, valid, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND valid AND expires_at > $2`

	ctx, end := database.TraceQuery(ctx, "GetSession", query)
	defer func() { end(err) }()

	var sess domain.Session
	err = s.db.QueryRow(ctx, query, id, s.now().UTC()).
		Scan(&sess.ID, &sess.Email, &sess.Valid, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return nil, notFound(err, "scan session")
	}
	return &sess, nil
}

// Touch extends a usable session to now + domain.SessionLifetime.
func (s *SessionStore) Touch(ctx context.Context, id string) (err error) {
	query := `UPDATE sessions SET expires_at = $1 WHERE id = $2 AND valid AND expires_at > $3`

	ctx, end := database.TraceQuery(ctx, "TouchSession", query)
	defer func() { end(err) }()

	now := s.now().UTC()
	ct, err := s.db.Exec(ctx, query, now.Add(domain.SessionLifetime), id, now)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes the session row, reporting whether one existed.
func (s *SessionStore) Delete(ctx context.Context, id string) (_ bool, err error) {
	query := `DELETE FROM sessions WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteSession", query)
	defer func() { end(err) }()

	ct, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Invalidate marks the session unusable. A missing session is not an error.
func (s *SessionStore) Invalidate(ctx context.Context, id string) (err error) {
	query := `UPDATE sessions SET valid = FALSE WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "InvalidateSession", query)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// DeleteByEmail removes every session of the account.
func (s *SessionStore) DeleteByEmail(ctx context.Context, email string) (_ int, err error) {
	query := `DELETE FROM sessions WHERE email = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteSessionsByEmail", query)
	defer func() { end(err) }()

	ct, err := s.db.Exec(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return 0, fmt.Errorf("delete sessions by email: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// SweepExpired deletes invalidated and expired sessions.
func (s *SessionStore) SweepExpired(ctx context.Context) (_ int, err error) {
	query := `DELETE FROM sessions WHERE NOT valid OR expires_at <= $1`

	ctx, end := database.TraceQuery(ctx, "SweepSessions", query)
	defer func() { end(err) }()

	ct, err := s.db.Exec(ctx, query, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
