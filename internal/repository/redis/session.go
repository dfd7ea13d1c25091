// Package redis holds the Redis implementation of the session store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/database"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
)

const (
	sessionPrefix = "session:id:"
	emailPrefix   = "session:email:"

	// expiryGrace keeps a key around a little past its expiry so a sweep
	// can still count it.
	expiryGrace = time.Hour

	fieldEmail     = "email"
	fieldValid     = "valid"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

func sessionKey(id string) string { return sessionPrefix + id }

func emailKey(email string) string { return emailPrefix + email }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SessionStore implements repository.SessionStore using Redis. Each session
// is a hash under session:id:<id>; session:email:<email> is a set of the
// account's session ids that expires with the account's latest session.
type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates a new Redis-backed session store.
func NewSessionStore(client *redis.Client, opts ...Option) *SessionStore {
	s := &SessionStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session for email.
func (s *SessionStore) Create(ctx context.Context, email string) (_ *domain.Session, err error) {
	ctx, end := database.TraceCommand(ctx, "CreateSession", "HSET")
	defer func() { end(err) }()

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		Email:     normalizeEmail(email),
		Valid:     true,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionLifetime),
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		key := sessionKey(sess.ID)
		pipe.HSet(ctx, key, encode(sess))
		pipe.ExpireAt(ctx, key, sess.ExpiresAt.Add(expiryGrace))
		pipe.SAdd(ctx, emailKey(sess.Email), sess.ID)
		pipe.ExpireAt(ctx, emailKey(sess.Email), sess.ExpiresAt.Add(expiryGrace))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis create session: %w", err)
	}
	return sess, nil
}

// Get returns the session if it is valid and unexpired.
func (s *SessionStore) Get(ctx context.Context, id string) (_ *domain.Session, err error) {
	ctx, end := database.TraceCommand(ctx, "GetSession", "HGETALL")
	defer func() { end(err) }()

	sess, err := s.load(ctx, s.client, id)
	if err != nil {
		return nil, err
	}
	if !sess.Usable(s.now()) {
		return nil, apperrors.ErrNotFound
	}
	return sess, nil
}

// Touch extends a usable session to now + domain.SessionLifetime. The read
// and the write run under WATCH so a concurrent Invalidate wins.
func (s *SessionStore) Touch(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceCommand(ctx, "TouchSession", "HSET")
	defer func() { end(err) }()

	key := sessionKey(id)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		sess, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if !sess.Usable(now) {
			return apperrors.ErrNotFound
		}

		expiresAt := now.Add(domain.SessionLifetime)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldExpiresAt, formatTime(expiresAt))
			pipe.ExpireAt(ctx, key, expiresAt.Add(expiryGrace))
			pipe.ExpireAt(ctx, emailKey(sess.Email), expiresAt.Add(expiryGrace))
			return nil
		})
		return err
	}, key)
	return s.txError("touch", err)
}

// Delete removes the session, reporting whether one existed.
func (s *SessionStore) Delete(ctx context.Context, id string) (_ bool, err error) {
	ctx, end := database.TraceCommand(ctx, "DeleteSession", "DEL")
	defer func() { end(err) }()

	key := sessionKey(id)
	email, err := s.client.HGet(ctx, key, fieldEmail).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis get session email: %w", err)
	}

	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, key)
		if email != "" {
			pipe.SRem(ctx, emailKey(email), id)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis delete session: %w", err)
	}
	return del.Val() > 0, nil
}

// Invalidate marks the session unusable. A missing session is not an error.
func (s *SessionStore) Invalidate(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceCommand(ctx, "InvalidateSession", "HSET")
	defer func() { end(err) }()

	key := sessionKey(id)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil || n == 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldValid, "0")
			return nil
		})
		return err
	}, key)
	return s.txError("invalidate", err)
}

// DeleteByEmail removes every session of the account.
func (s *SessionStore) DeleteByEmail(ctx context.Context, email string) (_ int, err error) {
	ctx, end := database.TraceCommand(ctx, "DeleteSessionsByEmail", "DEL")
	defer func() { end(err) }()

	index := emailKey(normalizeEmail(email))
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}

	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			del = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, index)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete sessions: %w", err)
	}
	if del == nil {
		return 0, nil
	}
	return int(del.Val()), nil
}

// SweepExpired deletes invalidated and expired sessions, then drops ids of
// sessions Redis has already evicted from their email index. Evicted
// sessions are not counted.
func (s *SessionStore) SweepExpired(ctx context.Context) (_ int, err error) {
	ctx, end := database.TraceCommand(ctx, "SweepSessions", "SCAN")
	defer func() { end(err) }()

	now := s.now()
	swept := 0
	iter := s.client.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), sessionPrefix)
		sess, err := s.load(ctx, s.client, id)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return swept, err
		}
		if sess.Usable(now) {
			continue
		}
		deleted, err := s.Delete(ctx, id)
		if err != nil {
			return swept, err
		}
		if deleted {
			swept++
		}
	}
	if err := iter.Err(); err != nil {
		return swept, fmt.Errorf("redis scan sessions: %w", err)
	}
	return swept, s.pruneEmailIndex(ctx)
}

func (s *SessionStore) pruneEmailIndex(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, emailPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		index := iter.Val()
		ids, err := s.client.SMembers(ctx, index).Result()
		if err != nil {
			return fmt.Errorf("redis list sessions: %w", err)
		}
		if len(ids) == 0 {
			continue
		}

		exists := make([]*redis.IntCmd, len(ids))
		_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, id := range ids {
				exists[i] = pipe.Exists(ctx, sessionKey(id))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis check sessions: %w", err)
		}

		var stale []any
		for i, cmd := range exists {
			if cmd.Val() == 0 {
				stale = append(stale, ids[i])
			}
		}
		if len(stale) == 0 {
			continue
		}
		if err := s.client.SRem(ctx, index, stale...).Err(); err != nil {
			return fmt.Errorf("redis prune email index: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan email index: %w", err)
	}
	return nil
}

func (s *SessionStore) load(ctx context.Context, c redis.Cmdable, id string) (*domain.Session, error) {
	fields, err := c.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return decode(id, fields)
}

func (s *SessionStore) txError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrNotFound):
		return err
	case errors.Is(err, redis.TxFailedErr):
		// Lost the race against a concurrent write to the same session.
		return apperrors.ErrNotFound
	default:
		return fmt.Errorf("redis %s session: %w", op, err)
	}
}

func encode(sess *domain.Session) map[string]any {
	valid := "0"
	if sess.Valid {
		valid = "1"
	}
	return map[string]any{
		fieldEmail:     sess.Email,
		fieldValid:     valid,
		fieldCreatedAt: formatTime(sess.CreatedAt),
		fieldExpiresAt: formatTime(sess.ExpiresAt),
	}
}

func decode(id string, fields map[string]string) (*domain.Session, error) {
	createdAt, err := parseTime(fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("decode session %s created_at: %w", id, err)
	}
	expiresAt, err := parseTime(fields[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("decode session %s expires_at: %w", id, err)
	}
	return &domain.Session{
		ID:        id,
		Email:     fields[fieldEmail],
		Valid:     fields[fieldValid] == "1",
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseTime(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
