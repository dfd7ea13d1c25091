package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/StayGo/internal/auth"
	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/event"
	"github.com/utafrali/StayGo/internal/repository"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/validator"
)

// DefaultBcryptCost is the bcrypt cost for stored password hashes.
const DefaultBcryptCost = 10

const invalidCredentials = "invalid email or password"

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("staygo-dummy-password"), bcrypt.MinCost)

// SignInInput holds the credentials of a sign in.
type SignInInput struct {
	Email    string
	Password string
}

// SignUpInput holds the parameters for registering a new account.
type SignUpInput struct {
	Email     string
	Password  string
	FullName  string
	Phone     string
	Birthday  *time.Time
	Gender    string
	AvatarURL string
}

// AuthResult is a successful sign in: the user, their new session and the
// token pair bound to it.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
	Tokens  *domain.TokenPair
}

// AuthService implements sign up, sign in, logout and explicit refresh.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionStore
	issuer     *auth.TokenIssuer
	refresher  *auth.Refresher
	producer   *event.Producer
	logger     *slog.Logger
	bcryptCost int
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost overrides DefaultBcryptCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionStore,
	issuer *auth.TokenIssuer,
	refresher *auth.Refresher,
	producer *event.Producer,
	logger *slog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:      users,
		sessions:   sessions,
		issuer:     issuer,
		refresher:  refresher,
		producer:   producer,
		logger:     logger,
		bcryptCost: DefaultBcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyCredentials returns the user whose email and password match. An
// unknown email and a wrong password produce the same Unauthorized error.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	return user, nil
}

// SignIn verifies the credentials, opens a session and issues a token pair
// bound to it.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}

	user, err := s.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, user.Email)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create session: %w", err))
	}

	tokens, err := s.issuer.Issue(ctx, domain.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sess.ID,
	})
	if err != nil {
		if _, delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete session after issue failure",
				slog.String("session_id", sess.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
		slog.String("session_id", sess.ID),
	)

	return &AuthResult{User: user, Session: sess, Tokens: tokens}, nil
}

// SignUp registers a user with the user role. It does not sign them in.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	if !validator.IsStrongPassword(input.Password) {
		return nil, apperrors.InvalidInput("password must be at least 8 characters with upper, lower, digit and symbol")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Birthday:     input.Birthday,
		Gender:       input.Gender,
		AvatarURL:    input.AvatarURL,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logPublishError(ctx, s.logger, "user.registered",
		s.producer.PublishUserRegistered(ctx, user), slog.String("user_id", user.ID))

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Logout deletes the caller's session. A session that is already gone is
// not an error.
func (s *AuthService) Logout(ctx context.Context, actor Actor, sessionID string) error {
	deleted, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("delete session: %w", err))
	}

	if deleted {
		logPublishError(ctx, s.logger, "session.revoked",
			s.producer.PublishSessionRevoked(ctx, event.SessionRevokedData{
				Email: actor.Email, SessionID: sessionID, Count: 1, Reason: "logout",
			}), slog.String("session_id", sessionID))
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", actor.UserID),
		slog.String("session_id", sessionID),
		slog.Bool("session_existed", deleted),
	)
	return nil
}

// LogoutAll revokes every session of the caller's account.
func (s *AuthService) LogoutAll(ctx context.Context, actor Actor) (int, error) {
	n, err := s.sessions.DeleteByEmail(ctx, actor.Email)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("delete sessions: %w", err))
	}

	logPublishError(ctx, s.logger, "session.revoked",
		s.producer.PublishSessionRevoked(ctx, event.SessionRevokedData{
			Email: actor.Email, Count: n, Reason: "logout_all",
		}), slog.String("user_id", actor.UserID))

	s.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("user_id", actor.UserID),
		slog.Int("count", n),
	)
	return n, nil
}

// Refresh exchanges a refresh token for a new pair if its session is still
// usable. Every failure is Unauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Refreshed, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("refresh token is required")
	}

	refreshed, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.DebugContext(ctx, "explicit refresh rejected", slog.String("error", err.Error()))
		return nil, apperrors.Unauthorized("session expired, please sign in again")
	}
	return refreshed, nil
}
