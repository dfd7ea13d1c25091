package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/event"
	"github.com/utafrali/StayGo/internal/repository"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
	"github.com/utafrali/StayGo/pkg/validator"
)

// CreateUserInput holds the parameters for an admin creating an account.
type CreateUserInput struct {
	SignUpInput
	Role string
}

// UpdateUserInput holds the parameters for updating a user. Nil fields are
// left unchanged.
type UpdateUserInput struct {
	FullName  *string
	Phone     *string
	Birthday  *time.Time
	Gender    *string
	AvatarURL *string
	Role      *string
	Password  *string
}

// UserService implements user administration and profiles.
type UserService struct {
	users      repository.UserRepository
	sessions   repository.SessionStore
	producer   *event.Producer
	logger     *slog.Logger
	bcryptCost int
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	sessions repository.SessionStore,
	producer *event.Producer,
	logger *slog.Logger,
	bcryptCost int,
) *UserService {
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &UserService{
		users:      users,
		sessions:   sessions,
		producer:   producer,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Create adds an account with any valid role.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if !domain.IsValidRole(input.Role) {
		return nil, apperrors.InvalidInput("role must be one of: " + strings.Join(domain.ValidRoles(), ", "))
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
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Birthday:     input.Birthday,
		Gender:       input.Gender,
		AvatarURL:    input.AvatarURL,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logPublishError(ctx, s.logger, "user.registered",
		s.producer.PublishUserRegistered(ctx, user), slog.String("user_id", user.ID))

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "user", id)
	}
	return user, nil
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, page pagination.Params) ([]domain.User, int, error) {
	return s.users.List(ctx, page)
}

// Search matches users by a substring of their full name.
func (s *UserService) Search(ctx context.Context, name string, page pagination.Params) ([]domain.User, int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, apperrors.InvalidInput("name is required")
	}
	return s.users.SearchByName(ctx, name, page)
}

// Update changes a profile. Users may edit themselves; only admins may edit
// others or change a role.
func (s *UserService) Update(ctx context.Context, actor Actor, id string, input UpdateUserInput) (*domain.User, error) {
	if !actor.Is(id) && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("you can only update your own profile")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "user", id)
	}

	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			return nil, apperrors.InvalidInput("full name must not be empty")
		}
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Birthday != nil {
		user.Birthday = input.Birthday
	}
	if input.Gender != nil {
		user.Gender = *input.Gender
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	var revokeReason string
	if input.Role != nil && *input.Role != user.Role {
		if !actor.IsAdmin() {
			return nil, apperrors.Forbidden("only admins can change roles")
		}
		if !domain.IsValidRole(*input.Role) {
			return nil, apperrors.InvalidInput("role must be one of: " + strings.Join(domain.ValidRoles(), ", "))
		}
		user.Role = *input.Role
		revokeReason = "role_changed"
	}
	if input.Password != nil {
		if !validator.IsStrongPassword(*input.Password) {
			return nil, apperrors.InvalidInput("password must be at least 8 characters with upper, lower, digit and symbol")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = string(hash)
		revokeReason = "password_changed"
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	// Outstanding logins carry the old role or were opened with the old
	// password, so they are signed out.
	revoked := 0
	if revokeReason != "" {
		revoked, err = s.sessions.DeleteByEmail(ctx, user.Email)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("revoke sessions: %w", err))
		}
		logPublishError(ctx, s.logger, "session.revoked",
			s.producer.PublishSessionRevoked(ctx, event.SessionRevokedData{
				Email: user.Email, Count: revoked, Reason: revokeReason,
			}), slog.String("user_id", user.ID))
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", user.ID),
		slog.String("by", actor.UserID),
		slog.Int("sessions_revoked", revoked),
	)
	return user, nil
}

// Delete removes an account and revokes all of its sessions. Users may
// delete themselves; admins may delete anyone.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.Is(id) && !actor.IsAdmin() {
		return apperrors.Forbidden("you can only delete your own account")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mustExist(err, "user", id)
	}

	// Sessions go first so a failed revoke leaves the account intact.
	n, err := s.sessions.DeleteByEmail(ctx, user.Email)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("revoke sessions: %w", err))
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	logPublishError(ctx, s.logger, "session.revoked",
		s.producer.PublishSessionRevoked(ctx, event.SessionRevokedData{
			Email: user.Email, Count: n, Reason: "user_deleted",
		}), slog.String("user_id", id))

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
		slog.String("by", actor.UserID),
		slog.Int("sessions_revoked", n),
	)
	return nil
}
