// Package service holds StayGo's business rules. Handlers pass the caller
// as an Actor; services decide what that caller may do.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/StayGo/internal/domain"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// Is reports whether the actor is the user with the given id.
func (a Actor) Is(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}

// mustExist turns a bare repository ErrNotFound into a NotFound naming the
// resource and id. Other errors pass through.
func mustExist(err error, resource, id string) error {
	var appErr *apperrors.AppError
	if errors.Is(err, apperrors.ErrNotFound) && !errors.As(err, &appErr) {
		return apperrors.NotFound(resource, id)
	}
	return err
}

// logPublishError logs a failed event publish. Events are best effort and
// never fail the request that produced them.
func logPublishError(ctx context.Context, logger *slog.Logger, event string, err error, attrs ...any) {
	if err == nil {
		return
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	logger.ErrorContext(ctx, "failed to publish "+event+" event", attrs...)
}
