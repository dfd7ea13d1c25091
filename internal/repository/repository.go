package repository

import (
	"context"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email (any case) yields
	// apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns one page of users and the total count.
	List(ctx context.Context, page pagination.Params) ([]domain.User, int, error)

	// SearchByName matches a case-insensitive substring of the full name.
	SearchByName(ctx context.Context, name string, page pagination.Params) ([]domain.User, int, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user and, by cascade, their rooms, reservations and
	// reviews.
	Delete(ctx context.Context, id string) error
}

// PlaceRepository defines the interface for place persistence operations.
type PlaceRepository interface {
	Create(ctx context.Context, place *domain.Place) error
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	List(ctx context.Context, page pagination.Params) ([]domain.Place, int, error)
	Update(ctx context.Context, place *domain.Place) error
	Delete(ctx context.Context, id string) error
}

// RoomFilter narrows a room listing. Zero fields are ignored.
type RoomFilter struct {
	PlaceID string
	OwnerID string
	// Keyword matches street, state, city or country case-insensitively.
	Keyword string
}

// RoomRepository defines the interface for room persistence operations.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context, filter RoomFilter, page pagination.Params) ([]domain.Room, int, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id string) error
}

// ReservationRepository defines the interface for reservation persistence.
type ReservationRepository interface {
	// Create inserts the reservation unless it overlaps another one for the
	// same room, in which case it returns apperrors.ErrConflict. The check
	// and the insert are atomic per room.
	Create(ctx context.Context, r *domain.Reservation) error

	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context, page pagination.Params) ([]domain.Reservation, int, error)
	ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Reservation, int, error)

	// Update rewrites dates, guests and price with the same overlap rule as
	// Create, ignoring the reservation itself.
	Update(ctx context.Context, r *domain.Reservation) error

	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review. A second review for the same reservation
	// yields apperrors.ErrAlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	GetByID(ctx context.Context, id string) (*domain.Review, error)
	List(ctx context.Context, page pagination.Params) ([]domain.Review, int, error)
	ListByRoom(ctx context.Context, roomID string, page pagination.Params) ([]domain.Review, int, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id string) error
}

// SessionStore persists login sessions. Missing, invalidated and expired
// sessions are indistinguishable to Get and Touch: all report
// apperrors.ErrNotFound.
type SessionStore interface {
	// Create starts a session for email valid for domain.SessionLifetime.
	Create(ctx context.Context, email string) (*domain.Session, error)

	// Get returns a usable session.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Touch pushes expiry to now + domain.SessionLifetime.
	Touch(ctx context.Context, id string) error

	// Delete removes the session. It reports whether anything was deleted
	// and never fails on a missing id.
	Delete(ctx context.Context, id string) (bool, error)

	// Invalidate marks the session unusable without deleting it.
	Invalidate(ctx context.Context, id string) error

	// DeleteByEmail removes every session of the account.
	DeleteByEmail(ctx context.Context, email string) (int, error)

	// SweepExpired deletes expired and invalidated sessions.
	SweepExpired(ctx context.Context) (int, error)
}
