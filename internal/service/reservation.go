package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/event"
	"github.com/utafrali/StayGo/internal/repository"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
)

// ReservationInput holds the bookable fields of a reservation.
type ReservationInput struct {
	RoomID      string
	StartDate   time.Time
	EndDate     time.Time
	TotalGuests int
}

// ReservationService books rooms. The repository rejects overlapping stays
// atomically; this layer checks dates, capacity and ownership and prices
// the stay.
type ReservationService struct {
	reservations repository.ReservationRepository
	rooms        repository.RoomRepository
	users        repository.UserRepository
	producer     *event.Producer
	logger       *slog.Logger
}

// NewReservationService creates a new reservation service.
func NewReservationService(
	reservations repository.ReservationRepository,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		users:        users,
		producer:     producer,
		logger:       logger,
	}
}

// price checks input against the room and returns the total for the stay.
func (s *ReservationService) price(ctx context.Context, input ReservationInput) (int64, error) {
	if !input.EndDate.After(input.StartDate) {
		return 0, apperrors.InvalidInput("end date must be after start date")
	}
	if input.TotalGuests < 1 {
		return 0, apperrors.InvalidInput("total guests must be at least 1")
	}

	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		return 0, mustExist(err, "room", input.RoomID)
	}
	if input.TotalGuests > room.MaxGuests {
		return 0, apperrors.InvalidInput(fmt.Sprintf("room sleeps at most %d guests", room.MaxGuests))
	}

	return int64(domain.Nights(input.StartDate, input.EndDate)) * room.Price, nil
}

// Create books a room for actor.
func (s *ReservationService) Create(ctx context.Context, actor Actor, input ReservationInput) (*domain.Reservation, error) {
	total, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res := &domain.Reservation{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		RoomID:      input.RoomID,
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
		TotalGuests: input.TotalGuests,
		TotalPrice:  total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	logPublishError(ctx, s.logger, "reservation.created",
		s.producer.PublishReservationCreated(ctx, res), slog.String("reservation_id", res.ID))

	s.logger.InfoContext(ctx, "reservation created",
		slog.String("reservation_id", res.ID),
		slog.String("room_id", res.RoomID),
		slog.Int64("total_price", res.TotalPrice),
	)
	return res, nil
}

// Get returns a reservation to its guest or an admin.
func (s *ReservationService) Get(ctx context.Context, actor Actor, id string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "reservation", id)
	}
	if !actor.Is(res.UserID) && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("you can only view your own reservations")
	}
	return res, nil
}

// List returns one page of all reservations.
func (s *ReservationService) List(ctx context.Context, page pagination.Params) ([]domain.Reservation, int, error) {
	return s.reservations.List(ctx, page)
}

// ListByUser returns a user's reservations to that user or an admin.
func (s *ReservationService) ListByUser(ctx context.Context, actor Actor, userID string, page pagination.Params) ([]domain.Reservation, int, error) {
	if !actor.Is(userID) && !actor.IsAdmin() {
		return nil, 0, apperrors.Forbidden("you can only view your own reservations")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, mustExist(err, "user", userID)
	}
	return s.reservations.ListByUser(ctx, userID, page)
}

// Update moves a reservation to new dates or guest count and reprices it.
// Only the guest may change it; the room cannot change.
func (s *ReservationService) Update(ctx context.Context, actor Actor, id string, input ReservationInput) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "reservation", id)
	}
	if !actor.Is(res.UserID) {
		return nil, apperrors.Forbidden("you can only change your own reservations")
	}

	input.RoomID = res.RoomID
	total, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}

	res.StartDate = input.StartDate.UTC()
	res.EndDate = input.EndDate.UTC()
	res.TotalGuests = input.TotalGuests
	res.TotalPrice = total

	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	return res, nil
}

// Delete cancels a reservation. Only the guest may cancel.
func (s *ReservationService) Delete(ctx context.Context, actor Actor, id string) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return mustExist(err, "reservation", id)
	}
	if !actor.Is(res.UserID) {
		return apperrors.Forbidden("you can only cancel your own reservations")
	}

	if err := s.reservations.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	logPublishError(ctx, s.logger, "reservation.cancelled",
		s.producer.PublishReservationCancelled(ctx, res), slog.String("reservation_id", id))

	s.logger.InfoContext(ctx, "reservation cancelled", slog.String("reservation_id", id))
	return nil
}
