package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/event"
	"github.com/utafrali/StayGo/internal/repository"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
)

// ReviewInput holds the parameters for writing a review.
type ReviewInput struct {
	ReservationID string
	RoomID        string
	Rating        int
	Comment       string
}

func validateReview(rating int, comment string) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if strings.TrimSpace(comment) == "" {
		return apperrors.InvalidInput("comment is required")
	}
	return nil
}

// ReviewService manages reviews. A guest reviews a room once per stay.
type ReviewService struct {
	reviews      repository.ReviewRepository
	reservations repository.ReservationRepository
	rooms        repository.RoomRepository
	producer     *event.Producer
	logger       *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	reservations repository.ReservationRepository,
	rooms repository.RoomRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		reservations: reservations,
		rooms:        rooms,
		producer:     producer,
		logger:       logger,
	}
}

// Create reviews the room of one of actor's reservations.
func (s *ReviewService) Create(ctx context.Context, actor Actor, input ReviewInput) (*domain.Review, error) {
	if err := validateReview(input.Rating, input.Comment); err != nil {
		return nil, err
	}

	res, err := s.reservations.GetByID(ctx, input.ReservationID)
	if err != nil {
		return nil, mustExist(err, "reservation", input.ReservationID)
	}
	if !actor.Is(res.UserID) {
		return nil, apperrors.Forbidden("you can only review your own stays")
	}
	if input.RoomID == "" {
		input.RoomID = res.RoomID
	}
	if res.RoomID != input.RoomID {
		return nil, apperrors.InvalidInput("reservation is not for this room")
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:            uuid.New().String(),
		UserID:        actor.UserID,
		RoomID:        res.RoomID,
		ReservationID: res.ID,
		Rating:        input.Rating,
		Comment:       strings.TrimSpace(input.Comment),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	logPublishError(ctx, s.logger, "review.created",
		s.producer.PublishReviewCreated(ctx, review), slog.String("review_id", review.ID))

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("room_id", review.RoomID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}

// Get returns a review by id.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "review", id)
	}
	return review, nil
}

// List returns one page of all reviews.
func (s *ReviewService) List(ctx context.Context, page pagination.Params) ([]domain.Review, int, error) {
	return s.reviews.List(ctx, page)
}

// ListByRoom returns one page of a room's reviews.
func (s *ReviewService) ListByRoom(ctx context.Context, roomID string, page pagination.Params) ([]domain.Review, int, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, 0, mustExist(err, "room", roomID)
	}
	return s.reviews.ListByRoom(ctx, roomID, page)
}

// Update rewrites the rating and comment. Only the author may edit.
func (s *ReviewService) Update(ctx context.Context, actor Actor, id string, rating int, comment string) (*domain.Review, error) {
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "review", id)
	}
	if !actor.Is(review.UserID) {
		return nil, apperrors.Forbidden("you can only edit your own reviews")
	}

	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

// Delete removes a review. Authors and admins may delete.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return mustExist(err, "review", id)
	}
	if !actor.Is(review.UserID) && !actor.IsAdmin() {
		return apperrors.Forbidden("only the author or an admin can delete this review")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
