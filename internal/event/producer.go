package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/StayGo/internal/domain"
	pkgkafka "github.com/utafrali/StayGo/pkg/kafka"
	"github.com/utafrali/StayGo/pkg/logger"
)

// Topics of the StayGo domain events.
var (
	TopicUserRegistered      = pkgkafka.Topic("user", "registered")
	TopicReservationCreated  = pkgkafka.Topic("reservation", "created")
	TopicReservationCanceled = pkgkafka.Topic("reservation", "cancelled")
	TopicReviewCreated       = pkgkafka.Topic("review", "created")
	TopicSessionRevoked      = pkgkafka.Topic("session", "revoked")
)

// Aggregate types.
const (
	AggregateUser        = "user"
	AggregateReservation = "reservation"
	AggregateReview      = "review"
	AggregateSession     = "session"
)

// Source identifies events published by this service.
const Source = "staygo-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// ReservationData is the payload for reservation.created and
// reservation.cancelled events.
type ReservationData struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	RoomID      string `json:"room_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	TotalGuests int    `json:"total_guests"`
	TotalPrice  int64  `json:"total_price"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
	Rating int    `json:"rating"`
}

// SessionRevokedData is the payload for a session.revoked event. SessionID
// is empty when every session of the account was revoked.
type SessionRevokedData struct {
	Email     string `json:"email"`
	SessionID string `json:"session_id,omitempty"`
	Count     int    `json:"count"`
	Reason    string `json:"reason"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes StayGo domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateUser, UserRegisteredData{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	})
}

// PublishReservationCreated publishes a reservation.created event.
func (p *Producer) PublishReservationCreated(ctx context.Context, r *domain.Reservation) error {
	return p.publish(ctx, TopicReservationCreated, r.ID, AggregateReservation, reservationData(r))
}

// PublishReservationCancelled publishes a reservation.cancelled event.
func (p *Producer) PublishReservationCancelled(ctx context.Context, r *domain.Reservation) error {
	return p.publish(ctx, TopicReservationCanceled, r.ID, AggregateReservation, reservationData(r))
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, rv *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, rv.ID, AggregateReview, ReviewCreatedData{
		ID:     rv.ID,
		UserID: rv.UserID,
		RoomID: rv.RoomID,
		Rating: rv.Rating,
	})
}

// PublishSessionRevoked publishes a session.revoked event keyed by email.
func (p *Producer) PublishSessionRevoked(ctx context.Context, data SessionRevokedData) error {
	return p.publish(ctx, TopicSessionRevoked, data.Email, AggregateSession, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data,
		pkgkafka.CorrelatedWith(logger.CorrelationIDFromContext(ctx)),
		pkgkafka.WithMetadata("actor_id", logger.UserIDFromContext(ctx)),
		pkgkafka.WithMetadata("session_id", logger.SessionIDFromContext(ctx)),
	)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func reservationData(r *domain.Reservation) ReservationData {
	return ReservationData{
		ID:          r.ID,
		UserID:      r.UserID,
		RoomID:      r.RoomID,
		StartDate:   r.StartDate.Format("2006-01-02"),
		EndDate:     r.EndDate.Format("2006-01-02"),
		TotalGuests: r.TotalGuests,
		TotalPrice:  r.TotalPrice,
	}
}
