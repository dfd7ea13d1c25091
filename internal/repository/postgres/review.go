package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/database"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
)

var reviewColumns = []string{
	"id", "user_id", "room_id", "reservation_id", "rating", "comment", "created_at", "updated_at",
}

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. reservation_id is unique, so a second review of
// the same stay is rejected.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, room_id, reservation_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		rv.ID, rv.UserID, rv.RoomID, rv.ReservationID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "reservation_id", rv.ReservationID)
		}
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("reservation", rv.ReservationID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + strings.Join(reviewColumns, ", ") + ` FROM reviews WHERE id = $1`

	var rv domain.Review
	if err := scanReview(r.db.QueryRow(ctx, query, id), &rv); err != nil {
		return nil, notFound(err, "scan review")
	}
	return &rv, nil
}

// List returns reviews newest first.
func (r *ReviewRepository) List(ctx context.Context, page pagination.Params) ([]domain.Review, int, error) {
	return listPage(ctx, r.db, "Reviews", psql.Select().From("reviews"),
		reviewColumns, "created_at DESC, id", page, scanReview)
}

// ListByRoom returns the reviews of one room newest first.
func (r *ReviewRepository) ListByRoom(ctx context.Context, roomID string, page pagination.Params) ([]domain.Review, int, error) {
	base := psql.Select().From("reviews").Where(sq.Eq{"room_id": roomID})
	return listPage(ctx, r.db, "Reviews", base, reviewColumns, "created_at DESC, id", page, scanReview)
}

// Update rewrites the rating and comment of a review.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	rv.UpdatedAt = time.Now().UTC()

	ct, err := r.db.Exec(ctx,
		`UPDATE reviews SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4`,
		rv.Rating, rv.Comment, rv.UpdatedAt, rv.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rv.ID)
	}
	return nil
}

// Delete removes a review by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

func scanReview(row pgx.Row, rv *domain.Review) error {
	return row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.RoomID,
		&rv.ReservationID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
}
