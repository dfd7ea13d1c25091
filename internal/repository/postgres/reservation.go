package postgres

import (
	"context"
	"errors"
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

var reservationColumns = []string{
	"id", "user_id", "room_id", "start_date", "end_date",
	"total_guests", "total_price", "created_at", "updated_at",
}

const (
	lockRoomSQL = `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`

	// Half-open intervals: a stay ending on a day does not clash with one
	// starting that day.
	overlapSQL = `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE room_id = $1 AND start_date < $2 AND end_date > $3 AND id <> $4
		)`
)

// ReservationRepository implements repository.ReservationRepository using
// PostgreSQL. Writes lock the room row so concurrent bookings of one room
// are checked for overlap one at a time.
type ReservationRepository struct {
	db database.DBTX
}

// NewReservationRepository creates a new PostgreSQL-backed reservation
// repository.
func NewReservationRepository(db database.DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts res if the room is free for its dates.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.withRoomLock(ctx, res, func(tx pgx.Tx) error {
		query := `
			INSERT INTO reservations (id, user_id, room_id, start_date, end_date, total_guests, total_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		_, err := tx.Exec(ctx, query,
			res.ID, res.UserID, res.RoomID, res.StartDate, res.EndDate,
			res.TotalGuests, res.TotalPrice, res.CreatedAt, res.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.NotFound("user", res.UserID)
			}
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a reservation by its ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + strings.Join(reservationColumns, ", ") + ` FROM reservations WHERE id = $1`

	var res domain.Reservation
	if err := scanReservation(r.db.QueryRow(ctx, query, id), &res); err != nil {
		return nil, notFound(err, "scan reservation")
	}
	return &res, nil
}

// List returns every reservation, most recent stay first.
func (r *ReservationRepository) List(ctx context.Context, page pagination.Params) ([]domain.Reservation, int, error) {
	return listPage(ctx, r.db, "Reservations", psql.Select().From("reservations"),
		reservationColumns, "start_date DESC, id", page, scanReservation)
}

// ListByUser returns the reservations made by userID.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Reservation, int, error) {
	base := psql.Select().From("reservations").Where(sq.Eq{"user_id": userID})
	return listPage(ctx, r.db, "Reservations", base, reservationColumns, "start_date DESC, id", page, scanReservation)
}

// Update rewrites the dates, guests and price of res if the room is free
// for the new dates.
func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	res.UpdatedAt = time.Now().UTC()

	return r.withRoomLock(ctx, res, func(tx pgx.Tx) error {
		query := `
			UPDATE reservations
			SET start_date = $1, end_date = $2, total_guests = $3, total_price = $4, updated_at = $5
			WHERE id = $6`

		ct, err := tx.Exec(ctx, query,
			res.StartDate, res.EndDate, res.TotalGuests, res.TotalPrice, res.UpdatedAt, res.ID,
		)
		if err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("reservation", res.ID)
		}
		return nil
	})
}

// Delete removes a reservation by its ID.
func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("reservation", id)
	}
	return nil
}

// withRoomLock runs write in a transaction that holds the room row lock and
// has found no other reservation of the room overlapping res.
func (r *ReservationRepository) withRoomLock(ctx context.Context, res *domain.Reservation, write func(pgx.Tx) error) (err error) {
	ctx, end := database.TraceQuery(ctx, "ReserveRoom", overlapSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	if err := tx.QueryRow(ctx, lockRoomSQL, res.RoomID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("room", res.RoomID)
		}
		return fmt.Errorf("lock room: %w", err)
	}

	var taken bool
	if err := tx.QueryRow(ctx, overlapSQL, res.RoomID, res.EndDate, res.StartDate, res.ID).Scan(&taken); err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return apperrors.Conflict("room is already booked for the requested dates")
	}

	if err := write(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanReservation(row pgx.Row, res *domain.Reservation) error {
	return row.Scan(
		&res.ID,
		&res.UserID,
		&res.RoomID,
		&res.StartDate,
		&res.EndDate,
		&res.TotalGuests,
		&res.TotalPrice,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
}
