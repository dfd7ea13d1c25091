package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/repository"
	"github.com/utafrali/StayGo/pkg/database"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
)

var roomColumns = []string{
	"id", "owner_id", "place_id", "title", "description",
	"max_guests", "bedrooms", "beds", "bathrooms", "price",
	"has_tv", "has_kitchen", "has_air_con", "has_wifi", "has_washer",
	"has_iron", "has_pool", "has_parking", "pets_allowed",
	"latitude", "longitude", "image_url",
	"street", "state", "city", "country", "room_type",
	"created_at", "updated_at",
}

// RoomRepository implements repository.RoomRepository using PostgreSQL.
type RoomRepository struct {
	db database.DBTX
}

// NewRoomRepository creates a new PostgreSQL-backed room repository.
func NewRoomRepository(db database.DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// roomValues lists a room's column values in roomColumns order.
func roomValues(rm *domain.Room) []any {
	a := rm.Amenities
	return []any{
		rm.ID, rm.OwnerID, rm.PlaceID, rm.Title, rm.Description,
		rm.MaxGuests, rm.Bedrooms, rm.Beds, rm.Bathrooms, rm.Price,
		a.TV, a.Kitchen, a.AirCon, a.WiFi, a.Washer,
		a.Iron, a.Pool, a.Parking, a.PetsAllowed,
		rm.Latitude, rm.Longitude, rm.ImageURL,
		rm.Address.Street, rm.Address.State, rm.Address.City, rm.Address.Country, rm.RoomType,
		rm.CreatedAt, rm.UpdatedAt,
	}
}

// Create inserts a new room.
func (r *RoomRepository) Create(ctx context.Context, rm *domain.Room) error {
	query, args, err := psql.Insert("rooms").Columns(roomColumns...).Values(roomValues(rm)...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert room: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("place", rm.PlaceID)
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetByID retrieves a room by its ID.
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	query := `SELECT ` + strings.Join(roomColumns, ", ") + ` FROM rooms WHERE id = $1`

	var rm domain.Room
	if err := scanRoom(r.db.QueryRow(ctx, query, id), &rm); err != nil {
		return nil, notFound(err, "scan room")
	}
	return &rm, nil
}

// List returns rooms matching filter, newest first.
func (r *RoomRepository) List(ctx context.Context, filter repository.RoomFilter, page pagination.Params) ([]domain.Room, int, error) {
	base := psql.Select().From("rooms")
	if filter.PlaceID != "" {
		base = base.Where(sq.Eq{"place_id": filter.PlaceID})
	}
	if filter.OwnerID != "" {
		base = base.Where(sq.Eq{"owner_id": filter.OwnerID})
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := "%" + escapeLike(kw) + "%"
		base = base.Where(sq.Or{
			sq.ILike{"street": pattern},
			sq.ILike{"state": pattern},
			sq.ILike{"city": pattern},
			sq.ILike{"country": pattern},
		})
	}
	return listPage(ctx, r.db, "Rooms", base, roomColumns, "created_at DESC, id", page, scanRoom)
}

// Update rewrites every mutable column of the room.
func (r *RoomRepository) Update(ctx context.Context, rm *domain.Room) error {
	rm.UpdatedAt = time.Now().UTC()

	set := make(map[string]any, len(roomColumns))
	values := roomValues(rm)
	for i, col := range roomColumns {
		switch col {
		case "id", "owner_id", "created_at":
			continue
		}
		set[col] = values[i]
	}

	query, args, err := psql.Update("rooms").SetMap(set).Where(sq.Eq{"id": rm.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update room: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("place", rm.PlaceID)
		}
		return fmt.Errorf("update room: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("room", rm.ID)
	}
	return nil
}

// Delete removes a room and, by cascade, its reservations and reviews.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("room", id)
	}
	return nil
}

func scanRoom(row pgx.Row, rm *domain.Room) error {
	a := &rm.Amenities
	return row.Scan(
		&rm.ID, &rm.OwnerID, &rm.PlaceID, &rm.Title, &rm.Description,
		&rm.MaxGuests, &rm.Bedrooms, &rm.Beds, &rm.Bathrooms, &rm.Price,
		&a.TV, &a.Kitchen, &a.AirCon, &a.WiFi, &a.Washer,
		&a.Iron, &a.Pool, &a.Parking, &a.PetsAllowed,
		&rm.Latitude, &rm.Longitude, &rm.ImageURL,
		&rm.Address.Street, &rm.Address.State, &rm.Address.City, &rm.Address.Country, &rm.RoomType,
		&rm.CreatedAt, &rm.UpdatedAt,
	)
}
