package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/pkg/database"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
)

var placeColumns = []string{
	"id", "name", "slug", "province", "country", "image_url", "created_at", "updated_at",
}

// PlaceRepository implements repository.PlaceRepository using PostgreSQL.
type PlaceRepository struct {
	db database.DBTX
}

// NewPlaceRepository creates a new PostgreSQL-backed place repository.
func NewPlaceRepository(db database.DBTX) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Create inserts a new place.
func (r *PlaceRepository) Create(ctx context.Context, p *domain.Place) error {
	query := `
		INSERT INTO places (id, name, slug, province, country, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Province, p.Country, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("place", "slug", p.Slug)
		}
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

// GetByID retrieves a place by its ID.
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	query := `SELECT ` + strings.Join(placeColumns, ", ") + ` FROM places WHERE id = $1`

	var p domain.Place
	if err := scanPlace(r.db.QueryRow(ctx, query, id), &p); err != nil {
		return nil, notFound(err, "scan place")
	}
	return &p, nil
}

// List returns places ordered by name.
func (r *PlaceRepository) List(ctx context.Context, page pagination.Params) ([]domain.Place, int, error) {
	return listPage(ctx, r.db, "Places", psql.Select().From("places"),
		placeColumns, "name, id", page, scanPlace)
}

// Update modifies an existing place.
func (r *PlaceRepository) Update(ctx context.Context, p *domain.Place) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE places
		SET name = $1, slug = $2, province = $3, country = $4, image_url = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		p.Name, p.Slug, p.Province, p.Country, p.ImageURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("place", "slug", p.Slug)
		}
		return fmt.Errorf("update place: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("place", p.ID)
	}
	return nil
}

// Delete removes a place. Places that still have rooms cannot be deleted.
func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("place still has rooms")
		}
		return fmt.Errorf("delete place: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("place", id)
	}
	return nil
}

func scanPlace(row pgx.Row, p *domain.Place) error {
	return row.Scan(&p.ID, &p.Name, &p.Slug, &p.Province, &p.Country, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
}
