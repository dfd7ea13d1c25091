package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/repository"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/pagination"
	"github.com/utafrali/StayGo/pkg/slug"
)

// PlaceInput holds the writable fields of a place. An empty Slug is
// derived from Name.
type PlaceInput struct {
	Name     string
	Slug     string
	Province string
	Country  string
	ImageURL string
}

// PlaceService manages destinations. Writes are admin-only, enforced by
// the router.
type PlaceService struct {
	places repository.PlaceRepository
	logger *slog.Logger
}

// NewPlaceService creates a new place service.
func NewPlaceService(places repository.PlaceRepository, logger *slog.Logger) *PlaceService {
	return &PlaceService{places: places, logger: logger}
}

func (in PlaceInput) normalize() (PlaceInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, apperrors.InvalidInput("name is required")
	}
	if in.Slug == "" {
		in.Slug = in.Name
	}
	in.Slug = slug.Generate(in.Slug)
	if in.Slug == "" {
		return in, apperrors.InvalidInput("slug must contain letters or digits")
	}
	return in, nil
}

// Create adds a place.
func (s *PlaceService) Create(ctx context.Context, input PlaceInput) (*domain.Place, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	place := &domain.Place{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Slug:      input.Slug,
		Province:  input.Province,
		Country:   input.Country,
		ImageURL:  input.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.places.Create(ctx, place); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}

	s.logger.InfoContext(ctx, "place created",
		slog.String("place_id", place.ID),
		slog.String("slug", place.Slug),
	)
	return place, nil
}

// Get returns a place by id.
func (s *PlaceService) Get(ctx context.Context, id string) (*domain.Place, error) {
	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "place", id)
	}
	return place, nil
}

// List returns one page of places.
func (s *PlaceService) List(ctx context.Context, page pagination.Params) ([]domain.Place, int, error) {
	return s.places.List(ctx, page)
}

// Update replaces the writable fields of a place.
func (s *PlaceService) Update(ctx context.Context, id string, input PlaceInput) (*domain.Place, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "place", id)
	}

	place.Name = input.Name
	place.Slug = input.Slug
	place.Province = input.Province
	place.Country = input.Country
	place.ImageURL = input.ImageURL

	if err := s.places.Update(ctx, place); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	return place, nil
}

// Delete removes a place that no longer has rooms.
func (s *PlaceService) Delete(ctx context.Context, id string) error {
	if err := s.places.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	s.logger.InfoContext(ctx, "place deleted", slog.String("place_id", id))
	return nil
}
