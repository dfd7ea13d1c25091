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
)

// RoomInput holds the writable fields of a room.
type RoomInput struct {
	PlaceID     string
	Title       string
	Description string
	MaxGuests   int
	Bedrooms    int
	Beds        int
	Bathrooms   int
	Price       int64
	Amenities   domain.Amenities
	Latitude    *float64
	Longitude   *float64
	ImageURL    string
	Address     domain.Address
	RoomType    int
}

func (in RoomInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return apperrors.InvalidInput("title is required")
	case in.MaxGuests < 1:
		return apperrors.InvalidInput("max guests must be at least 1")
	case in.Price < 0:
		return apperrors.InvalidInput("price must not be negative")
	case !domain.IsValidRoomType(in.RoomType):
		return apperrors.InvalidInput("room type must be 1 (apartment), 2 (hotel) or 3 (home)")
	case (in.Latitude == nil) != (in.Longitude == nil):
		return apperrors.InvalidInput("latitude and longitude must be set together")
	}
	return nil
}

func (in RoomInput) apply(rm *domain.Room) {
	rm.PlaceID = in.PlaceID
	rm.Title = strings.TrimSpace(in.Title)
	rm.Description = in.Description
	rm.MaxGuests = in.MaxGuests
	rm.Bedrooms = in.Bedrooms
	rm.Beds = in.Beds
	rm.Bathrooms = in.Bathrooms
	rm.Price = in.Price
	rm.Amenities = in.Amenities
	rm.Latitude = in.Latitude
	rm.Longitude = in.Longitude
	rm.ImageURL = in.ImageURL
	rm.Address = in.Address
	rm.RoomType = in.RoomType
}

// RoomService manages listings. The creator of a room owns it.
type RoomService struct {
	rooms  repository.RoomRepository
	places repository.PlaceRepository
	logger *slog.Logger
}

// NewRoomService creates a new room service.
func NewRoomService(rooms repository.RoomRepository, places repository.PlaceRepository, logger *slog.Logger) *RoomService {
	return &RoomService{rooms: rooms, places: places, logger: logger}
}

// Create lists a room owned by actor in an existing place.
func (s *RoomService) Create(ctx context.Context, actor Actor, input RoomInput) (*domain.Room, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.places.GetByID(ctx, input.PlaceID); err != nil {
		return nil, mustExist(err, "place", input.PlaceID)
	}

	now := time.Now().UTC()
	room := &domain.Room{
		ID:        uuid.New().String(),
		OwnerID:   actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.apply(room)

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created",
		slog.String("room_id", room.ID),
		slog.String("owner_id", room.OwnerID),
	)
	return room, nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "room", id)
	}
	return room, nil
}

// List returns one page of rooms matching filter.
func (s *RoomService) List(ctx context.Context, filter repository.RoomFilter, page pagination.Params) ([]domain.Room, int, error) {
	return s.rooms.List(ctx, filter, page)
}

// Search matches rooms whose address contains keyword.
func (s *RoomService) Search(ctx context.Context, keyword string, page pagination.Params) ([]domain.Room, int, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, 0, apperrors.InvalidInput("search keyword is required")
	}
	return s.rooms.List(ctx, repository.RoomFilter{Keyword: keyword}, page)
}

// Update replaces the writable fields of a room. Only the owner may edit.
func (s *RoomService) Update(ctx context.Context, actor Actor, id string, input RoomInput) (*domain.Room, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, mustExist(err, "room", id)
	}
	if !room.OwnedBy(actor.UserID) {
		return nil, apperrors.Forbidden("only the owner can update this room")
	}
	if input.PlaceID != room.PlaceID {
		if _, err := s.places.GetByID(ctx, input.PlaceID); err != nil {
			return nil, mustExist(err, "place", input.PlaceID)
		}
	}

	input.apply(room)
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

// Delete removes a room. Owners and admins may delete.
func (s *RoomService) Delete(ctx context.Context, actor Actor, id string) error {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return mustExist(err, "room", id)
	}
	if !room.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return apperrors.Forbidden("only the owner or an admin can delete this room")
	}

	if err := s.rooms.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	s.logger.InfoContext(ctx, "room deleted",
		slog.String("room_id", id),
		slog.String("by", actor.UserID),
	)
	return nil
}
