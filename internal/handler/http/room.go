package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/repository"
	"github.com/utafrali/StayGo/internal/service"
	"github.com/utafrali/StayGo/pkg/httputil"
	"github.com/utafrali/StayGo/pkg/pagination"
	"github.com/utafrali/StayGo/pkg/validator"
)

// RoomHandler handles HTTP requests for room listings.
type RoomHandler struct {
	service *service.RoomService
	logger  *slog.Logger
}

// NewRoomHandler creates a new room HTTP handler.
func NewRoomHandler(svc *service.RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// AddressRequest is the address part of a room body.
type AddressRequest struct {
	Street  string `json:"street" validate:"max=255"`
	State   string `json:"state" validate:"max=100"`
	City    string `json:"city" validate:"max=100"`
	Country string `json:"country" validate:"max=100"`
}

// RoomRequest is the JSON request body for creating or replacing a room.
type RoomRequest struct {
	PlaceID     string           `json:"place_id" validate:"required,uuid"`
	Title       string           `json:"title" validate:"required,min=1,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	MaxGuests   int              `json:"max_guests" validate:"required,min=1,max=100"`
	Bedrooms    int              `json:"bedrooms" validate:"min=0,max=100"`
	Beds        int              `json:"beds" validate:"min=0,max=100"`
	Bathrooms   int              `json:"bathrooms" validate:"min=0,max=100"`
	Price       int64            `json:"price" validate:"min=0"`
	Amenities   domain.Amenities `json:"amenities"`
	Latitude    *float64         `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64         `json:"longitude" validate:"omitempty,longitude"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url"`
	Address     AddressRequest   `json:"address"`
	RoomType    int              `json:"room_type" validate:"required,oneof=1 2 3"`
}

func (req RoomRequest) input() service.RoomInput {
	return service.RoomInput{
		PlaceID:     req.PlaceID,
		Title:       req.Title,
		Description: req.Description,
		MaxGuests:   req.MaxGuests,
		Bedrooms:    req.Bedrooms,
		Beds:        req.Beds,
		Bathrooms:   req.Bathrooms,
		Price:       req.Price,
		Amenities:   req.Amenities,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURL:    req.ImageURL,
		Address: domain.Address{
			Street:  req.Address.Street,
			State:   req.Address.State,
			City:    req.Address.City,
			Country: req.Address.Country,
		},
		RoomType: req.RoomType,
	}
}

// --- Handlers ---

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req RoomRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	room, err := h.service.Create(r.Context(), actor, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, room)
}

// List handles GET /api/v1/rooms?place_id=&owner_id=
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.RoomFilter{}
	if v := q.Get("place_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return
		}
		filter.PlaceID = id
	}
	if v := q.Get("owner_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return
		}
		filter.OwnerID = id
	}

	page := pagination.FromRequest(r)
	rooms, total, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(rooms, total, page))
}

// Search handles GET /api/v1/rooms/search?q=
func (h *RoomHandler) Search(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	rooms, total, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(rooms, total, page))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	room, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, room)
}

// Update handles PUT /api/v1/rooms/{id}
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req RoomRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	room, err := h.service.Update(r.Context(), actor, id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, room)
}

// Delete handles DELETE /api/v1/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
