package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/StayGo/internal/service"
	"github.com/utafrali/StayGo/pkg/httputil"
	"github.com/utafrali/StayGo/pkg/pagination"
	"github.com/utafrali/StayGo/pkg/validator"
)

// PlaceHandler handles HTTP requests for place endpoints.
type PlaceHandler struct {
	service *service.PlaceService
	logger  *slog.Logger
}

// NewPlaceHandler creates a new place HTTP handler.
func NewPlaceHandler(svc *service.PlaceService, logger *slog.Logger) *PlaceHandler {
	return &PlaceHandler{service: svc, logger: logger}
}

// PlaceRequest is the JSON request body for creating or replacing a place.
type PlaceRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Slug     string `json:"slug" validate:"omitempty,max=200"`
	Province string `json:"province" validate:"omitempty,max=200"`
	Country  string `json:"country" validate:"omitempty,max=100"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

func (req PlaceRequest) input() service.PlaceInput {
	return service.PlaceInput{
		Name:     req.Name,
		Slug:     req.Slug,
		Province: req.Province,
		Country:  req.Country,
		ImageURL: req.ImageURL,
	}
}

// Create handles POST /api/v1/places
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	place, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, place)
}

// List handles GET /api/v1/places
func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	places, total, err := h.service.List(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(places, total, page))
}

// Get handles GET /api/v1/places/{id}
func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	place, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, place)
}

// Update handles PUT /api/v1/places/{id}
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req PlaceRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	place, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, place)
}

// Delete handles DELETE /api/v1/places/{id}
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
