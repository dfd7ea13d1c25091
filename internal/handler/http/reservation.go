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

// ReservationHandler handles HTTP requests for bookings.
type ReservationHandler struct {
	service *service.ReservationService
	logger  *slog.Logger
}

// NewReservationHandler creates a new reservation HTTP handler.
func NewReservationHandler(svc *service.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: svc, logger: logger}
}

// ReservationRequest is the JSON request body for booking or rebooking a
// room. room_id is ignored on update.
type ReservationRequest struct {
	RoomID      string `json:"room_id" validate:"omitempty,uuid"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	TotalGuests int    `json:"total_guests" validate:"required,min=1"`
}

func (req ReservationRequest) input() (service.ReservationInput, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return service.ReservationInput{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return service.ReservationInput{}, err
	}
	return service.ReservationInput{
		RoomID:      req.RoomID,
		StartDate:   start,
		EndDate:     end,
		TotalGuests: req.TotalGuests,
	}, nil
}

// Create handles POST /api/v1/reservations
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req ReservationRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	if req.RoomID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "room_id is required"},
		})
		return
	}

	input, err := req.input()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	res, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, res)
}

// List handles GET /api/v1/reservations
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	list, total, err := h.service.List(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(list, total, page))
}

// ListByUser handles GET /api/v1/users/{id}/reservations
func (h *ReservationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	page := pagination.FromRequest(r)
	list, total, err := h.service.ListByUser(r.Context(), actor, userID, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(list, total, page))
}

// Get handles GET /api/v1/reservations/{id}
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Update handles PUT /api/v1/reservations/{id}
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ReservationRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	input, err := req.input()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	res, err := h.service.Update(r.Context(), actor, id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Delete handles DELETE /api/v1/reservations/{id}
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
