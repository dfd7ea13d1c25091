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

// UserHandler handles HTTP requests for user administration and profiles.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateUserRequest is the JSON request body for an admin creating a user.
type CreateUserRequest struct {
	SignUpRequest
	Role string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest is the JSON request body for updating a user. Omitted
// fields are left unchanged.
type UpdateUserRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Birthday  *string `json:"birthday"`
	Gender    *string `json:"gender" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	Role      *string `json:"role" validate:"omitempty,oneof=user admin"`
	Password  *string `json:"password" validate:"omitempty,strong_password"`
}

// --- Handlers ---

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	input := service.CreateUserInput{
		SignUpInput: service.SignUpInput{
			Email:     req.Email,
			Password:  req.Password,
			FullName:  req.FullName,
			Phone:     req.Phone,
			Gender:    req.Gender,
			AvatarURL: req.AvatarURL,
		},
		Role: req.Role,
	}
	if req.Birthday != "" {
		birthday, err := parseDate("birthday", req.Birthday)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		input.Birthday = &birthday
	}

	user, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	users, total, err := h.service.List(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(users, total, page))
}

// Search handles GET /api/v1/users/search?name=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	users, total, err := h.service.Search(r.Context(), r.URL.Query().Get("name"), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(users, total, page))
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), actor.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Update handles PUT /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	input := service.UpdateUserInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
		Role:      req.Role,
		Password:  req.Password,
	}
	if req.Birthday != nil && *req.Birthday != "" {
		birthday, err := parseDate("birthday", *req.Birthday)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		input.Birthday = &birthday
	}

	user, err := h.service.Update(r.Context(), actor, id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
