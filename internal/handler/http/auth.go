package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/StayGo/internal/auth"
	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/service"
	"github.com/utafrali/StayGo/pkg/httputil"
	"github.com/utafrali/StayGo/pkg/middleware"
	"github.com/utafrali/StayGo/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookies auth.Cookies
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookies auth.Cookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, logger: logger}
}

// --- Request DTOs ---

// SignInRequest is the JSON request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest is the JSON request body for registration.
type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,strong_password"`
	FullName  string `json:"full_name" validate:"required,min=1,max=200"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	Birthday  string `json:"birthday" validate:"omitempty"`
	Gender    string `json:"gender" validate:"omitempty,max=20"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// --- Response types ---

// AuthResponse is the body of a successful sign in or refresh.
type AuthResponse struct {
	User   *domain.User      `json:"user,omitempty"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// --- Handlers ---

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.service.SignIn(r.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, result.Tokens)
	httputil.WriteData(w, http.StatusOK, AuthResponse{User: result.User, Tokens: result.Tokens})
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	input := service.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
	}
	if req.Birthday != "" {
		birthday, err := parseDate("birthday", req.Birthday)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		input.Birthday = &birthday
	}

	user, err := h.service.SignUp(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.cookies.Clear(w)
		httputil.WriteData(w, http.StatusOK, map[string]string{"message": "logged out"})
		return
	}

	if err := h.service.Logout(r.Context(), actorFrom(r), claims.SessionID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Clear(w)
	httputil.WriteData(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll handles POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	n, err := h.service.LogoutAll(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Clear(w)
	httputil.WriteData(w, http.StatusOK, map[string]int{"revoked_sessions": n})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.service.Refresh(r.Context(), auth.RefreshToken(r))
	if err != nil {
		h.cookies.Clear(w)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, refreshed.Pair)
	httputil.WriteData(w, http.StatusOK, AuthResponse{Tokens: refreshed.Pair})
}
