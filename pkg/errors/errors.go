package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal error")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
)

// kind ties a sentinel to its wire code and HTTP status.
type kind struct {
	sentinel error
	code     string
	status   int
}

var (
	kindNotFound      = kind{ErrNotFound, "NOT_FOUND", http.StatusNotFound}
	kindAlreadyExists = kind{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict}
	kindConflict      = kind{ErrConflict, "CONFLICT", http.StatusConflict}
	kindInvalidInput  = kind{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest}
	kindUnauthorized  = kind{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized}
	kindForbidden     = kind{ErrForbidden, "FORBIDDEN", http.StatusForbidden}
	kindRateLimited   = kind{ErrRateLimited, "RATE_LIMITED", http.StatusTooManyRequests}
	kindInternal      = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError}
)

// kinds is searched in order by HTTPStatus for bare or wrapped sentinels.
var kinds = []kind{
	kindNotFound, kindAlreadyExists, kindConflict, kindInvalidInput,
	kindUnauthorized, kindForbidden, kindRateLimited,
}

// AppError carries a stable machine code, a caller-safe message and the HTTP
// status it maps to. Err is kept for errors.Is and is never rendered.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (k kind) new(message string) *AppError {
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: k.sentinel}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that resource id does not exist.
func NotFound(resource, id string) *AppError {
	return kindNotFound.new(fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists reports a uniqueness violation on field.
func AlreadyExists(resource, field, value string) *AppError {
	return kindAlreadyExists.new(fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// Conflict reports a state conflict such as an overlapping reservation.
func Conflict(message string) *AppError { return kindConflict.new(message) }

func InvalidInput(message string) *AppError { return kindInvalidInput.new(message) }

func Unauthorized(message string) *AppError { return kindUnauthorized.new(message) }

func Forbidden(message string) *AppError { return kindForbidden.new(message) }

// RateLimited is returned when a client exhausted its request budget.
func RateLimited(message string) *AppError { return kindRateLimited.new(message) }

// Internal wraps err as a 500. The message is fixed so nothing from err
// reaches the client.
func Internal(err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	e := kindInternal.new("an internal error occurred")
	e.Err = fmt.Errorf("%w: %w", ErrInternal, err)
	return e
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}
