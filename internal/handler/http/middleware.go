package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/StayGo/internal/service"
	apperrors "github.com/utafrali/StayGo/pkg/errors"
	"github.com/utafrali/StayGo/pkg/httputil"
	"github.com/utafrali/StayGo/pkg/middleware"
)

// ContentTypeJSON rejects requests that send a body under any content type
// other than application/json. Bodiless requests pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom builds the service-layer caller from the gate's claims. Public
// routes without a valid token yield a zero Actor.
func actorFrom(r *http.Request) service.Actor {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return service.Actor{}
	}
	return service.Actor{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// requireActor writes a 401 and returns false when the request carries no
// claims.
func requireActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	actor := actorFrom(r)
	if actor.UserID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
		return actor, false
	}
	return actor, true
}

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(field, v string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(field + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return t.UTC(), nil
}
