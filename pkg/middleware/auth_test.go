package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/StayGo/pkg/logger"
)

func withClaimsRequest(c *Claims) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		req = req.WithContext(WithClaims(req.Context(), c))
	}
	return req
}

func TestWithClaims_Accessors(t *testing.T) {
	ctx := WithClaims(context.Background(), &Claims{UserID: "u-1", Email: "a@b.c", Role: "admin", SessionID: "s-1"})

	c, ok := ClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, "u-1", UserIDFromContext(ctx))
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "u-1", logger.UserIDFromContext(ctx))
	assert.Equal(t, "s-1", logger.SessionIDFromContext(ctx))
}

func TestClaimsFromContext_Empty(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, UserIDFromContext(context.Background()))
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("admin")(okHandler())

	tests := []struct {
		name   string
		claims *Claims
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"plain user", &Claims{UserID: "u-1", Role: "user"}, http.StatusForbidden},
		{"admin", &Claims{UserID: "u-2", Role: "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, withClaimsRequest(tt.claims))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
