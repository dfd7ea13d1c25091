package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidRole(t *testing.T) {
	assert.ElementsMatch(t, []string{RoleUser, RoleAdmin}, ValidRoles())
	assert.True(t, IsValidRole("user"))
	assert.True(t, IsValidRole("admin"))
	assert.False(t, IsValidRole("ADMIN"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("superadmin"))
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	u := User{ID: "u-1", Email: "a@b.c", PasswordHash: "$2a$10$secret", Role: RoleUser}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
	assert.False(t, u.IsAdmin())
}

func TestSession_Usable(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"valid future", Session{Valid: true, ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", Session{Valid: true, ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", Session{Valid: true, ExpiresAt: now}, false},
		{"invalidated", Session{Valid: false, ExpiresAt: now.Add(time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.Usable(now))
		})
	}
}

func TestNights(t *testing.T) {
	start := time.Date(2024, 7, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, Nights(start, start.Add(48*time.Hour)))
	assert.Equal(t, 1, Nights(start, start.Add(3*time.Hour)))
	assert.Equal(t, 3, Nights(start, start.Add(49*time.Hour)))
	assert.Equal(t, 0, Nights(start, start))
	assert.Equal(t, 0, Nights(start, start.Add(-time.Hour)))
}

func TestRoom_OwnedByAndType(t *testing.T) {
	r := Room{OwnerID: "u-1", RoomType: RoomTypeHotel}
	assert.True(t, r.OwnedBy("u-1"))
	assert.False(t, r.OwnedBy("u-2"))

	assert.True(t, IsValidRoomType(RoomTypeApartment))
	assert.True(t, IsValidRoomType(RoomTypeHome))
	assert.False(t, IsValidRoomType(0))
	assert.False(t, IsValidRoomType(4))
}
