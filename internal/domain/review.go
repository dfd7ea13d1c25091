package domain

import "time"

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a guest's rating of a room, tied to one reservation.
type Review struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	RoomID        string    `json:"room_id"`
	ReservationID string    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
