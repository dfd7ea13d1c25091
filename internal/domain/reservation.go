package domain

import (
	"math"
	"time"
)

// Reservation is a booking of a room for a half-open [StartDate, EndDate)
// interval.
type Reservation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	RoomID      string    `json:"room_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalGuests int       `json:"total_guests"`
	TotalPrice  int64     `json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Nights returns the number of started nights between start and end, at
// least 1 for any positive stay.
func Nights(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}
