package domain

import "time"

// Room types.
const (
	RoomTypeApartment = 1
	RoomTypeHotel     = 2
	RoomTypeHome      = 3
)

// IsValidRoomType checks a room type code.
func IsValidRoomType(t int) bool {
	return t >= RoomTypeApartment && t <= RoomTypeHome
}

// Amenities are the yes/no features of a room.
type Amenities struct {
	TV          bool `json:"tv"`
	Kitchen     bool `json:"kitchen"`
	AirCon      bool `json:"air_con"`
	WiFi        bool `json:"wifi"`
	Washer      bool `json:"washer"`
	Iron        bool `json:"iron"`
	Pool        bool `json:"pool"`
	Parking     bool `json:"parking"`
	PetsAllowed bool `json:"pets_allowed"`
}

// Address locates a room.
type Address struct {
	Street  string `json:"street"`
	State   string `json:"state"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Room is a bookable listing owned by the user who created it.
type Room struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	PlaceID     string    `json:"place_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MaxGuests   int       `json:"max_guests"`
	Bedrooms    int       `json:"bedrooms"`
	Beds        int       `json:"beds"`
	Bathrooms   int       `json:"bathrooms"`
	Price       int64     `json:"price"`
	Amenities   Amenities `json:"amenities"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ImageURL    string    `json:"image_url"`
	Address     Address   `json:"address"`
	RoomType    int       `json:"room_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID created the room.
func (r *Room) OwnedBy(userID string) bool {
	return r.OwnerID == userID
}
