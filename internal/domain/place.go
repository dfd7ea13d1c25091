package domain

import "time"

// Place is a destination (ward, district or city) rooms are grouped under.
type Place struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Province  string    `json:"province"`
	Country   string    `json:"country"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
