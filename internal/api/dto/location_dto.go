package dto

import "time"

// LocationRequest payload for location create/update.
type LocationRequest struct {
	Name string `json:"name"`
}

// LocationResponse is the wire representation of a location.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
