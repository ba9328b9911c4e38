package domain

import "time"

// Location is the physical or organizational unit tickets are filed
// against. It cannot be deleted while open tickets reference it.
type Location struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
