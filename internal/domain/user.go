package domain

import "time"

// User is the domain model for any account: requester, technician or
// administrator. Requesters are bound to exactly one location;
// technicians and admins carry no location.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	LocationID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
