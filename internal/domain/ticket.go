package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// IsClosed reports whether the status is terminal.
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// Ticket is the aggregate for helpdesk requests.
//
// TechnicianID is non-nil exactly while the ticket is IN_PROGRESS or
// COMPLETED; rejection back to PENDING clears it together with
// AcceptedAt. The hidden flags are independent per-viewer markers: they
// suppress a closed ticket from that viewer's listing without touching
// shared state.
type Ticket struct {
	ID                   string
	ExternalKey          string
	Title                string
	Description          string
	Status               TicketStatus
	RequesterID          string
	LocationID           string
	TechnicianID         *string
	HiddenFromRequester  bool
	HiddenFromTechnician bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
	AcceptedAt           *time.Time
	ClosedAt             *time.Time
}
