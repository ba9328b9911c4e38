package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload for ticket creation. LocationID is
// ignored for requesters and required for elevated roles.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	LocationID  *string `json:"location_id,omitempty"`
}

// TicketResponse is the wire representation of a ticket.
type TicketResponse struct {
	ID           string              `json:"id"`
	ExternalKey  string              `json:"external_key"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       domain.TicketStatus `json:"status"`
	RequesterID  string              `json:"requester_id"`
	LocationID   string              `json:"location_id"`
	TechnicianID *string             `json:"technician_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	AcceptedAt   *time.Time          `json:"accepted_at,omitempty"`
	ClosedAt     *time.Time          `json:"closed_at,omitempty"`
}

// SweepResponse reports how many tickets a history sweep touched.
type SweepResponse struct {
	AffectedCount int64 `json:"affected_count"`
	Destructive   bool  `json:"destructive"`
}
