package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketAccepted  EventType = "ticket_accepted"
	EventTicketFinalized EventType = "ticket_finalized"
	EventTicketCancelled EventType = "ticket_cancelled"
	EventTicketRejected  EventType = "ticket_rejected"
	EventHistorySwept    EventType = "history_swept"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	LocationID string `json:"location_id"`
	Title      string `json:"title"`
}

// TicketAcceptedPayload payload.
type TicketAcceptedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// TicketStatusPayload payload for finalize/cancel/reject.
type TicketStatusPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// HistorySweptPayload payload.
type HistorySweptPayload struct {
	AffectedCount int64 `json:"affected_count"`
	Destructive   bool  `json:"destructive"`
}
