package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService owns the ticket lifecycle: creation, the
// accept/finalize/cancel/reject transitions, role-scoped listing and
// the history sweep.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	locations  repository.LocationRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	LocationRepo repository.LocationRepository
	Dispatcher   events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		locations:  deps.LocationRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload. LocationID is
// ignored for requesters (their bound location always wins) and
// mandatory for technicians and administrators.
type TicketCreateInput struct {
	Title       string
	Description string
	LocationID  *string
}

// TicketListFilter describes optional listing filters layered on top
// of the role-scoped visibility predicate.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	LocationID *string
	Search     *string
	Limit      int
	Offset     int
}

// SweepResult reports the outcome of a history sweep.
type SweepResult struct {
	AffectedCount int64
	Destructive   bool
}

// Create registers a new PENDING ticket on behalf of the actor.
func (s *TicketService) Create(ctx context.Context, actorID string, actorRole domain.Role, input TicketCreateInput) (*domain.Ticket, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("user", nil)
		}
		return nil, err
	}

	var locationID string
	if actorRole == domain.RoleRequester {
		// The requester's bound location always wins; an explicit
		// location_id in the payload is ignored.
		if actor.LocationID == nil {
			return nil, util.NewValidationError("requester has no location assigned", nil)
		}
		locationID = *actor.LocationID
	} else {
		if input.LocationID == nil || *input.LocationID == "" {
			return nil, util.NewValidationError("location_id is required for technicians and administrators", nil)
		}
		locationID = *input.LocationID
	}

	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewValidationError("invalid location", nil)
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusPending,
		RequesterID: actorID,
		LocationID:  locationID,
	}
	if ticket.Title == "" {
		return nil, util.NewValidationError("title required", nil)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actorID, Role: actorRole},
		Payload: events.TicketCreatedPayload{
			LocationID: ticket.LocationID,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// Accept assigns a PENDING, unassigned ticket to the technician. The
// guard is re-checked by a conditional update at the persistence
// boundary so concurrent accepts resolve to exactly one winner.
func (s *TicketService) Accept(ctx context.Context, technicianID string, actorRole domain.Role, ticketID string) (*domain.Ticket, error) {
	if actorRole != domain.RoleTechnician {
		return nil, util.NewForbidden("only technicians can accept tickets")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if err := s.acceptGuardError(ctx, ticket); err != nil {
		return nil, err
	}

	claimed, err := s.tickets.ClaimPending(ctx, ticketID, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race: re-read so the message names the actual winner.
			current, readErr := s.tickets.GetByID(ctx, ticketID)
			if readErr != nil {
				if errors.Is(readErr, pgx.ErrNoRows) {
					return nil, util.NewNotFound("ticket", nil)
				}
				return nil, readErr
			}
			if guardErr := s.acceptGuardError(ctx, current); guardErr != nil {
				return nil, guardErr
			}
			return nil, util.NewInvalidState("this ticket can no longer be accepted", nil)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAccepted,
		TicketID: claimed.ID,
		Actor:    events.Actor{ID: technicianID, Role: actorRole},
		Payload:  events.TicketAcceptedPayload{TechnicianID: technicianID},
	})
	return claimed, nil
}

// acceptGuardError translates the ticket's current state into the
// user-facing reason accepting is impossible, or nil when it is still
// open for claiming.
func (s *TicketService) acceptGuardError(ctx context.Context, ticket *domain.Ticket) error {
	switch ticket.Status {
	case domain.TicketStatusCompleted:
		return util.NewInvalidState("this ticket cannot be accepted because it is already completed", nil)
	case domain.TicketStatusCancelled:
		return util.NewInvalidState("this ticket cannot be accepted because it was cancelled", nil)
	}
	if ticket.TechnicianID != nil {
		return util.NewInvalidState(
			fmt.Sprintf("this ticket was already accepted by %s", s.technicianName(ctx, *ticket.TechnicianID)), nil)
	}
	if ticket.Status != domain.TicketStatusPending {
		return util.NewInvalidState("this ticket cannot be accepted because it is already in progress", nil)
	}
	return nil
}

func (s *TicketService) technicianName(ctx context.Context, technicianID string) string {
	tech, err := s.users.GetByID(ctx, technicianID)
	if err != nil || tech.Name == "" {
		return "another technician"
	}
	return tech.Name
}

// Finalize completes an IN_PROGRESS ticket. Only the assigned
// technician may finalize.
func (s *TicketService) Finalize(ctx context.Context, technicianID string, actorRole domain.Role, ticketID string) (*domain.Ticket, error) {
	if actorRole != domain.RoleTechnician {
		return nil, util.NewForbidden("only technicians can finalize tickets")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, util.NewInvalidState("this ticket is not in progress and cannot be finalized", nil)
	}
	if ticket.TechnicianID == nil || *ticket.TechnicianID != technicianID {
		return nil, util.NewForbidden("only the assigned technician can finalize this ticket")
	}

	now := time.Now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusCompleted
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFinalized,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: technicianID, Role: actorRole},
		Payload:  events.TicketStatusPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
	})
	return ticket, nil
}

// Cancel moves a ticket to CANCELLED. Only the original requester may
// cancel, and only while the ticket is not closed.
func (s *TicketService) Cancel(ctx context.Context, actorID string, actorRole domain.Role, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if ticket.RequesterID != actorID {
		return nil, util.NewForbidden("you do not have permission to cancel this ticket")
	}
	if ticket.Status == domain.TicketStatusCompleted {
		return nil, util.NewInvalidState("cannot cancel a ticket that is already completed", nil)
	}
	if ticket.Status == domain.TicketStatusCancelled {
		return nil, util.NewInvalidState("cannot cancel a ticket that is already cancelled", nil)
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusCancelled
	// A cancelled ticket carries no assignment.
	ticket.TechnicianID = nil
	ticket.AcceptedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCancelled,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actorID, Role: actorRole},
		Payload:  events.TicketStatusPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
	})
	return ticket, nil
}

// Reject returns an IN_PROGRESS ticket to PENDING, clearing the
// assignment. Only the technician who accepted may reject.
func (s *TicketService) Reject(ctx context.Context, technicianID string, actorRole domain.Role, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if ticket.TechnicianID == nil || *ticket.TechnicianID != technicianID {
		return nil, util.NewForbidden("you cannot reject a ticket you did not accept")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, util.NewInvalidState("only tickets in progress can be rejected", nil)
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusPending
	ticket.TechnicianID = nil
	ticket.AcceptedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRejected,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: technicianID, Role: actorRole},
		Payload:  events.TicketStatusPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
	})
	return ticket, nil
}

// List returns the tickets visible to the actor:
//   - requesters see their own non-hidden tickets;
//   - technicians see every PENDING and IN_PROGRESS ticket plus their
//     own non-hidden assignments;
//   - admins see everything.
//
// Optional filters intersect with the role scope.
func (s *TicketService) List(ctx context.Context, actorID string, actorRole domain.Role, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		LocationID: filter.LocationID,
		SearchTerm: filter.Search,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	switch actorRole {
	case domain.RoleRequester:
		repoFilter.VisibleToRequester = &actorID
	case domain.RoleTechnician:
		repoFilter.VisibleToTechnician = &actorID
	case domain.RoleAdmin:
		// unrestricted
	default:
		return nil, util.NewForbidden("unknown role")
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// SweepHistory clears the actor's own closed tickets (COMPLETED or
// CANCELLED) out of their view. Requesters and technicians set their
// per-viewer hidden flag, leaving shared state untouched; admins hard
// delete their own records.
func (s *TicketService) SweepHistory(ctx context.Context, actorID string, actorRole domain.Role) (*SweepResult, error) {
	var (
		count int64
		err   error
	)
	result := &SweepResult{}
	switch actorRole {
	case domain.RoleRequester:
		count, err = s.tickets.HideClosedForRequester(ctx, actorID)
	case domain.RoleTechnician:
		count, err = s.tickets.HideClosedForTechnician(ctx, actorID)
	case domain.RoleAdmin:
		count, err = s.tickets.DeleteClosedByActor(ctx, actorID)
		result.Destructive = true
	default:
		return nil, util.NewForbidden("unknown role")
	}
	if err != nil {
		return nil, err
	}
	result.AffectedCount = count

	s.publishEvent(ctx, events.Event{
		Type:  events.EventHistorySwept,
		Actor: events.Actor{ID: actorID, Role: actorRole},
		Payload: events.HistorySweptPayload{
			AffectedCount: result.AffectedCount,
			Destructive:   result.Destructive,
		},
	})
	return result, nil
}

func generateTicketKey() string {
	return "HLP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
