package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// In-memory repository fakes mirroring the SQL predicates of the
// Postgres implementations.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeLocationRepo struct {
	mu        sync.Mutex
	seq       int
	locations map[string]*domain.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: make(map[string]*domain.Location)}
}

func (r *fakeLocationRepo) Create(_ context.Context, location *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	location.ID = fmt.Sprintf("loc-%d", r.seq)
	location.CreatedAt = time.Now()
	location.UpdatedAt = location.CreatedAt
	clone := *location
	r.locations[location.ID] = &clone
	return nil
}

func (r *fakeLocationRepo) Update(_ context.Context, location *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[location.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *location
	r.locations[location.ID] = &clone
	return nil
}

func (r *fakeLocationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.locations, id)
	return nil
}

func (r *fakeLocationRepo) GetByID(_ context.Context, id string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.locations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *location
	return &clone, nil
}

func (r *fakeLocationRepo) GetByName(_ context.Context, name string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, location := range r.locations {
		if location.Name == name {
			clone := *location
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeLocationRepo) List(_ context.Context) ([]domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Location, 0, len(r.locations))
	for _, location := range r.locations {
		out = append(out, *location)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeLocationRepo) nameOf(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if location, ok := r.locations[id]; ok {
		return location.Name
	}
	return ""
}

type fakeTicketRepo struct {
	mu        sync.Mutex
	seq       int
	tickets   map[string]*domain.Ticket
	locations *fakeLocationRepo
}

func newFakeTicketRepo(locations *fakeLocationRepo) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), locations: locations}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ClaimPending(_ context.Context, ticketID, technicianID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok || ticket.Status != domain.TicketStatusPending || ticket.TechnicianID != nil {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	ticket.Status = domain.TicketStatusInProgress
	ticket.TechnicianID = &technicianID
	ticket.AcceptedAt = &now
	ticket.UpdatedAt = now
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if !matchesFilter(ticket, filter, r.locations) {
			continue
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesFilter(ticket *domain.Ticket, filter repository.TicketFilter, locations *fakeLocationRepo) bool {
	if filter.VisibleToRequester != nil {
		if ticket.RequesterID != *filter.VisibleToRequester || ticket.HiddenFromRequester {
			return false
		}
	}
	if filter.VisibleToTechnician != nil {
		ownVisible := ticket.TechnicianID != nil &&
			*ticket.TechnicianID == *filter.VisibleToTechnician &&
			!ticket.HiddenFromTechnician
		if ticket.Status != domain.TicketStatusPending &&
			ticket.Status != domain.TicketStatusInProgress && !ownVisible {
			return false
		}
	}
	if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
		return false
	}
	if filter.TechnicianID != nil &&
		(ticket.TechnicianID == nil || *ticket.TechnicianID != *filter.TechnicianID) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.LocationID != nil && ticket.LocationID != *filter.LocationID {
		return false
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		needle := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		locationName := strings.ToLower(locations.nameOf(ticket.LocationID))
		if !strings.Contains(strings.ToLower(ticket.Title), needle) &&
			!strings.Contains(strings.ToLower(ticket.Description), needle) &&
			!strings.Contains(locationName, needle) {
			return false
		}
	}
	return true
}

func (r *fakeTicketRepo) HideClosedForRequester(_ context.Context, requesterID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, ticket := range r.tickets {
		if ticket.RequesterID == requesterID && ticket.Status.IsClosed() && !ticket.HiddenFromRequester {
			ticket.HiddenFromRequester = true
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) HideClosedForTechnician(_ context.Context, technicianID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, ticket := range r.tickets {
		if ticket.TechnicianID != nil && *ticket.TechnicianID == technicianID &&
			ticket.Status.IsClosed() && !ticket.HiddenFromTechnician {
			ticket.HiddenFromTechnician = true
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) DeleteClosedByActor(_ context.Context, actorID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, ticket := range r.tickets {
		if !ticket.Status.IsClosed() {
			continue
		}
		if ticket.RequesterID == actorID ||
			(ticket.TechnicianID != nil && *ticket.TechnicianID == actorID) {
			delete(r.tickets, id)
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) HasOpenByUser(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.Status.IsClosed() {
			continue
		}
		if ticket.RequesterID == userID ||
			(ticket.TechnicianID != nil && *ticket.TechnicianID == userID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) HasOpenByLocation(_ context.Context, locationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if !ticket.Status.IsClosed() && ticket.LocationID == locationID {
			return true, nil
		}
	}
	return false, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
