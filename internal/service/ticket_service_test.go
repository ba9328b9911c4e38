package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

type ticketFixture struct {
	tickets    *fakeTicketRepo
	users      *fakeUserRepo
	locations  *fakeLocationRepo
	dispatcher *recordingDispatcher
	svc        *service.TicketService

	hq        *domain.Location
	annex     *domain.Location
	requester *domain.User
	requester2 *domain.User
	techA     *domain.User
	techB     *domain.User
	admin     *domain.User
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	ctx := context.Background()

	locations := newFakeLocationRepo()
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo(locations)
	dispatcher := &recordingDispatcher{}

	f := &ticketFixture{
		tickets:    tickets,
		users:      users,
		locations:  locations,
		dispatcher: dispatcher,
		svc: service.NewTicketService(service.TicketDependencies{
			TicketRepo:   tickets,
			UserRepo:     users,
			LocationRepo: locations,
			Dispatcher:   dispatcher,
		}),
	}

	f.hq = &domain.Location{Name: "Headquarters"}
	if err := locations.Create(ctx, f.hq); err != nil {
		t.Fatalf("seed location: %v", err)
	}
	f.annex = &domain.Location{Name: "Annex"}
	if err := locations.Create(ctx, f.annex); err != nil {
		t.Fatalf("seed location: %v", err)
	}

	f.requester = f.seedUser(t, "Alice Requester", "alice@example.com", domain.RoleRequester, &f.hq.ID)
	f.requester2 = f.seedUser(t, "Bob Requester", "bob@example.com", domain.RoleRequester, &f.annex.ID)
	f.techA = f.seedUser(t, "Tessa Technician", "tessa@example.com", domain.RoleTechnician, nil)
	f.techB = f.seedUser(t, "Theo Technician", "theo@example.com", domain.RoleTechnician, nil)
	f.admin = f.seedUser(t, "Ada Admin", "ada@example.com", domain.RoleAdmin, nil)
	return f
}

func (f *ticketFixture) seedUser(t *testing.T, name, email string, role domain.Role, locationID *string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: role, LocationID: locationID, PasswordHash: "x"}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return user
}

func (f *ticketFixture) createTicket(t *testing.T, requester *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.Create(context.Background(), requester.ID, requester.Role, service.TicketCreateInput{
		Title:       title,
		Description: "desc for " + title,
	})
	if err != nil {
		t.Fatalf("create ticket %q: %v", title, err)
	}
	return ticket
}

func assertDomainError(t *testing.T, err error, code, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, domainErr.Code, domainErr.Message)
	}
	if message != "" && domainErr.Message != message {
		t.Fatalf("expected message %q, got %q", message, domainErr.Message)
	}
}

func TestCreateTicketRequesterUsesBoundLocation(t *testing.T) {
	f := newTicketFixture(t)

	// An explicit location in the payload is ignored for requesters.
	ticket, err := f.svc.Create(context.Background(), f.requester.ID, domain.RoleRequester, service.TicketCreateInput{
		Title:      "Printer jam",
		LocationID: &f.annex.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.LocationID != f.hq.ID {
		t.Fatalf("expected bound location %s, got %s", f.hq.ID, ticket.LocationID)
	}
	if ticket.Status != domain.TicketStatusPending {
		t.Fatalf("expected PENDING, got %s", ticket.Status)
	}
	if !strings.HasPrefix(ticket.ExternalKey, "HLP-") {
		t.Fatalf("unexpected external key %q", ticket.ExternalKey)
	}

	created := f.dispatcher.byType(events.EventTicketCreated)
	if len(created) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(created))
	}
}

func TestCreateTicketRequesterWithoutLocation(t *testing.T) {
	f := newTicketFixture(t)
	orphan := f.seedUser(t, "No Location", "orphan@example.com", domain.RoleRequester, nil)

	_, err := f.svc.Create(context.Background(), orphan.ID, domain.RoleRequester, service.TicketCreateInput{Title: "x"})
	assertDomainError(t, err, "VALIDATION_FAILED", "requester has no location assigned")
}

func TestCreateTicketElevatedRolesRequireLocation(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin.ID, domain.RoleAdmin, service.TicketCreateInput{Title: "x"})
	assertDomainError(t, err, "VALIDATION_FAILED", "location_id is required for technicians and administrators")

	bogus := "loc-missing"
	_, err = f.svc.Create(ctx, f.admin.ID, domain.RoleAdmin, service.TicketCreateInput{Title: "x", LocationID: &bogus})
	assertDomainError(t, err, "VALIDATION_FAILED", "invalid location")

	ticket, err := f.svc.Create(ctx, f.techA.ID, domain.RoleTechnician, service.TicketCreateInput{
		Title:      "Switch replacement",
		LocationID: &f.annex.ID,
	})
	if err != nil {
		t.Fatalf("technician create: %v", err)
	}
	if ticket.LocationID != f.annex.ID {
		t.Fatalf("expected location %s, got %s", f.annex.ID, ticket.LocationID)
	}
}

func TestAcceptHappyPath(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	accepted, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.TicketStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", accepted.Status)
	}
	if accepted.TechnicianID == nil || *accepted.TechnicianID != f.techA.ID {
		t.Fatalf("expected technician %s, got %v", f.techA.ID, accepted.TechnicianID)
	}
	if accepted.AcceptedAt == nil {
		t.Fatal("expected AcceptedAt to be set")
	}
}

func TestAcceptSecondTechnicianNamesWinner(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	_, err := f.svc.Accept(ctx, f.techB.ID, domain.RoleTechnician, ticket.ID)
	assertDomainError(t, err, "INVALID_STATE", "this ticket was already accepted by Tessa Technician")
}

func TestAcceptGuardsOnClosedTickets(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	completed := f.createTicket(t, f.requester, "Done already")
	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, completed.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, completed.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	_, err := f.svc.Accept(ctx, f.techB.ID, domain.RoleTechnician, completed.ID)
	assertDomainError(t, err, "INVALID_STATE", "this ticket cannot be accepted because it is already completed")

	cancelled := f.createTicket(t, f.requester, "Never mind")
	if _, err := f.svc.Cancel(ctx, f.requester.ID, domain.RoleRequester, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, cancelled.ID)
	assertDomainError(t, err, "INVALID_STATE", "this ticket cannot be accepted because it was cancelled")
}

func TestAcceptRejectsNonTechnicians(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	_, err := f.svc.Accept(context.Background(), f.requester.ID, domain.RoleRequester, ticket.ID)
	assertDomainError(t, err, "FORBIDDEN", "only technicians can accept tickets")
}

func TestAcceptUnknownTicket(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.svc.Accept(context.Background(), f.techA.ID, domain.RoleTechnician, "ticket-missing")
	assertDomainError(t, err, "NOT_FOUND", "ticket not found")
}

func TestAcceptConcurrentSingleWinner(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, f.requester, "Contested ticket")

	technicians := []*domain.User{f.techA, f.techB}
	for i := 0; i < 3; i++ {
		technicians = append(technicians, f.seedUser(t, "Extra Tech", "extra"+string(rune('0'+i))+"@example.com", domain.RoleTechnician, nil))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		failures int
	)
	start := make(chan struct{})
	for _, tech := range technicians {
		wg.Add(1)
		go func(techID string) {
			defer wg.Done()
			<-start
			_, err := f.svc.Accept(ctx, techID, domain.RoleTechnician, ticket.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else {
				failures++
			}
		}(tech.ID)
	}
	close(start)
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d (failures %d)", winners, failures)
	}
	if failures != len(technicians)-1 {
		t.Fatalf("expected %d losers, got %d", len(technicians)-1, failures)
	}
}

func TestFinalizeRequiresAssignedTechnician(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	_, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID)
	assertDomainError(t, err, "INVALID_STATE", "this ticket is not in progress and cannot be finalized")

	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err = f.svc.Finalize(ctx, f.techB.ID, domain.RoleTechnician, ticket.ID)
	assertDomainError(t, err, "FORBIDDEN", "only the assigned technician can finalize this ticket")

	done, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.Status != domain.TicketStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", done.Status)
	}
	if done.ClosedAt == nil {
		t.Fatal("expected ClosedAt to be set")
	}

	_, err = f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID)
	assertDomainError(t, err, "INVALID_STATE", "this ticket is not in progress and cannot be finalized")
}

func TestCancelRules(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	_, err := f.svc.Cancel(ctx, f.requester2.ID, domain.RoleRequester, ticket.ID)
	assertDomainError(t, err, "FORBIDDEN", "you do not have permission to cancel this ticket")

	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Cancelling an accepted ticket clears the assignment.
	cancelled, err := f.svc.Cancel(ctx, f.requester.ID, domain.RoleRequester, ticket.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.TicketStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.TechnicianID != nil || cancelled.AcceptedAt != nil {
		t.Fatal("expected assignment to be cleared on cancel")
	}

	_, err = f.svc.Cancel(ctx, f.requester.ID, domain.RoleRequester, ticket.ID)
	assertDomainError(t, err, "INVALID_STATE", "cannot cancel a ticket that is already cancelled")

	completed := f.createTicket(t, f.requester, "Completed one")
	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, completed.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, completed.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	_, err = f.svc.Cancel(ctx, f.requester.ID, domain.RoleRequester, completed.ID)
	assertDomainError(t, err, "INVALID_STATE", "cannot cancel a ticket that is already completed")
}

func TestRejectReturnsTicketToPool(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.svc.Reject(ctx, f.techB.ID, domain.RoleTechnician, ticket.ID)
	assertDomainError(t, err, "FORBIDDEN", "you cannot reject a ticket you did not accept")

	rejected, err := f.svc.Reject(ctx, f.techA.ID, domain.RoleTechnician, ticket.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.TicketStatusPending {
		t.Fatalf("expected PENDING after reject, got %s", rejected.Status)
	}
	if rejected.TechnicianID != nil || rejected.AcceptedAt != nil {
		t.Fatal("expected assignment cleared after reject")
	}

	// Another technician can now claim it, with a fresh AcceptedAt.
	reclaimed, err := f.svc.Accept(ctx, f.techB.ID, domain.RoleTechnician, ticket.ID)
	if err != nil {
		t.Fatalf("re-accept: %v", err)
	}
	if reclaimed.TechnicianID == nil || *reclaimed.TechnicianID != f.techB.ID {
		t.Fatalf("expected technician %s, got %v", f.techB.ID, reclaimed.TechnicianID)
	}
	if reclaimed.AcceptedAt == nil {
		t.Fatal("expected AcceptedAt set after re-accept")
	}
}

func TestRejectRequiresInProgress(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t, f.requester, "Broken monitor")

	_, err := f.svc.Reject(context.Background(), f.techA.ID, domain.RoleTechnician, ticket.ID)
	assertDomainError(t, err, "FORBIDDEN", "you cannot reject a ticket you did not accept")
}

func TestListVisibilityPerRole(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	mine := f.createTicket(t, f.requester, "Alice pending")
	other := f.createTicket(t, f.requester2, "Bob pending")
	assigned := f.createTicket(t, f.requester2, "Bob in progress")
	if _, err := f.svc.Accept(ctx, f.techB.ID, domain.RoleTechnician, assigned.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	closedOwn := f.createTicket(t, f.requester, "Alice completed")
	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, closedOwn.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, closedOwn.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// Requester: own tickets only.
	got, err := f.svc.List(ctx, f.requester.ID, domain.RoleRequester, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list requester: %v", err)
	}
	assertTicketIDs(t, got, mine.ID, closedOwn.ID)

	// Technician A: open pool plus own completed assignment. Tech B's
	// in-progress ticket is part of the pool.
	got, err = f.svc.List(ctx, f.techA.ID, domain.RoleTechnician, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list techA: %v", err)
	}
	assertTicketIDs(t, got, mine.ID, other.ID, assigned.ID, closedOwn.ID)

	// Technician B does not see tech A's completed ticket.
	got, err = f.svc.List(ctx, f.techB.ID, domain.RoleTechnician, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list techB: %v", err)
	}
	assertTicketIDs(t, got, mine.ID, other.ID, assigned.ID)

	// Admin: everything.
	got, err = f.svc.List(ctx, f.admin.ID, domain.RoleAdmin, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list admin: %v", err)
	}
	assertTicketIDs(t, got, mine.ID, other.ID, assigned.ID, closedOwn.ID)
}

func TestListFiltersIntersectRoleScope(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	pending := f.createTicket(t, f.requester, "Projector flickers")
	done := f.createTicket(t, f.requester, "Keyboard sticky")
	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, done.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, done.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	got, err := f.svc.List(ctx, f.requester.ID, domain.RoleRequester, service.TicketListFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusPending},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTicketIDs(t, got, pending.ID)

	// Search matches the location name, but never widens the role scope:
	// Bob's ticket at the Annex stays invisible to Alice.
	annexTicket := f.createTicket(t, f.requester2, "Annex outlet dead")
	search := "headquarters"
	got, err = f.svc.List(ctx, f.requester.ID, domain.RoleRequester, service.TicketListFilter{Search: &search})
	if err != nil {
		t.Fatalf("search list: %v", err)
	}
	assertTicketIDs(t, got, pending.ID, done.ID)

	search = "annex"
	got, err = f.svc.List(ctx, f.requester.ID, domain.RoleRequester, service.TicketListFilter{Search: &search})
	if err != nil {
		t.Fatalf("search list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results for foreign location search, got %d", len(got))
	}

	got, err = f.svc.List(ctx, f.admin.ID, domain.RoleAdmin, service.TicketListFilter{Search: &search})
	if err != nil {
		t.Fatalf("admin search: %v", err)
	}
	assertTicketIDs(t, got, annexTicket.ID)
}

func TestSweepHistoryPerViewerFlags(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	done := f.createTicket(t, f.requester, "Finished work")
	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, done.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Finalize(ctx, f.techA.ID, domain.RoleTechnician, done.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	open := f.createTicket(t, f.requester, "Still open")

	result, err := f.svc.SweepHistory(ctx, f.requester.ID, domain.RoleRequester)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.AffectedCount != 1 || result.Destructive {
		t.Fatalf("expected non-destructive sweep of 1, got %+v", result)
	}

	// Gone from the requester's view, open ticket untouched.
	got, err := f.svc.List(ctx, f.requester.ID, domain.RoleRequester, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTicketIDs(t, got, open.ID)

	// The technician and admin still see the record.
	got, err = f.svc.List(ctx, f.techA.ID, domain.RoleTechnician, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list tech: %v", err)
	}
	assertTicketIDs(t, got, done.ID, open.ID)

	got, err = f.svc.List(ctx, f.admin.ID, domain.RoleAdmin, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list admin: %v", err)
	}
	assertTicketIDs(t, got, done.ID, open.ID)

	// Technician sweep hides their side independently.
	result, err = f.svc.SweepHistory(ctx, f.techA.ID, domain.RoleTechnician)
	if err != nil {
		t.Fatalf("tech sweep: %v", err)
	}
	if result.AffectedCount != 1 || result.Destructive {
		t.Fatalf("expected non-destructive sweep of 1, got %+v", result)
	}
	got, err = f.svc.List(ctx, f.techA.ID, domain.RoleTechnician, service.TicketListFilter{})
	if err != nil {
		t.Fatalf("list tech: %v", err)
	}
	assertTicketIDs(t, got, open.ID)

	// The shared record survives both sweeps.
	if _, err := f.tickets.GetByID(ctx, done.ID); err != nil {
		t.Fatalf("expected record to survive per-viewer sweeps: %v", err)
	}

	swept := f.dispatcher.byType(events.EventHistorySwept)
	if len(swept) != 2 {
		t.Fatalf("expected 2 sweep events, got %d", len(swept))
	}
}

func TestSweepHistoryAdminHardDeletesOwnClosed(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	// A closed ticket raised by the admin and one raised by Alice.
	adminTicket, err := f.svc.Create(ctx, f.admin.ID, domain.RoleAdmin, service.TicketCreateInput{
		Title:      "Admin request",
		LocationID: &f.hq.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, f.admin.ID, domain.RoleAdmin, adminTicket.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	aliceTicket := f.createTicket(t, f.requester, "Alice request")
	if _, err := f.svc.Cancel(ctx, f.requester.ID, domain.RoleRequester, aliceTicket.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	result, err := f.svc.SweepHistory(ctx, f.admin.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.AffectedCount != 1 || !result.Destructive {
		t.Fatalf("expected destructive sweep of 1, got %+v", result)
	}

	// The admin's own record is gone for everyone; Alice's survives.
	if _, err := f.tickets.GetByID(ctx, adminTicket.ID); err == nil {
		t.Fatal("expected admin ticket to be hard deleted")
	}
	if _, err := f.tickets.GetByID(ctx, aliceTicket.ID); err != nil {
		t.Fatalf("expected other users' tickets untouched: %v", err)
	}
}

func TestSweepHistoryIgnoresOpenTickets(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	f.createTicket(t, f.requester, "Pending one")
	inProgress := f.createTicket(t, f.requester, "Active one")
	if _, err := f.svc.Accept(ctx, f.techA.ID, domain.RoleTechnician, inProgress.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	result, err := f.svc.SweepHistory(ctx, f.requester.ID, domain.RoleRequester)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.AffectedCount != 0 {
		t.Fatalf("expected sweep to skip open tickets, affected %d", result.AffectedCount)
	}
}

func assertTicketIDs(t *testing.T, got []domain.Ticket, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tickets, got %d", len(want), len(got))
	}
	seen := make(map[string]bool, len(got))
	for _, ticket := range got {
		seen[ticket.ID] = true
	}
	for _, id := range want {
		if !seen[id] {
			t.Fatalf("expected ticket %s in result", id)
		}
	}
}
