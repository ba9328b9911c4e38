package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. VisibleToRequester and
// VisibleToTechnician install the role-scoped visibility predicate;
// the remaining fields intersect with it.
type TicketFilter struct {
	RequesterID         *string
	TechnicianID        *string
	VisibleToRequester  *string
	VisibleToTechnician *string
	Statuses            []domain.TicketStatus
	LocationID          *string
	SearchTerm          *string
	Limit               int
	Offset              int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ClaimPending atomically assigns a PENDING, unassigned ticket to the
	// technician. Returns pgx.ErrNoRows when the claim was lost, either
	// because the ticket moved out of PENDING or another technician won.
	ClaimPending(ctx context.Context, ticketID, technicianID string) (*domain.Ticket, error)
	HideClosedForRequester(ctx context.Context, requesterID string) (int64, error)
	HideClosedForTechnician(ctx context.Context, technicianID string) (int64, error)
	DeleteClosedByActor(ctx context.Context, actorID string) (int64, error)
	HasOpenByUser(ctx context.Context, userID string) (bool, error)
	HasOpenByLocation(ctx context.Context, locationID string) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.external_key, t.title, t.description, t.status, t.requester_id,
               t.location_id, t.technician_id, t.hidden_from_requester, t.hidden_from_technician,
               t.created_at, t.updated_at, t.accepted_at, t.closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, title, description, status, requester_id, location_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.RequesterID,
		ticket.LocationID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, technician_id=$4,
            hidden_from_requester=$5, hidden_from_technician=$6, accepted_at=$7, closed_at=$8,
            updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.TechnicianID,
		ticket.HiddenFromRequester,
		ticket.HiddenFromTechnician,
		ticket.AcceptedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets t WHERE t.id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ClaimPending(ctx context.Context, ticketID, technicianID string) (*domain.Ticket, error) {
	// Conditional update: the PENDING + unassigned guard is re-checked
	// against the persisted row at the moment of the write, so two
	// concurrent accepts resolve to exactly one winner.
	query := fmt.Sprintf(`
        UPDATE tickets t SET status=$1, technician_id=$2, accepted_at=NOW(), updated_at=NOW()
        WHERE t.id=$3 AND t.status=$4 AND t.technician_id IS NULL
        RETURNING %s`, ticketColumns)
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query,
		domain.TicketStatusInProgress,
		technicianID,
		ticketID,
		domain.TicketStatusPending,
	).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets t LEFT JOIN locations l ON l.id = t.location_id`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.VisibleToRequester != nil {
		args = append(args, *filter.VisibleToRequester)
		clauses = append(clauses, fmt.Sprintf("(t.requester_id=$%d AND t.hidden_from_requester=FALSE)", len(args)))
	}
	if filter.VisibleToTechnician != nil {
		args = append(args, *filter.VisibleToTechnician)
		clauses = append(clauses, fmt.Sprintf(
			"(t.status='PENDING' OR t.status='IN_PROGRESS' OR (t.technician_id=$%d AND t.hidden_from_technician=FALSE))",
			len(args)))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("t.requester_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("t.technician_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		clauses = append(clauses, fmt.Sprintf("t.location_id=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.title) LIKE %s OR LOWER(t.description) LIKE %s OR LOWER(l.name) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) HideClosedForRequester(ctx context.Context, requesterID string) (int64, error) {
	const query = `
        UPDATE tickets SET hidden_from_requester=TRUE, updated_at=NOW()
        WHERE requester_id=$1 AND status IN ('COMPLETED','CANCELLED')`
	cmd, err := r.pool.Exec(ctx, query, requesterID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) HideClosedForTechnician(ctx context.Context, technicianID string) (int64, error) {
	const query = `
        UPDATE tickets SET hidden_from_technician=TRUE, updated_at=NOW()
        WHERE technician_id=$1 AND status IN ('COMPLETED','CANCELLED')`
	cmd, err := r.pool.Exec(ctx, query, technicianID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) DeleteClosedByActor(ctx context.Context, actorID string) (int64, error) {
	const query = `
        DELETE FROM tickets
        WHERE status IN ('COMPLETED','CANCELLED') AND (requester_id=$1 OR technician_id=$1)`
	cmd, err := r.pool.Exec(ctx, query, actorID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) HasOpenByUser(ctx context.Context, userID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM tickets
            WHERE status IN ('PENDING','IN_PROGRESS') AND (requester_id=$1 OR technician_id=$1)
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ticketRepository) HasOpenByLocation(ctx context.Context, locationID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM tickets
            WHERE status IN ('PENDING','IN_PROGRESS') AND location_id=$1
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, locationID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func ticketFields(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.RequesterID,
		&ticket.LocationID,
		&ticket.TechnicianID,
		&ticket.HiddenFromRequester,
		&ticket.HiddenFromTechnician,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.AcceptedAt,
		&ticket.ClosedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
