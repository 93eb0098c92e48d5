package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// TicketFilter narrows ticket listings. Zero value lists everything.
type TicketFilter struct {
	CreatedByUserID  *string
	AssignedToUserID *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket and fills ID and Version.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the editable fields when ticket.Version matches the stored
	// row, then bumps ticket.Version. ErrVersionMismatch when no row matched.
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetDetails(ctx context.Context, id int64) (*domain.TicketDetails, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// List returns tickets newest first; equal timestamps put the later insert first.
	List(ctx context.Context, filter TicketFilter) ([]domain.TicketDetails, error)
	Count(ctx context.Context) (int64, error)
}

const ticketDetailsSelect = `
        SELECT t.id, t.title, t.description, t.status, t.urgency_level, t.category,
               t.created_by_user_id, t.assigned_to_user_id, t.created_at, t.version,
               c.full_name, c.email, a.full_name, a.email
        FROM tickets t
        JOIN users c ON c.id = t.created_by_user_id
        LEFT JOIN users a ON a.id = t.assigned_to_user_id`

const ticketListOrder = ` ORDER BY t.created_at DESC, t.id ASC`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the postgres repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, urgency_level, category,
                             created_by_user_id, assigned_to_user_id, created_at, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1)
        RETURNING id, version`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.UrgencyLevel,
		ticket.Category,
		ticket.CreatedByUserID,
		ticket.AssignedToUserID,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.Version)
	return translatePgError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, urgency_level=$4, category=$5,
            assigned_to_user_id=$6, version=version+1
        WHERE id=$7 AND version=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.UrgencyLevel,
		ticket.Category,
		ticket.AssignedToUserID,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionMismatch
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, status, urgency_level, category,
               created_by_user_id, assigned_to_user_id, created_at, version
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.UrgencyLevel,
		&ticket.Category,
		&ticket.CreatedByUserID,
		&ticket.AssignedToUserID,
		&ticket.CreatedAt,
		&ticket.Version,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) GetDetails(ctx context.Context, id int64) (*domain.TicketDetails, error) {
	row := r.pool.QueryRow(ctx, ticketDetailsSelect+` WHERE t.id=$1`, id)
	details, err := scanTicketDetails(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return details, nil
}

func (r *ticketRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists)
	return exists, translatePgError(err)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.TicketDetails, error) {
	clauses := []string{}
	args := []any{}

	if filter.CreatedByUserID != nil {
		args = append(args, *filter.CreatedByUserID)
		clauses = append(clauses, fmt.Sprintf("t.created_by_user_id=$%d", len(args)))
	}
	if filter.AssignedToUserID != nil {
		args = append(args, *filter.AssignedToUserID)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to_user_id=$%d", len(args)))
	}

	query := ticketDetailsSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ticketListOrder

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.TicketDetails{}
	for rows.Next() {
		details, err := scanTicketDetails(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *details)
	}
	return result, translatePgError(rows.Err())
}

func (r *ticketRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, translatePgError(err)
}

func scanTicketDetails(row pgx.Row) (*domain.TicketDetails, error) {
	var (
		details       domain.TicketDetails
		assigneeName  *string
		assigneeEmail *string
	)
	if err := row.Scan(
		&details.ID,
		&details.Title,
		&details.Description,
		&details.Status,
		&details.UrgencyLevel,
		&details.Category,
		&details.CreatedByUserID,
		&details.AssignedToUserID,
		&details.CreatedAt,
		&details.Version,
		&details.CreatedBy.FullName,
		&details.CreatedBy.Email,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}
	details.CreatedBy.ID = details.CreatedByUserID
	if details.AssignedToUserID != nil && assigneeName != nil {
		details.AssignedTo = &domain.UserRef{
			ID:       *details.AssignedToUserID,
			FullName: *assigneeName,
			Email:    derefString(assigneeEmail),
		}
	}
	return &details, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
