package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// sqliteTicketRepository stores timestamps as unix nanoseconds so ordering
// and round-trips stay exact.
type sqliteTicketRepository struct {
	db *sql.DB
}

// NewSQLiteTicketRepository instantiates the sqlite repository.
func NewSQLiteTicketRepository(db *sql.DB) TicketRepository {
	return &sqliteTicketRepository{db: db}
}

func (r *sqliteTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, urgency_level, category,
                             created_by_user_id, assigned_to_user_id, created_at, version)
        VALUES (?,?,?,?,?,?,?,?,1)`
	res, err := r.db.ExecContext(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		int(ticket.UrgencyLevel),
		string(ticket.Category),
		ticket.CreatedByUserID,
		nullableString(ticket.AssignedToUserID),
		toUnixNano(ticket.CreatedAt),
	)
	if err != nil {
		return translateSQLiteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ticket.ID = id
	ticket.Version = 1
	return nil
}

func (r *sqliteTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=?, description=?, status=?, urgency_level=?, category=?,
            assigned_to_user_id=?, version=version+1
        WHERE id=? AND version=?`
	res, err := r.db.ExecContext(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		int(ticket.UrgencyLevel),
		string(ticket.Category),
		nullableString(ticket.AssignedToUserID),
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return translateSQLiteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionMismatch
	}
	ticket.Version++
	return nil
}

func (r *sqliteTicketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id=?`, id)
	if err != nil {
		return translateSQLiteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, status, urgency_level, category,
               created_by_user_id, assigned_to_user_id, created_at, version
        FROM tickets WHERE id=?`
	var (
		ticket    domain.Ticket
		status    string
		urgency   int
		category  string
		assignee  sql.NullString
		createdAt int64
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&status,
		&urgency,
		&category,
		&ticket.CreatedByUserID,
		&assignee,
		&createdAt,
		&ticket.Version,
	); err != nil {
		return nil, translateSQLiteError(err)
	}
	ticket.Status = domain.TicketStatus(status)
	ticket.UrgencyLevel = domain.UrgencyLevel(urgency)
	ticket.Category = domain.TicketCategory(category)
	ticket.AssignedToUserID = stringPtr(assignee)
	ticket.CreatedAt = fromUnixNano(createdAt)
	return &ticket, nil
}

func (r *sqliteTicketRepository) GetDetails(ctx context.Context, id int64) (*domain.TicketDetails, error) {
	row := r.db.QueryRowContext(ctx, ticketDetailsSelect+` WHERE t.id=?`, id)
	details, err := scanSQLiteTicketDetails(row)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	return details, nil
}

func (r *sqliteTicketRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=?)`, id).Scan(&exists)
	return exists, translateSQLiteError(err)
}

func (r *sqliteTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.TicketDetails, error) {
	clauses := []string{}
	args := []any{}

	if filter.CreatedByUserID != nil {
		args = append(args, *filter.CreatedByUserID)
		clauses = append(clauses, "t.created_by_user_id=?")
	}
	if filter.AssignedToUserID != nil {
		args = append(args, *filter.AssignedToUserID)
		clauses = append(clauses, "t.assigned_to_user_id=?")
	}

	query := ticketDetailsSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ticketListOrder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	defer rows.Close()

	result := []domain.TicketDetails{}
	for rows.Next() {
		details, err := scanSQLiteTicketDetails(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *details)
	}
	return result, translateSQLiteError(rows.Err())
}

func (r *sqliteTicketRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, translateSQLiteError(err)
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTicketDetails(row sqlScanner) (*domain.TicketDetails, error) {
	var (
		details       domain.TicketDetails
		status        string
		urgency       int
		category      string
		assignee      sql.NullString
		createdAt     int64
		assigneeName  sql.NullString
		assigneeEmail sql.NullString
	)
	if err := row.Scan(
		&details.ID,
		&details.Title,
		&details.Description,
		&status,
		&urgency,
		&category,
		&details.CreatedByUserID,
		&assignee,
		&createdAt,
		&details.Version,
		&details.CreatedBy.FullName,
		&details.CreatedBy.Email,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}
	details.Status = domain.TicketStatus(status)
	details.UrgencyLevel = domain.UrgencyLevel(urgency)
	details.Category = domain.TicketCategory(category)
	details.AssignedToUserID = stringPtr(assignee)
	details.CreatedAt = fromUnixNano(createdAt)
	details.CreatedBy.ID = details.CreatedByUserID
	if details.AssignedToUserID != nil && assigneeName.Valid {
		details.AssignedTo = &domain.UserRef{
			ID:       *details.AssignedToUserID,
			FullName: assigneeName.String,
			Email:    assigneeEmail.String,
		}
	}
	return &details, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toUnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
