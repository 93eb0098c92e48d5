package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// sqliteTicketHistoryRepository keeps change values as JSON text.
type sqliteTicketHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteTicketHistoryRepository builds repository.
func NewSQLiteTicketHistoryRepository(db *sql.DB) TicketHistoryRepository {
	return &sqliteTicketHistoryRepository{db: db}
}

func (r *sqliteTicketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	oldValue, err := encodeHistoryValue(history.OldValue)
	if err != nil {
		return err
	}
	newValue, err := encodeHistoryValue(history.NewValue)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_id, change_type, old_value, new_value, created_at)
        VALUES (?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, query,
		history.TicketID,
		nullableString(history.ChangedByID),
		string(history.ChangeType),
		oldValue,
		newValue,
		toUnixNano(history.CreatedAt),
	)
	if err != nil {
		return translateSQLiteError(err)
	}
	history.ID, err = res.LastInsertId()
	return err
}

func (r *sqliteTicketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=? ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var (
			history            domain.TicketHistory
			changedBy          sql.NullString
			changeType         string
			oldValue, newValue sql.NullString
			createdAt          int64
		)
		if err := rows.Scan(&history.ID, &history.TicketID, &changedBy, &changeType, &oldValue, &newValue, &createdAt); err != nil {
			return nil, err
		}
		history.ChangedByID = stringPtr(changedBy)
		history.ChangeType = domain.TicketChangeType(changeType)
		history.CreatedAt = fromUnixNano(createdAt)
		if history.OldValue, err = decodeHistoryValue(oldValue); err != nil {
			return nil, err
		}
		if history.NewValue, err = decodeHistoryValue(newValue); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

func encodeHistoryValue(value map[string]any) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeHistoryValue(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid {
		return nil, nil
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(raw.String), &value); err != nil {
		return nil, err
	}
	return value, nil
}
