package repository

import (
	"errors"

	"github.com/spec-kit/ticketdesk/internal/persistence"
)

// Repositories bundles the relational repositories for the active driver.
type Repositories struct {
	Tickets TicketRepository
	Users   UserRepository
	History TicketHistoryRepository
}

// New picks the implementation matching the opened database.
func New(db *persistence.Database) (*Repositories, error) {
	switch {
	case db == nil:
		return nil, errors.New("database not configured")
	case db.SQLite != nil:
		return &Repositories{
			Tickets: NewSQLiteTicketRepository(db.SQLite.DB),
			Users:   NewSQLiteUserRepository(db.SQLite.DB),
			History: NewSQLiteTicketHistoryRepository(db.SQLite.DB),
		}, nil
	case db.Postgres != nil:
		return &Repositories{
			Tickets: NewTicketRepository(db.Postgres.Pool),
			Users:   NewUserRepository(db.Postgres.Pool),
			History: NewTicketHistoryRepository(db.Postgres.Pool),
		}, nil
	default:
		return nil, errors.New("database has no active driver")
	}
}
