package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrForeignKey is returned when a write references a missing row.
	ErrForeignKey = errors.New("referenced record missing")
	// ErrVersionMismatch is returned by optimistic updates that matched no row.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrUserReferenced is returned when deleting a user who created tickets.
	ErrUserReferenced = errors.New("user is referenced by tickets")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translatePgError maps pgx errors onto the repository sentinels.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(ErrDuplicate, err)
		case pgForeignKeyViolation:
			return errors.Join(ErrForeignKey, err)
		}
	}
	return err
}

// translateSQLiteError maps database/sql and modernc errors onto the repository sentinels.
func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := liteErr.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
			return errors.Join(ErrDuplicate, err)
		case strings.Contains(msg, "FOREIGN KEY"):
			return errors.Join(ErrForeignKey, err)
		}
	}
	return err
}
