package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

type sqliteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository returns a sqlite-backed implementation.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

// withTx runs fn inside a transaction. The pool holds a single connection,
// so fn must only talk to tx.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.User) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
            INSERT INTO users (id, email, full_name, password_hash, created_at)
            VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.FullName,
			user.PasswordHash,
			toUnixNano(user.CreatedAt),
		); err != nil {
			return translateSQLiteError(err)
		}
		for _, role := range user.Roles {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`,
				user.ID, string(role),
			); err != nil {
				return translateSQLiteError(err)
			}
		}
		return nil
	})
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, full_name, password_hash, created_at
        FROM users WHERE id=?`
	return r.fetchSingle(ctx, query, id)
}

func (r *sqliteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, full_name, password_hash, created_at
        FROM users WHERE LOWER(email)=LOWER(?)`
	return r.fetchSingle(ctx, query, email)
}

func (r *sqliteUserRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanSQLiteUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	roles, err := r.roles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

func (r *sqliteUserRepository) roles(ctx context.Context, userID string) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id=? ORDER BY role`, userID)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, domain.Role(role))
	}
	return roles, translateSQLiteError(rows.Err())
}

func (r *sqliteUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, id).Scan(&exists)
	return exists, translateSQLiteError(err)
}

func (r *sqliteUserRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, email, full_name, password_hash, created_at
        FROM users ORDER BY full_name ASC, email ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, translateSQLiteError(rows.Err())
}

func (r *sqliteUserRepository) AddRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`,
		userID, string(role),
	)
	return translateSQLiteError(err)
}

func (r *sqliteUserRepository) Delete(ctx context.Context, id string) ([]int64, error) {
	var unassigned []int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var created int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tickets WHERE created_by_user_id=?`, id,
		).Scan(&created); err != nil {
			return translateSQLiteError(err)
		}
		if created > 0 {
			return ErrUserReferenced
		}
		ids, err := unassignTickets(ctx, tx, id)
		if err != nil {
			return err
		}
		unassigned = ids
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
		if err != nil {
			err = translateSQLiteError(err)
			if errors.Is(err, ErrForeignKey) {
				return ErrUserReferenced
			}
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unassigned, nil
}

func unassignTickets(ctx context.Context, tx *sql.Tx, userID string) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`UPDATE tickets SET assigned_to_user_id=NULL, version=version+1
         WHERE assigned_to_user_id=? RETURNING id`, userID,
	)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, translateSQLiteError(err)
	}
	return ids, nil
}

func scanSQLiteUser(row sqlScanner) (*domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&createdAt,
	); err != nil {
		return nil, err
	}
	user.CreatedAt = fromUnixNano(createdAt)
	return &user, nil
}
