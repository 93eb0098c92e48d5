package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// UserRepository defines persistence access for user accounts and roles.
type UserRepository interface {
	// Create inserts the user with its roles. ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// List returns every user ordered by full name.
	List(ctx context.Context) ([]domain.User, error)
	AddRole(ctx context.Context, userID string, role domain.Role) error
	// Delete removes the user and returns the ids of tickets that were
	// assigned to them, which become unassigned. ErrUserReferenced when the
	// user created any ticket.
	Delete(ctx context.Context, id string) ([]int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO users (id, email, full_name, password_hash, created_at)
            VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, query,
			user.ID,
			user.Email,
			user.FullName,
			user.PasswordHash,
			user.CreatedAt,
		); err != nil {
			return translatePgError(err)
		}
		for _, role := range user.Roles {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				user.ID, role,
			); err != nil {
				return translatePgError(err)
			}
		}
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, full_name, password_hash, created_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, full_name, password_hash, created_at
        FROM users WHERE LOWER(email)=LOWER($1)`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.CreatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	roles, err := r.roles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *userRepository) roles(ctx context.Context, userID string) ([]domain.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id=$1 ORDER BY role`, userID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, translatePgError(rows.Err())
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists)
	return exists, translatePgError(err)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, email, full_name, password_hash, created_at
        FROM users ORDER BY full_name ASC, email ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FullName,
			&user.PasswordHash,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, translatePgError(rows.Err())
}

func (r *userRepository) AddRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, role,
	)
	return translatePgError(err)
}

func (r *userRepository) Delete(ctx context.Context, id string) ([]int64, error) {
	var unassigned []int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var created int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM tickets WHERE created_by_user_id=$1`, id,
		).Scan(&created); err != nil {
			return translatePgError(err)
		}
		if created > 0 {
			return ErrUserReferenced
		}
		rows, err := tx.Query(ctx,
			`UPDATE tickets SET assigned_to_user_id=NULL, version=version+1
             WHERE assigned_to_user_id=$1 RETURNING id`, id,
		)
		if err != nil {
			return translatePgError(err)
		}
		unassigned, err = pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return translatePgError(err)
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
		if err != nil {
			err = translatePgError(err)
			if errors.Is(err, ErrForeignKey) {
				return ErrUserReferenced
			}
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unassigned, nil
}
