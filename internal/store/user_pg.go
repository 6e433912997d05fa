package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshop/internal/analytics"
	"bookshop/internal/entity"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type UserPG struct {
	db *pgxpool.Pool
}

func NewUserPG(db *pgxpool.Pool) *UserPG {
	return &UserPG{db: db}
}

func (r *UserPG) GetByUsername(ctx context.Context, username string) (entity.User, error) {
	const query = `
	SELECT id, username, role, password, date_of_birth, last_login, last_logout, created_at, updated_at
	FROM users
	WHERE username = $1
	LIMIT 1`
	var user entity.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Role, &user.Password,
		&user.DateOfBirth, &user.LastLogin, &user.LastLogout,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, ErrNotFound
		}
		return entity.User{}, err
	}
	return user, nil
}

func (r *UserPG) GetByID(ctx context.Context, id string) (entity.User, error) {
	const query = `
	SELECT id, username, role, password, date_of_birth, last_login, last_logout, created_at, updated_at
	FROM users
	WHERE id = $1
	LIMIT 1`
	var user entity.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Role, &user.Password,
		&user.DateOfBirth, &user.LastLogin, &user.LastLogout,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, ErrNotFound
		}
		return entity.User{}, err
	}
	return user, nil
}

func (r *UserPG) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE users SET last_login = $2, updated_at = now() WHERE id = $1", userID, at)
	return err
}

func (r *UserPG) RecordLogout(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE users SET last_logout = $2, updated_at = now() WHERE id = $1", userID, at)
	return err
}

// ListCustomers returns customers alphabetically with their lifetime
// purchase totals, optionally narrowed by a username substring.
func (r *UserPG) ListCustomers(ctx context.Context, search string) ([]analytics.CustomerTotal, error) {
	const query = `
	SELECT u.username, COALESCE(SUM(s.total), 0)
	FROM users u
	LEFT JOIN sales s ON s.customer_id = u.id
	WHERE u.role = 'customer'
	AND ($1 = '' OR u.username ILIKE '%' || $1 || '%')
	GROUP BY u.id, u.username
	ORDER BY u.username ASC`

	rows, err := r.db.Query(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []analytics.CustomerTotal
	for rows.Next() {
		var ct analytics.CustomerTotal
		if err := rows.Scan(&ct.Username, &ct.TotalPurchases); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *UserPG) ListCustomerProfiles(ctx context.Context) ([]entity.User, error) {
	const query = `
	SELECT id, username, role, date_of_birth, last_login, last_logout, created_at, updated_at
	FROM users
	WHERE role = 'customer'
	ORDER BY username ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customer profiles: %w", err)
	}
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Role,
			&u.DateOfBirth, &u.LastLogin, &u.LastLogout,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserPG) ListSessions(ctx context.Context, since time.Time) ([]entity.Session, error) {
	const query = `
	SELECT id, last_login, last_logout
	FROM users
	WHERE last_login >= $1
	ORDER BY last_login ASC`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []entity.Session
	for rows.Next() {
		var s entity.Session
		if err := rows.Scan(&s.UserID, &s.LastLogin, &s.LastLogout); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
