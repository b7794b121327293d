package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bkastelic/fieldstock/internal/model"
)

const userColumns = `id, full_name, email, password_hash, role, company, phone, created_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (*model.Actor, error) {
	u := &model.Actor{}
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Company, &u.Phone, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db *sql.DB, fullName, email, passwordHash, role, company, phone string) (*model.Actor, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (full_name, email, password_hash, role, company, phone) VALUES (?, ?, ?, ?, ?, ?)`,
		fullName, email, passwordHash, role, company, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.Actor, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email (including soft-deleted for auth
// checks).
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.Actor, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.Actor, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.Actor
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FullNamesInCompany returns the full names of all active users belonging
// to the given company. An empty result is meaningful: visibility scoping
// fails closed on it.
func FullNamesInCompany(ctx context.Context, db *sql.DB, company string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT full_name FROM users WHERE company = ? AND deleted_at IS NULL`, company,
	)
	if err != nil {
		return nil, fmt.Errorf("listing company members: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning company member: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpdateUser updates a user's profile fields and role.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, fullName, email, role, company, phone string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, email = ?, role = ?, company = ?, phone = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		fullName, email, role, company, phone, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
