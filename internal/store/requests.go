package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bkastelic/fieldstock/internal/model"
)

const requestColumns = `id, full_name, email, password_hash, company, phone, status, created_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.RegistrationRequest, error) {
	r := &model.RegistrationRequest{}
	err := row.Scan(&r.ID, &r.FullName, &r.Email, &r.PasswordHash, &r.Company,
		&r.Phone, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRequest files a new registration request in pending state.
func CreateRequest(ctx context.Context, db *sql.DB, fullName, email, passwordHash, company, phone string) (*model.RegistrationRequest, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO user_requests (full_name, email, password_hash, company, phone) VALUES (?, ?, ?, ?, ?)`,
		fullName, email, passwordHash, company, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("creating registration request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// GetRequest returns a registration request by ID.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.RegistrationRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM user_requests WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting registration request: %w", err)
	}
	return r, nil
}

// ListPendingRequests returns all registration requests awaiting review.
func ListPendingRequests(ctx context.Context, db *sql.DB) ([]model.RegistrationRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM user_requests WHERE status = ? ORDER BY id`,
		model.RequestPending,
	)
	if err != nil {
		return nil, fmt.Errorf("listing registration requests: %w", err)
	}
	defer rows.Close()

	var requests []model.RegistrationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning registration request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// SetRequestStatus marks a request approved or rejected.
func SetRequestStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE user_requests SET status = ? WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("setting request status: %w", err)
	}
	return nil
}
