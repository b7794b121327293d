package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bkastelic/fieldstock/internal/model"
)

// CreateComment attaches a comment to a unit.
func CreateComment(ctx context.Context, db *sql.DB, unitID, authorID int64, authorName, text, visibility string) (*model.Comment, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO comments (unit_id, author_id, author_name, text, visibility) VALUES (?, ?, ?, ?, ?)`,
		unitID, authorID, authorName, text, visibility,
	)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting comment id: %w", err)
	}

	c := &model.Comment{}
	err = db.QueryRowContext(ctx,
		`SELECT id, unit_id, author_id, author_name, text, visibility, created_at
		 FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.UnitID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Visibility, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting comment: %w", err)
	}
	return c, nil
}

// ListComments returns a unit's comments oldest first. When includeAdminOnly
// is false, admin-only comments are withheld.
func ListComments(ctx context.Context, db *sql.DB, unitID int64, includeAdminOnly bool) ([]model.Comment, error) {
	query := `SELECT id, unit_id, author_id, author_name, text, visibility, created_at
	          FROM comments WHERE unit_id = ?`
	args := []any{unitID}
	if !includeAdminOnly {
		query += ` AND visibility = ?`
		args = append(args, model.CommentShared)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UnitID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Visibility, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
