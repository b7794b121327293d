package model

import "time"

// Comment is a note attached to a unit. It never affects lifecycle state;
// its visibility reuses the same role predicate as unit scoping.
type Comment struct {
	ID         int64     `json:"id"`
	UnitID     int64     `json:"unit_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author"`
	Text       string    `json:"text"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment visibilities.
const (
	CommentAdminOnly = "admin"
	CommentShared    = "user+admin"
)
