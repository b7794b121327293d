// Package ingest imports new inventory units from uploaded spreadsheets,
// rejecting malformed and duplicate rows. Imported units land in whatever
// at-base status the row declares; they never pass through the lifecycle
// transitions on the way in.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/store"
)

// Row is one unit row from an uploaded inventory sheet. Line is the 1-based
// source line, kept for skip reporting.
type Row struct {
	Code          string
	Serial        string
	Phone         string
	Type          string
	Status        string
	Location      string
	PurchaseOrder string
	Line          int
}

// Skip reasons.
const (
	ReasonMissingFields = "missing fields"
	ReasonDuplicateCode = "duplicate code"
)

// Skip describes why a row was not imported.
type Skip struct {
	Line   int    `json:"line"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// Result reports an import outcome. Skips are collected per row and
// reported even when the insert itself fails.
type Result struct {
	Added   int    `json:"added"`
	Skipped []Skip `json:"skipped"`
}

func (r Row) missingField() bool {
	for _, field := range []string{r.Code, r.Serial, r.Phone, r.Type, r.Status, r.Location, r.PurchaseOrder} {
		if strings.TrimSpace(field) == "" {
			return true
		}
	}
	return false
}

// Ingest validates, deduplicates and inserts new units. The working set is
// seeded from every code already in the store, and grows as rows are
// accepted, so a code repeated within one upload keeps only its first
// occurrence. Accepted rows are staged and inserted in a single
// transaction: the persistence step fully succeeds or fully fails, but the
// per-row skip list is returned either way.
func Ingest(ctx context.Context, db *sql.DB, actor *model.Actor, rows []Row) (*Result, error) {
	if actor == nil {
		return nil, model.ErrUnauthorized
	}
	caps, err := model.RoleCapabilities(actor.Role)
	if err != nil {
		return nil, err
	}
	if !caps.Import {
		return nil, fmt.Errorf("%w: role %s may not import", model.ErrForbidden, actor.Role)
	}

	seen, err := store.ListUnitCodes(ctx, db)
	if err != nil {
		return nil, err
	}

	result := &Result{Skipped: []Skip{}}
	var staged []model.Unit
	for _, row := range rows {
		if row.missingField() {
			result.Skipped = append(result.Skipped, Skip{Line: row.Line, Code: row.Code, Reason: ReasonMissingFields})
			continue
		}
		code := strings.TrimSpace(row.Code)
		if seen[code] {
			result.Skipped = append(result.Skipped, Skip{Line: row.Line, Code: code, Reason: ReasonDuplicateCode})
			continue
		}
		seen[code] = true
		staged = append(staged, model.Unit{
			Code:          code,
			Serial:        row.Serial,
			Phone:         row.Phone,
			Type:          row.Type,
			Status:        row.Status,
			Location:      row.Location,
			PurchaseOrder: row.PurchaseOrder,
		})
	}

	if len(staged) > 0 {
		if err := store.BulkInsertUnits(ctx, db, staged); err != nil {
			return result, err
		}
		result.Added = len(staged)
	}
	return result, nil
}
