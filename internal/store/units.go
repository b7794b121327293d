package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bkastelic/fieldstock/internal/model"
)

// UnitFilter describes a unit query. Zero values impose no restriction.
// Search is a substring match over code, serial and phone, ANDed with the
// equality filters. LocationIn restricts results to units held at one of
// the given locations; None short-circuits to an empty result without
// touching the database.
//
// Company is consumed by scope.ForActor, which rewrites it into a
// LocationIn restriction over the company's member names. The store itself
// never reads it: units carry no company column.
type UnitFilter struct {
	Search        string
	Status        string
	Location      string
	Type          string
	PurchaseOrder string
	Company       string
	LocationIn    []string
	None          bool
}

const unitColumns = `id, code, serial, phone, type, status, location, po, photo_mime, version, received_at, updated_at`

func (f UnitFilter) where() (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	if f.Search != "" {
		clauses = append(clauses, "(code LIKE ? OR serial LIKE ? OR phone LIKE ?)")
		term := "%" + f.Search + "%"
		args = append(args, term, term, term)
	}

	equals := []struct {
		column string
		value  string
	}{
		{"status", f.Status},
		{"location", f.Location},
		{"type", f.Type},
		{"po", f.PurchaseOrder},
	}
	for _, eq := range equals {
		if eq.value != "" {
			clauses = append(clauses, eq.column+" = ?")
			args = append(args, eq.value)
		}
	}

	if len(f.LocationIn) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.LocationIn)), ", ")
		clauses = append(clauses, "location IN ("+placeholders+")")
		for _, loc := range f.LocationIn {
			args = append(args, loc)
		}
	}

	return strings.Join(clauses, " AND "), args
}

func scanUnit(row interface{ Scan(...any) error }) (*model.Unit, error) {
	u := &model.Unit{}
	var photoMime sql.NullString
	err := row.Scan(&u.ID, &u.Code, &u.Serial, &u.Phone, &u.Type, &u.Status,
		&u.Location, &u.PurchaseOrder, &photoMime, &u.Version, &u.ReceivedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PhotoMime = photoMime.String
	return u, nil
}

// ListUnits returns all units matching the filter, newest first.
func ListUnits(ctx context.Context, db *sql.DB, f UnitFilter) ([]model.Unit, error) {
	if f.None {
		return nil, nil
	}

	where, args := f.where()
	rows, err := db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE `+where+` ORDER BY updated_at DESC, id DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

// GetUnit returns a unit by ID.
func GetUnit(ctx context.Context, db *sql.DB, id int64) (*model.Unit, error) {
	u, err := scanUnit(db.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting unit: %w", err)
	}
	return u, nil
}

// GetUnitByCode returns a unit by its code.
func GetUnitByCode(ctx context.Context, db *sql.DB, code string) (*model.Unit, error) {
	u, err := scanUnit(db.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE code = ?`, code,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting unit by code: %w", err)
	}
	return u, nil
}

// GetUnitByBarcode returns a unit whose code or serial matches the scanned
// barcode.
func GetUnitByBarcode(ctx context.Context, db *sql.DB, barcode string) (*model.Unit, error) {
	u, err := scanUnit(db.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE code = ? OR serial = ?`, barcode, barcode,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting unit by barcode: %w", err)
	}
	return u, nil
}

// SetUnitState moves a unit into the given status and location. The write
// is an unconditional overwrite: no source state is checked, and concurrent
// writers race last-writer-wins. Returns false if no unit owns the code.
func SetUnitState(ctx context.Context, db *sql.DB, code, status, location string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE units SET status = ?, location = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE code = ?`,
		status, location, code,
	)
	if err != nil {
		return false, fmt.Errorf("setting unit state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting unit state: %w", err)
	}
	return n > 0, nil
}

// UnitUpdate lists the fields a direct edit may set. Nil pointers leave the
// column untouched. Code is deliberately absent: it is immutable once
// issued. If ExpectedVersion is set the update only applies when the stored
// version still matches, otherwise model.ErrConflict is returned.
type UnitUpdate struct {
	Serial          *string
	Phone           *string
	Type            *string
	Status          *string
	Location        *string
	PurchaseOrder   *string
	ExpectedVersion *int64
}

// UpdateUnitFields applies a direct field edit and returns the updated
// unit. Returns model.ErrNotFound for an unknown id and model.ErrValidation
// when no fields were submitted.
func UpdateUnitFields(ctx context.Context, db *sql.DB, id int64, upd UnitUpdate) (*model.Unit, error) {
	var sets []string
	var args []any

	fields := []struct {
		column string
		value  *string
	}{
		{"serial", upd.Serial},
		{"phone", upd.Phone},
		{"type", upd.Type},
		{"status", upd.Status},
		{"location", upd.Location},
		{"po", upd.PurchaseOrder},
	}
	for _, field := range fields {
		if field.value != nil {
			sets = append(sets, field.column+" = ?")
			args = append(args, *field.value)
		}
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}

	sets = append(sets, "version = version + 1", "updated_at = CURRENT_TIMESTAMP")
	query := `UPDATE units SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	if upd.ExpectedVersion != nil {
		query += ` AND version = ?`
		args = append(args, *upd.ExpectedVersion)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating unit: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating unit: %w", err)
	}
	if n == 0 {
		existing, err := GetUnit(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: unit %d", model.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: unit %d version changed", model.ErrConflict, id)
	}

	return GetUnit(ctx, db, id)
}

// ListUnitCodes returns the set of all codes currently in the store.
func ListUnitCodes(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT code FROM units`)
	if err != nil {
		return nil, fmt.Errorf("listing unit codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning unit code: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

// BulkInsertUnits inserts all rows in a single transaction. Either every
// row lands or none do; the unique code index makes a mid-batch duplicate
// roll the whole insert back.
func BulkInsertUnits(ctx context.Context, db *sql.DB, units []model.Unit) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO units (code, serial, phone, type, status, location, po) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing bulk insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range units {
		if _, err := stmt.ExecContext(ctx, u.Code, u.Serial, u.Phone, u.Type, u.Status, u.Location, u.PurchaseOrder); err != nil {
			return fmt.Errorf("inserting unit %s: %w", u.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk insert: %w", err)
	}
	return nil
}

// FilterOptions holds the distinct values for the inventory filter
// drop-downs, computed over the caller's visible units.
type FilterOptions struct {
	Status        []string `json:"status"`
	Location      []string `json:"location"`
	Type          []string `json:"type"`
	PurchaseOrder []string `json:"po"`
}

// DistinctUnitValues returns the distinct filter values within the filter's
// visibility restriction.
func DistinctUnitValues(ctx context.Context, db *sql.DB, f UnitFilter) (*FilterOptions, error) {
	opts := &FilterOptions{}
	if f.None {
		return opts, nil
	}

	where, args := f.where()
	columns := []struct {
		column string
		dest   *[]string
	}{
		{"status", &opts.Status},
		{"location", &opts.Location},
		{"type", &opts.Type},
		{"po", &opts.PurchaseOrder},
	}
	for _, c := range columns {
		rows, err := db.QueryContext(ctx,
			`SELECT DISTINCT `+c.column+` FROM units WHERE `+where+` ORDER BY `+c.column, args...,
		)
		if err != nil {
			return nil, fmt.Errorf("listing distinct %s: %w", c.column, err)
		}
		for rows.Next() {
			var value string
			if err := rows.Scan(&value); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning distinct %s: %w", c.column, err)
			}
			*c.dest = append(*c.dest, value)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return opts, nil
}

// CountUnitsHeldBy returns how many units list the given holder name as
// their location. Used to warn before renaming or deleting a user whose
// name still anchors inventory.
func CountUnitsHeldBy(ctx context.Context, db *sql.DB, name string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM units WHERE location = ?`, name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting held units: %w", err)
	}
	return count, nil
}

// SetUnitPhoto stores a unit's condition photo.
func SetUnitPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE units SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting unit photo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting unit photo: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: unit %d", model.ErrNotFound, id)
	}
	return nil
}

// GetUnitPhoto returns a unit's photo data and MIME type.
func GetUnitPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM units WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting unit photo: %w", err)
	}
	return photo, mime.String, nil
}
