package api

import (
	"database/sql"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/bkastelic/fieldstock/internal/ingest"
)

// ImportsHandler handles bulk stock intake.
type ImportsHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

const maxImportBytes = 20 << 20

// Upload handles POST /api/units/import. Accepts a CSV or XLSX file as
// multipart form data under the "file" field.
func (h *ImportsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	var rows []ingest.Row
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		rows, err = ingest.ParseCSV(file)
	case ".xlsx":
		rows, err = ingest.ParseWorkbook(file)
	default:
		jsonError(w, http.StatusBadRequest, "unsupported file type (use .csv or .xlsx)")
		return
	}
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	result, err := ingest.Ingest(r.Context(), h.DB, actor, rows)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("stock imported",
		zap.String("file", header.Filename),
		zap.Int("added", result.Added),
		zap.Int("skipped", len(result.Skipped)),
		zap.String("by", actor.Email),
	)
	jsonResponse(w, http.StatusOK, result)
}

// Template handles GET /api/units/import/template. Serves an empty
// workbook with the expected columns.
func (h *ImportsHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := ingest.Template()
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="stock-import-template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
