package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/bkastelic/fieldstock/internal/imaging"
	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/scope"
	"github.com/bkastelic/fieldstock/internal/store"
)

// UnitsHandler handles inventory read and edit endpoints.
type UnitsHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

type updateUnitRequest struct {
	Serial        *string `json:"serial"`
	Phone         *string `json:"phone"`
	Type          *string `json:"type"`
	Status        *string `json:"status"`
	Location      *string `json:"location"`
	PurchaseOrder *string `json:"po"`
	Version       *int64  `json:"version"`
}

// filterFromQuery builds a unit filter from list query parameters.
func filterFromQuery(r *http.Request) store.UnitFilter {
	q := r.URL.Query()
	return store.UnitFilter{
		Search:        q.Get("q"),
		Status:        q.Get("status"),
		Location:      q.Get("location"),
		Type:          q.Get("type"),
		PurchaseOrder: q.Get("po"),
		Company:       q.Get("company"),
	}
}

// List handles GET /api/units.
func (h *UnitsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	scoped, err := scope.ForActor(r.Context(), h.DB, actor, filterFromQuery(r))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	units, err := store.ListUnits(r.Context(), h.DB, scoped)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if units == nil {
		units = []model.Unit{}
	}
	jsonResponse(w, http.StatusOK, units)
}

// Filters handles GET /api/units/filters. Returns the distinct values of
// the filterable columns within the caller's visibility.
func (h *UnitsHandler) Filters(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	scoped, err := scope.ForActor(r.Context(), h.DB, actor, store.UnitFilter{})
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	opts, err := store.DistinctUnitValues(r.Context(), h.DB, scoped)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, opts)
}

// visibleUnit fetches a unit by ID and enforces the caller's visibility.
// Out-of-scope units are reported as missing so their existence is not
// revealed.
func visibleUnit(r *http.Request, db *sql.DB, id int64) (*model.Unit, error) {
	actor := GetActor(r.Context())

	scoped, err := scope.ForActor(r.Context(), db, actor, store.UnitFilter{})
	if err != nil {
		return nil, err
	}

	unit, err := store.GetUnit(r.Context(), db, id)
	if err != nil {
		return nil, err
	}
	if unit == nil || !scope.Allows(scoped, unit.Location) {
		return nil, model.ErrNotFound
	}
	return unit, nil
}

// Get handles GET /api/units/{id}.
func (h *UnitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	unit, err := visibleUnit(r, h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, unit)
}

// Barcode handles GET /api/barcode/{code}. Looks a unit up by its
// asset code or serial number, as scanned.
func (h *UnitsHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	code := r.PathValue("code")

	scoped, err := scope.ForActor(r.Context(), h.DB, actor, store.UnitFilter{})
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	unit, err := store.GetUnitByBarcode(r.Context(), h.DB, code)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if unit == nil || !scope.Allows(scoped, unit.Location) {
		jsonError(w, http.StatusNotFound, "unit not found")
		return
	}
	jsonResponse(w, http.StatusOK, unit)
}

// Update handles PUT /api/units/{id}. Warehouse staff may only change the
// status field; full edits require the edit capability.
func (h *UnitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	caps, err := model.RoleCapabilities(actor.Role)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if !caps.EditUnits && !caps.StatusOnlyEdit {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	var req updateUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	if !caps.EditUnits {
		if req.Serial != nil || req.Phone != nil || req.Type != nil ||
			req.Location != nil || req.PurchaseOrder != nil {
			jsonError(w, http.StatusForbidden, "only the status field may be changed")
			return
		}
	}

	if _, err := visibleUnit(r, h.DB, id); err != nil {
		respondError(w, h.Log, err)
		return
	}

	unit, err := store.UpdateUnitFields(r.Context(), h.DB, id, store.UnitUpdate{
		Serial:          req.Serial,
		Phone:           req.Phone,
		Type:            req.Type,
		Status:          req.Status,
		Location:        req.Location,
		PurchaseOrder:   req.PurchaseOrder,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("unit updated", zap.String("code", unit.Code), zap.String("by", actor.Email))
	jsonResponse(w, http.StatusOK, unit)
}

// UploadPhoto handles PUT /api/units/{id}/photo. Anyone who can see the
// unit may document its condition.
func (h *UnitsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	unit, err := visibleUnit(r, h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	photo, err := imaging.ProcessPhoto(r.Body)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	if err := store.SetUnitPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("unit photo stored", zap.String("code", unit.Code), zap.Int("bytes", len(photo.Data)))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo stored"})
}

// GetPhoto handles GET /api/units/{id}/photo.
func (h *UnitsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	if _, err := visibleUnit(r, h.DB, id); err != nil {
		respondError(w, h.Log, err)
		return
	}

	data, mime, err := store.GetUnitPhoto(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no photo stored")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
