package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/bkastelic/fieldstock/internal/lifecycle"
	"github.com/bkastelic/fieldstock/internal/store"
)

// TransitionsHandler handles the batch lifecycle endpoints.
type TransitionsHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

type dispatchRequest struct {
	Codes        []string `json:"codes" validate:"required,min=1"`
	TechnicianID int64    `json:"technician_id" validate:"required"`
}

type receiveRequest struct {
	Codes  []string `json:"codes" validate:"required,min=1"`
	Target string   `json:"target" validate:"required,oneof=storeroom refurb"`
}

type transitRequest struct {
	Codes []string `json:"codes" validate:"required,min=1"`
}

// Dispatch handles POST /api/units/dispatch. Assigns the scanned units to
// a technician.
func (h *TransitionsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	result, err := lifecycle.ApplyBatch(r.Context(), h.DB, actor, lifecycle.EventDispatch, req.Codes, req.TechnicianID)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("units dispatched",
		zap.Int("updated", len(result.Updated)),
		zap.Int("not_found", len(result.NotFound)),
		zap.Int64("technician_id", req.TechnicianID),
		zap.String("by", actor.Email),
	)
	jsonResponse(w, http.StatusOK, result)
}

// Receive handles POST /api/units/receive. Books the scanned units back
// into the storeroom or onto the refurbishment shelf.
func (h *TransitionsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	event := lifecycle.EventReceiveStoreroom
	if req.Target == "refurb" {
		event = lifecycle.EventReceiveRefurb
	}

	actor := GetActor(r.Context())
	result, err := lifecycle.ApplyBatch(r.Context(), h.DB, actor, event, req.Codes, 0)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("units received",
		zap.Int("updated", len(result.Updated)),
		zap.Int("not_found", len(result.NotFound)),
		zap.String("target", req.Target),
		zap.String("by", actor.Email),
	)
	jsonResponse(w, http.StatusOK, result)
}

// Transit handles POST /api/units/transit. Marks held units as on their
// way back to the office.
func (h *TransitionsHandler) Transit(w http.ResponseWriter, r *http.Request) {
	var req transitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	result, err := lifecycle.ApplyBatch(r.Context(), h.DB, actor, lifecycle.EventTransitOffice, req.Codes, 0)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("units in transit",
		zap.Int("updated", len(result.Updated)),
		zap.Int("not_found", len(result.NotFound)),
		zap.String("by", actor.Email),
	)
	jsonResponse(w, http.StatusOK, result)
}

// Technicians handles GET /api/technicians. Lists accounts that can be
// chosen as dispatch targets.
func (h *TransitionsHandler) Technicians(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	type technician struct {
		ID       int64  `json:"id"`
		FullName string `json:"full_name"`
		Company  string `json:"company,omitempty"`
	}
	techs := []technician{}
	for _, u := range users {
		if u.Company == "" {
			continue
		}
		techs = append(techs, technician{ID: u.ID, FullName: u.FullName, Company: u.Company})
	}
	jsonResponse(w, http.StatusOK, techs)
}
