package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/store"
)

// CommentsHandler handles per-unit comment threads.
type CommentsHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

type createCommentRequest struct {
	Text       string `json:"text" validate:"required"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=admin user+admin"`
}

// List handles GET /api/units/{id}/comments. Internal notes are only
// included for warehouse-side roles.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	if _, err := visibleUnit(r, h.DB, id); err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	caps, err := model.RoleCapabilities(actor.Role)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	comments, err := store.ListComments(r.Context(), h.DB, id, caps.Visibility == model.VisibilityFull)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	jsonResponse(w, http.StatusOK, comments)
}

// Create handles POST /api/units/{id}/comments.
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	unit, err := visibleUnit(r, h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	caps, err := model.RoleCapabilities(actor.Role)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.CommentShared
	}
	if visibility == model.CommentAdminOnly && caps.Visibility != model.VisibilityFull {
		jsonError(w, http.StatusForbidden, "cannot create internal notes")
		return
	}

	comment, err := store.CreateComment(r.Context(), h.DB, id, actor.ID, actor.FullName, req.Text, visibility)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("comment added", zap.String("code", unit.Code), zap.String("by", actor.Email))
	jsonResponse(w, http.StatusCreated, comment)
}
