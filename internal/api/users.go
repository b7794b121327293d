package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/store"
)

// UsersHandler handles account management and the registration queue.
type UsersHandler struct {
	DB  *sql.DB
	Log *zap.Logger
}

type createUserRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if users == nil {
		users = []model.Actor{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.FullName, req.Email, string(hash), req.Role, req.Company, req.Phone)
	if err != nil {
		jsonError(w, http.StatusConflict, "email already exists")
		return
	}

	actor := GetActor(r.Context())
	h.Log.Info("user created",
		zap.String("by", actor.Email),
		zap.String("new_user", req.Email),
		zap.String("role", req.Role),
	)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if target == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	// Units record their holder by name, so renaming an account that still
	// holds stock would orphan those units.
	if req.FullName != target.FullName {
		held, err := store.CountUnitsHeldBy(r.Context(), h.DB, target.FullName)
		if err != nil {
			respondError(w, h.Log, err)
			return
		}
		if held > 0 {
			jsonError(w, http.StatusConflict, "user still holds units")
			return
		}
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, req.FullName, req.Email, req.Role, req.Company, req.Phone); err != nil {
		respondError(w, h.Log, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	h.Log.Info("user updated",
		zap.String("by", actor.Email),
		zap.String("target_user", req.Email),
		zap.String("role", req.Role),
	)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if target == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	h.Log.Info("user password reset", zap.String("by", actor.Email), zap.String("target_user", target.Email))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}. Accounts that still hold stock
// cannot be removed until their units are booked back in.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	actor := GetActor(r.Context())
	if actor.ID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if target == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	held, err := store.CountUnitsHeldBy(r.Context(), h.DB, target.FullName)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if held > 0 {
		jsonError(w, http.StatusConflict, "user still holds units")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("user deleted", zap.String("by", actor.Email), zap.String("deleted_user", target.Email))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// Requests handles GET /api/requests. Lists pending registrations.
func (h *UsersHandler) Requests(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListPendingRequests(r.Context(), h.DB)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if requests == nil {
		requests = []model.RegistrationRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

type approveRequest struct {
	Role string `json:"role" validate:"required"`
}

// Approve handles POST /api/requests/{id}/approve. Creates the account
// with the role the reviewing admin assigns.
func (h *UsersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	request, err := store.GetRequest(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if request == nil || request.Status != model.RequestPending {
		jsonError(w, http.StatusNotFound, "pending request not found")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, request.FullName, request.Email, request.PasswordHash, req.Role, request.Company, request.Phone)
	if err != nil {
		jsonError(w, http.StatusConflict, "email already exists")
		return
	}

	if err := store.SetRequestStatus(r.Context(), h.DB, id, model.RequestApproved); err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	h.Log.Info("registration approved",
		zap.String("by", actor.Email),
		zap.String("new_user", request.Email),
		zap.String("role", req.Role),
	)
	jsonResponse(w, http.StatusCreated, user)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *UsersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := store.GetRequest(r.Context(), h.DB, id)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if request == nil || request.Status != model.RequestPending {
		jsonError(w, http.StatusNotFound, "pending request not found")
		return
	}

	if err := store.SetRequestStatus(r.Context(), h.DB, id, model.RequestRejected); err != nil {
		respondError(w, h.Log, err)
		return
	}

	actor := GetActor(r.Context())
	h.Log.Info("registration rejected", zap.String("by", actor.Email), zap.String("email", request.Email))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "request rejected"})
}
