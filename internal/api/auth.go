package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bkastelic/fieldstock/internal/auth"
	"github.com/bkastelic/fieldstock/internal/store"
)

// AuthHandler handles authentication and account endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Log       *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Company  string `json:"company,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Company  string `json:"company" validate:"required"`
	Phone    string `json:"phone"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Log.Warn("login failed", zap.String("email", req.Email), zap.String("remote", r.RemoteAddr))
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.FullName, user.Role, user.Company)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("user logged in", zap.String("email", user.Email), zap.String("role", user.Role))
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:    token,
		FullName: user.FullName,
		Role:     user.Role,
		Company:  user.Company,
	})
}

// Logout handles POST /api/auth/logout. Revokes the presented token's JTI
// so it cannot be replayed before expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(w, h.Log, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	if actor == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, actor.ID, string(hash)); err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("user changed own password", zap.String("email", actor.Email))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Register handles POST /api/auth/register. Accounts are not created
// directly; the request lands in a queue for an administrator to review.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Log, err)
		return
	}

	existing, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "email already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	request, err := store.CreateRequest(r.Context(), h.DB, req.FullName, req.Email, string(hash), req.Company, req.Phone)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	h.Log.Info("registration requested", zap.String("email", req.Email), zap.String("company", req.Company))
	jsonResponse(w, http.StatusAccepted, map[string]any{
		"message":    "registration pending approval",
		"request_id": request.ID,
	})
}
