package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bkastelic/fieldstock/internal/model"
)

var validate = validator.New()

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target and runs
// struct validation on it.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.Join(model.ErrValidation, err)
	}
	if err := validate.Struct(target); err != nil {
		return errors.Join(model.ErrValidation, err)
	}
	return nil
}

// respondError maps domain errors to HTTP status codes. Unrecognized
// errors are logged and hidden behind a generic 500.
func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		jsonError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnknownRole):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
