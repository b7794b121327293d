package model

import "errors"

// Error kinds shared across the core. Callers distinguish failures with
// errors.Is; the API layer maps each kind to an HTTP status. Store failures
// are wrapped and propagated as-is, never collapsed into one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnknownRole  = errors.New("unknown role")
)
