package model

import (
	"fmt"
	"time"
)

// Actor represents an authenticated user. Company is a free-text group name,
// in practice only set for company-admin and user roles.
type Actor struct {
	ID           int64      `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Company      string     `json:"company,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleSuperAdmin   = "super-admin"
	RoleAdmin        = "admin"
	RoleStaff        = "staff"
	RoleCompanyAdmin = "company-admin"
	RoleUser         = "user"
)

// Visibility is the tier of inventory an actor may read.
type Visibility int

const (
	// VisibilityFull sees every unit.
	VisibilityFull Visibility = iota
	// VisibilityCompany sees units held by members of the actor's company.
	VisibilityCompany
	// VisibilitySelf sees only units the actor holds.
	VisibilitySelf
)

// Capabilities is the full capability set of a role. Every authorization
// check in the system consults this table; nothing re-derives role
// comparisons at call sites.
type Capabilities struct {
	Visibility     Visibility
	StatusOnlyEdit bool // may change a unit's status field, nothing else
	Dispatch       bool
	Receive        bool
	Transit        bool
	Import         bool
	EditUnits      bool
	ManageUsers    bool
}

var capabilityTable = map[string]Capabilities{
	RoleSuperAdmin: {
		Visibility:  VisibilityFull,
		Dispatch:    true,
		Receive:     true,
		Transit:     true,
		Import:      true,
		EditUnits:   true,
		ManageUsers: true,
	},
	RoleAdmin: {
		Visibility:  VisibilityFull,
		Dispatch:    true,
		Receive:     true,
		Import:      true,
		EditUnits:   true,
		ManageUsers: true,
	},
	RoleStaff: {
		Visibility:     VisibilityFull,
		StatusOnlyEdit: true,
	},
	RoleCompanyAdmin: {
		Visibility: VisibilityCompany,
		Transit:    true,
	},
	RoleUser: {
		Visibility: VisibilitySelf,
		Transit:    true,
	},
}

// RoleCapabilities returns the capability set for a role.
func RoleCapabilities(role string) (Capabilities, error) {
	caps, ok := capabilityTable[role]
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return caps, nil
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := capabilityTable[role]
	return ok
}

// RegistrationRequest is a pending account application awaiting admin review.
type RegistrationRequest struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Company      string    `json:"company,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Registration request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)
