package model

import "time"

// Unit is one physical tracked hardware item. Code is the natural key used
// by every scanning and lookup flow and is unique across the whole
// population; it never changes once issued.
//
// Location holds either a place constant or the full name of the actor
// currently holding the unit. Status and location always change together
// under a lifecycle transition.
type Unit struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Serial        string    `json:"serial"`
	Phone         string    `json:"phone"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Location      string    `json:"location"`
	PurchaseOrder string    `json:"po"`
	PhotoMime     string    `json:"photo_mime,omitempty"`
	Version       int64     `json:"version"`
	ReceivedAt    time.Time `json:"received_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Unit statuses written by lifecycle transitions. The set is open: imports
// and direct edits may carry other values.
const (
	StatusStoreroom  = "Storeroom"
	StatusWarehouse  = "Warehouse"
	StatusDispatched = "Dispatched"
	StatusTransit    = "Transit to Office"
	StatusRefurb     = "Refurb"
)

// Place constants written by transitions.
const (
	LocationWarehouse   = "Warehouse"
	LocationRefurbShelf = "Refurb Shelf"
	LocationOffice      = "Office"
)
