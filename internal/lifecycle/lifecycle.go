// Package lifecycle validates and applies status/location transitions on
// inventory units. Transitions are unconditional overwrites: no source
// status is checked, so an authorized actor can force a unit into any
// target state. Field workflows rely on this (a unit mistakenly marked
// dispatched can be re-received without an undo path).
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/scope"
	"github.com/bkastelic/fieldstock/internal/store"
)

// Event identifies a lifecycle transition.
type Event string

const (
	EventDispatch         Event = "dispatch"
	EventReceiveStoreroom Event = "receive-storeroom"
	EventReceiveRefurb    Event = "receive-refurb"
	EventTransitOffice    Event = "transit-office"
)

// target is the state an event forces a unit into. Dispatch is absent: its
// location is the technician's full name, resolved at apply time.
type target struct {
	status   string
	location string
}

var targets = map[Event]target{
	EventReceiveStoreroom: {model.StatusStoreroom, model.LocationWarehouse},
	EventReceiveRefurb:    {model.StatusRefurb, model.LocationRefurbShelf},
	EventTransitOffice:    {model.StatusTransit, model.LocationOffice},
}

func permitted(caps model.Capabilities, e Event) bool {
	switch e {
	case EventDispatch:
		return caps.Dispatch
	case EventReceiveStoreroom, EventReceiveRefurb:
		return caps.Receive
	case EventTransitOffice:
		return caps.Transit
	}
	return false
}

// BatchResult splits a batch into codes that were updated and codes that
// did not resolve to a visible unit. Partial application is expected and
// reported, never rolled back.
type BatchResult struct {
	Updated  []string `json:"updated"`
	NotFound []string `json:"not_found"`
}

// ApplyBatch applies one transition across a set of unit codes, one
// independent write per code. A miss never aborts the siblings; only an
// actual store failure does, and that propagates as-is. techID is consulted
// for EventDispatch only.
func ApplyBatch(ctx context.Context, db *sql.DB, actor *model.Actor, e Event, codes []string, techID int64) (*BatchResult, error) {
	if actor == nil {
		return nil, model.ErrUnauthorized
	}
	caps, err := model.RoleCapabilities(actor.Role)
	if err != nil {
		return nil, err
	}
	if !permitted(caps, e) {
		return nil, fmt.Errorf("%w: role %s may not %s", model.ErrForbidden, actor.Role, e)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: empty code list", model.ErrValidation)
	}

	tgt, known := targets[e]
	if e == EventDispatch {
		tech, err := store.GetUser(ctx, db, techID)
		if err != nil {
			return nil, err
		}
		if tech == nil || tech.DeletedAt != nil {
			return nil, fmt.Errorf("%w: technician %d", model.ErrNotFound, techID)
		}
		tgt = target{model.StatusDispatched, tech.FullName}
	} else if !known {
		return nil, fmt.Errorf("%w: unknown transition %q", model.ErrValidation, e)
	}

	// Transit is open to company- and self-scoped roles, so it only
	// reaches units the actor can currently see. A unit outside the
	// actor's scope reports as not found, which also avoids leaking that
	// the code exists.
	var visible store.UnitFilter
	if e == EventTransitOffice {
		visible, err = scope.ForActor(ctx, db, actor, store.UnitFilter{})
		if err != nil {
			return nil, err
		}
	}

	result := &BatchResult{Updated: []string{}, NotFound: []string{}}
	for _, code := range codes {
		if e == EventTransitOffice {
			unit, err := store.GetUnitByCode(ctx, db, code)
			if err != nil {
				return nil, err
			}
			if unit == nil || !scope.Allows(visible, unit.Location) {
				result.NotFound = append(result.NotFound, code)
				continue
			}
		}

		ok, err := store.SetUnitState(ctx, db, code, tgt.status, tgt.location)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Updated = append(result.Updated, code)
		} else {
			result.NotFound = append(result.NotFound, code)
		}
	}
	return result, nil
}

// Apply runs a single-unit transition. Returns model.ErrNotFound when the
// code does not resolve to a unit the actor may move.
func Apply(ctx context.Context, db *sql.DB, actor *model.Actor, e Event, code string, techID int64) error {
	result, err := ApplyBatch(ctx, db, actor, e, []string{code}, techID)
	if err != nil {
		return err
	}
	if len(result.NotFound) > 0 {
		return fmt.Errorf("%w: unit %s", model.ErrNotFound, code)
	}
	return nil
}
