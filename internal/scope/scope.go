// Package scope narrows unit queries to what an actor is allowed to see.
// This is the primary authorization boundary of the whole system: every
// read path goes through ForActor before touching the store, and leaking a
// unit across it is the worst fault class the application has.
package scope

import (
	"context"
	"database/sql"
	"slices"

	"github.com/bkastelic/fieldstock/internal/model"
	"github.com/bkastelic/fieldstock/internal/store"
)

// ForActor rewrites a caller-supplied filter into the actor's effective
// filter. Full-visibility roles keep their filters verbatim, except that a
// company filter is resolved through the company's member names (units
// carry no company column, holding is name-based). Company-scoped roles are
// restricted to units held by members of their own company; a company with
// no registered members fails closed to an empty result, not an error.
// Self-scoped roles see only units at their own name, overriding any
// caller-supplied location filter.
func ForActor(ctx context.Context, db *sql.DB, actor *model.Actor, f store.UnitFilter) (store.UnitFilter, error) {
	if actor == nil {
		return store.UnitFilter{None: true}, model.ErrUnauthorized
	}

	caps, err := model.RoleCapabilities(actor.Role)
	if err != nil {
		return store.UnitFilter{None: true}, err
	}

	switch caps.Visibility {
	case model.VisibilityFull:
		if f.Company != "" {
			names, err := store.FullNamesInCompany(ctx, db, f.Company)
			if err != nil {
				return store.UnitFilter{None: true}, err
			}
			if len(names) == 0 {
				f.None = true
			} else {
				f.LocationIn = names
			}
		}

	case model.VisibilityCompany:
		names, err := store.FullNamesInCompany(ctx, db, actor.Company)
		if err != nil {
			return store.UnitFilter{None: true}, err
		}
		if len(names) == 0 {
			f.None = true
		} else {
			f.LocationIn = names
		}

	case model.VisibilitySelf:
		f.Location = actor.FullName
		f.LocationIn = nil
	}

	f.Company = ""
	return f, nil
}

// Allows reports whether a location falls inside the filter's holder
// restriction. Used to check a single already-fetched unit against an
// effective filter without another query.
func Allows(f store.UnitFilter, location string) bool {
	if f.None {
		return false
	}
	if f.Location != "" && f.Location != location {
		return false
	}
	if len(f.LocationIn) > 0 && !slices.Contains(f.LocationIn, location) {
		return false
	}
	return true
}
