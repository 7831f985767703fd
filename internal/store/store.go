// Package store defines the persistence port the engine's outer CLI layer
// depends on (SPEC_FULL.md §6.1). The engine's core packages
// (catalog/window/locks/model/solver/validate/springer/notify) never import
// this package; it exists solely to let cmd/roster-planner load inputs and
// persist outputs without the engine itself depending on Postgres.
package store

import (
	"context"
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/solver"
)

// DateRange is an inclusive [Start, End] calendar range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Store is the persistence port (SPEC_FULL.md §6.1). postgresstore.Store is
// the production adapter; memstore.Store backs tests and --dry-run.
type Store interface {
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
	LoadAbsences(ctx context.Context, window DateRange) ([]catalog.Absence, error)
	LoadLocks(ctx context.Context, window DateRange) (locks.Locks, error)
	LoadPriorAssignments(ctx context.Context, before time.Time, lookbackDays int) ([]catalog.ShiftAssignment, error)
	SaveRoster(ctx context.Context, result *solver.Result) error
	SaveNotifications(ctx context.Context, notifications []notify.Record) error
}
