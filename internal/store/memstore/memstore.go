// Package memstore is the in-memory Store implementation (SPEC_FULL.md
// §6.1) used by tests and the CLI's --dry-run mode. It holds everything
// in plain Go slices/maps seeded up front; Save* just append to an
// in-memory log a caller can inspect afterward.
package memstore

import (
	"context"
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/store"
)

// Store is a fixture-backed, non-persistent implementation of store.Store.
type Store struct {
	Catalog          *catalog.Catalog
	Absences         []catalog.Absence
	Locks            locks.Locks
	PriorAssignments []catalog.ShiftAssignment

	SavedRosters        []*solver.Result
	SavedNotifications  [][]notify.Record
}

// New seeds a Store from fixture data, typically loaded from a JSON file
// by the CLI's --dry-run flag.
func New(c *catalog.Catalog, absences []catalog.Absence, l locks.Locks, prior []catalog.ShiftAssignment) *Store {
	return &Store{Catalog: c, Absences: absences, Locks: l, PriorAssignments: prior}
}

var _ store.Store = (*Store)(nil)

func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return s.Catalog, nil
}

func (s *Store) LoadAbsences(ctx context.Context, window store.DateRange) ([]catalog.Absence, error) {
	var out []catalog.Absence
	for _, a := range s.Absences {
		if a.End.Before(window.Start) || a.Start.After(window.End) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) LoadLocks(ctx context.Context, window store.DateRange) (locks.Locks, error) {
	return s.Locks, nil
}

func (s *Store) LoadPriorAssignments(ctx context.Context, before time.Time, lookbackDays int) ([]catalog.ShiftAssignment, error) {
	cutoff := before.AddDate(0, 0, -lookbackDays)
	var out []catalog.ShiftAssignment
	for _, a := range s.PriorAssignments {
		if !a.Date.Before(cutoff) && a.Date.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) SaveRoster(ctx context.Context, result *solver.Result) error {
	s.SavedRosters = append(s.SavedRosters, result)
	return nil
}

func (s *Store) SaveNotifications(ctx context.Context, notifications []notify.Record) error {
	s.SavedNotifications = append(s.SavedNotifications, notifications)
	return nil
}
