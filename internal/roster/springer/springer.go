// Package springer implements the absence-triggered replacement algorithm
// (spec.md §4.5): an absence created against an already-persisted roster
// removes the absent employee's assignments in range and searches for an
// eligible team-mate or member of another team to cover each one
// (unattached floaters are not considered). Grounded on
// original_source/springer_replacement.py, re-expressed with Go's
// sync.Mutex standing in for the advisory per-(employee,date)-range lock
// the Python predecessor takes for the duration of the replacement
// transaction.
package springer

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/notify"
)

// Roster is the mutable surface the Springer Replacer edits: a snapshot of
// every employee's persisted assignments by date, shared by reference with
// the caller so removals and additions are visible immediately.
type Roster struct {
	mu         sync.Mutex
	byEmployee map[int64]map[time.Time]catalog.ShiftAssignment
	catalog    *catalog.Catalog
}

// NewRoster wraps an existing set of persisted assignments for in-memory
// replacement processing.
func NewRoster(c *catalog.Catalog, assignments []catalog.ShiftAssignment) *Roster {
	r := &Roster{
		byEmployee: make(map[int64]map[time.Time]catalog.ShiftAssignment),
		catalog:    c,
	}
	for _, a := range assignments {
		if r.byEmployee[a.EmployeeID] == nil {
			r.byEmployee[a.EmployeeID] = make(map[time.Time]catalog.ShiftAssignment)
		}
		r.byEmployee[a.EmployeeID][a.Date] = a
	}
	return r
}

// Assignment looks up employeeID's assignment on date, if any.
func (r *Roster) Assignment(employeeID int64, date time.Time) (catalog.ShiftAssignment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byEmployee[employeeID][date]
	return a, ok
}

func (r *Roster) remove(employeeID int64, date time.Time) {
	if day, ok := r.byEmployee[employeeID]; ok {
		delete(day, date)
	}
}

func (r *Roster) set(a catalog.ShiftAssignment) {
	if r.byEmployee[a.EmployeeID] == nil {
		r.byEmployee[a.EmployeeID] = make(map[time.Time]catalog.ShiftAssignment)
	}
	r.byEmployee[a.EmployeeID][a.Date] = a
}

// Outcome is the per-removed-assignment replacement result.
type Outcome struct {
	Date         time.Time
	ShiftCode    string
	Replaced     bool
	ReplacementID int64
	Reason       string
}

// Result is the full outcome of processing one absence.
type Result struct {
	Outcomes []Outcome
}

// isAbsentFunc reports whether employeeID has any absence covering date,
// consulted independently of the absence that triggered this run (a
// candidate can't be substituted in on top of their own absence).
type isAbsentFunc func(employeeID int64, date time.Time) bool

// Replace runs the full procedure of spec.md §4.5 for one newly-recorded
// absence against an already-solved roster. The advisory lock (§5) is
// r's own mutex, held for the whole call so a concurrent operator edit on
// the same roster can't race step 1 (removal) against step 4 (creation).
func Replace(r *Roster, absence catalog.Absence, isAbsent isAbsentFunc, queue *notify.Queue) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.catalog
	var result Result
	var affectedDates []time.Time

	day := r.byEmployee[absence.EmployeeID]
	var removed []catalog.ShiftAssignment
	for date, a := range day {
		if absence.Covers(date) {
			removed = append(removed, a)
		}
	}

	for _, a := range removed {
		r.remove(a.EmployeeID, a.Date)
		affectedDates = append(affectedDates, a.Date)

		st, ok := c.ShiftTypeByID(a.ShiftTypeID)
		if !ok {
			continue
		}

		candidateID, reason, ok := findCandidate(r, c, a.EmployeeID, a.Date, st, isAbsent)
		if !ok {
			result.Outcomes = append(result.Outcomes, Outcome{Date: a.Date, ShiftCode: st.Code, Replaced: false, Reason: reason})
			if queue != nil {
				queue.NoReplacementFound(absenceID(absence), a.EmployeeID, a.Date, st.Code, reason)
			}
			continue
		}

		replacement := catalog.ShiftAssignment{
			EmployeeID:           candidateID,
			ShiftTypeID:          st.ID,
			Date:                 a.Date,
			IsManual:             false,
			IsFixed:              true,
			IsSpringerAssignment: true,
		}
		r.set(replacement)
		result.Outcomes = append(result.Outcomes, Outcome{Date: a.Date, ShiftCode: st.Code, Replaced: true, ReplacementID: candidateID})
		if queue != nil {
			queue.SpringerAssigned(absenceID(absence), a.EmployeeID, candidateID, a.Date, st.Code)
		}
	}

	if queue != nil {
		for _, d := range affectedDates {
			queue.AbsenceAfterSolve(absenceID(absence), absence.EmployeeID, d)
		}
	}

	return result
}

// findCandidate searches same-team free members first, then cross-team
// members whose team allows the shift, applying the eligibility checks
// of spec.md §4.5 step 3.
func findCandidate(r *Roster, c *catalog.Catalog, absentEmployeeID int64, date time.Time, st catalog.ShiftType, isAbsent isAbsentFunc) (int64, string, bool) {
	absentEmployee, ok := c.Employee(absentEmployeeID)
	var sameTeamID *int64
	if ok {
		sameTeamID = absentEmployee.TeamID
	}

	var ordered []catalog.Employee
	if sameTeamID != nil {
		if team, ok := c.Team(*sameTeamID); ok && team.AllowsShiftType(st.ID) {
			ordered = append(ordered, c.TeamMembers(*sameTeamID, date)...)
		}
	}
	for _, e := range c.ActiveEmployees(date) {
		if sameTeamID != nil && e.TeamID != nil && *e.TeamID == *sameTeamID {
			continue // already considered above
		}
		if e.TeamID == nil {
			continue // unattached springers are considered separately by the model; a manual replacement still prefers a team with the shift
		}
		team, ok := c.Team(*e.TeamID)
		if !ok || !team.AllowsShiftType(st.ID) {
			continue
		}
		ordered = append(ordered, e)
	}

	var rejections []string
	for _, e := range ordered {
		if e.ID == absentEmployeeID {
			continue
		}
		ok, reason := eligible(r, c, e.ID, date, st, isAbsent)
		if ok {
			return e.ID, "", true
		}
		rejections = append(rejections, fmt.Sprintf("employee %d: %s", e.ID, reason))
	}

	if len(rejections) == 0 {
		return 0, fmt.Sprintf("no team-mate or cross-team candidate is qualified for %s; shift on %s will be understaffed by 1", st.Code, date.Format("2006-01-02")), false
	}
	return 0, fmt.Sprintf("no eligible candidate for %s on %s, shift will be understaffed by 1 (%s)", st.Code, date.Format("2006-01-02"), strings.Join(rejections, "; ")), false
}

// eligible implements spec.md §4.5 step 3's four checks, reporting the
// reason a candidate was ruled out so callers can surface it.
func eligible(r *Roster, c *catalog.Catalog, employeeID int64, date time.Time, st catalog.ShiftType, isAbsent isAbsentFunc) (bool, string) {
	if isAbsent(employeeID, date) {
		return false, "absent that day"
	}
	if _, ok := r.byEmployee[employeeID][date]; ok {
		return false, "already assigned that day"
	}
	if violatesRestTransition(r, employeeID, date, st) {
		return false, "would create a forbidden shift transition with an adjacent day"
	}
	if violatesConsecutiveDays(r, c, employeeID, date, st) {
		return false, fmt.Sprintf("would exceed the %d-day consecutive %s limit", st.MaxConsecutiveDays, st.Code)
	}
	return true, ""
}

var forbiddenPairs = map[[2]string]bool{{"S", "F"}: true, {"N", "F"}: true}

func violatesRestTransition(r *Roster, employeeID int64, date time.Time, st catalog.ShiftType) bool {
	prev := date.AddDate(0, 0, -1)
	next := date.AddDate(0, 0, 1)
	if a, ok := r.byEmployee[employeeID][prev]; ok {
		if prevSt, ok := r.catalog.ShiftTypeByID(a.ShiftTypeID); ok && forbiddenPairs[[2]string{prevSt.Code, st.Code}] {
			return true
		}
	}
	if a, ok := r.byEmployee[employeeID][next]; ok {
		if nextSt, ok := r.catalog.ShiftTypeByID(a.ShiftTypeID); ok && forbiddenPairs[[2]string{st.Code, nextSt.Code}] {
			return true
		}
	}
	return false
}

func violatesConsecutiveDays(r *Roster, c *catalog.Catalog, employeeID int64, date time.Time, st catalog.ShiftType) bool {
	if st.MaxConsecutiveDays <= 0 {
		return false
	}
	run := 1
	for i := 1; i <= st.MaxConsecutiveDays; i++ {
		d := date.AddDate(0, 0, -i)
		a, ok := r.byEmployee[employeeID][d]
		if !ok {
			break
		}
		if s, ok := c.ShiftTypeByID(a.ShiftTypeID); !ok || s.Code != st.Code {
			break
		}
		run++
	}
	for i := 1; i <= st.MaxConsecutiveDays; i++ {
		d := date.AddDate(0, 0, i)
		a, ok := r.byEmployee[employeeID][d]
		if !ok {
			break
		}
		if s, ok := c.ShiftTypeByID(a.ShiftTypeID); !ok || s.Code != st.Code {
			break
		}
		run++
	}
	return run > st.MaxConsecutiveDays
}

func absenceID(a catalog.Absence) string {
	return strconv.FormatInt(a.ID, 10)
}
