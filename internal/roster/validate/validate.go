// Package validate independently re-checks a solver result against every
// hard rule of the Constraint Library plus the completeness, weekend
// consistency, lock-fidelity, TD, and hour-ceiling checks spec.md §4.4
// names. The validator is authoritative: a solver-accepted solution that
// fails it is rejected by the caller. Grounded on original_source's
// validation.py, re-expressed as a single independent pass rather than a
// per-constraint script.
package validate

import (
	"fmt"
	"time"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/model"
	"github.com/rosterforge/engine/internal/roster/solver"
)

// Severity distinguishes a finding that must block acceptance from one
// that is merely informational.
type Severity string

const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
)

// Finding is one independent check result.
type Finding struct {
	Severity Severity
	Rule     string
	Message  string
}

// Report is the full output of Run: violations cause test failure / block
// persistence, warnings are informational only.
type Report struct {
	Violations []Finding
	Warnings   []Finding
}

// Passed reports whether the roster may be accepted.
func (r Report) Passed() bool { return len(r.Violations) == 0 }

// Run independently re-validates result against input.
func Run(input *model.Input, result *solver.Result) Report {
	var report Report
	add := func(sev Severity, rule, format string, args ...any) {
		f := Finding{Severity: sev, Rule: rule, Message: fmt.Sprintf(format, args...)}
		if sev == SeverityViolation {
			report.Violations = append(report.Violations, f)
		} else {
			report.Warnings = append(report.Warnings, f)
		}
	}

	checkCompleteness(input, result, add)
	checkExclusivity(input, result, add)
	checkAbsenceMasking(input, result, add)
	checkWeekendConsistency(input, result, add)
	checkRestTransitions(input, result, add)
	checkConsecutiveDays(input, result, add)
	checkWorkingHours(input, result, add)
	checkDailyRatio(input, result, add)
	checkSpecialFunctions(input, result, add)
	checkLockFidelity(input, result, add)

	return report
}

type addFunc func(sev Severity, rule, format string, args ...any)

func checkCompleteness(input *model.Input, result *solver.Result, add addFunc) {
	c := input.Catalog
	for _, e := range c.ActiveEmployees(input.Window.Start) {
		for _, date := range input.Window.Dates {
			if _, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: date}]; !ok {
				add(SeverityViolation, "completeness", "employee %d missing from complete_schedule on %s", e.ID, date.Format("2006-01-02"))
			}
		}
	}
}

func checkExclusivity(input *model.Input, result *solver.Result, add addFunc) {
	counts := make(map[solver.ScheduleKey]int)
	for _, a := range result.Assignments {
		counts[solver.ScheduleKey{EmployeeID: a.EmployeeID, Date: a.Date}]++
	}
	for _, sf := range result.SpecialFunctions {
		counts[solver.ScheduleKey{EmployeeID: sf.EmployeeID, Date: sf.Date}]++
	}
	for k, n := range counts {
		if n > 1 {
			add(SeverityViolation, "exclusivity", "employee %d has %d concurrent assignments on %s", k.EmployeeID, n, k.Date.Format("2006-01-02"))
		}
	}
}

func checkAbsenceMasking(input *model.Input, result *solver.Result, add addFunc) {
	for _, a := range input.Absences {
		for _, date := range input.Window.Dates {
			if !a.Covers(date) {
				continue
			}
			key := solver.ScheduleKey{EmployeeID: a.EmployeeID, Date: date}
			if code, ok := result.CompleteSchedule[key]; ok && code != a.Code {
				add(SeverityViolation, "absence-masking", "employee %d assigned %q on absent day %s", a.EmployeeID, code, date.Format("2006-01-02"))
			}
		}
	}
}

// checkWeekendConsistency is spec.md §8 invariant (iv): weekend shifts of e
// in week w must be a subset of e's weekday shifts in w.
func checkWeekendConsistency(input *model.Input, result *solver.Result, add addFunc) {
	c := input.Catalog
	for _, e := range c.ActiveEmployees(input.Window.Start) {
		for _, w := range input.Window.Weeks {
			weekdayCodes := make(map[string]bool)
			for _, d := range w.Dates {
				if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
					continue
				}
				if code, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: d}]; ok {
					weekdayCodes[code] = true
				}
			}
			for _, d := range w.Dates {
				if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
					continue
				}
				code, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: d}]
				if !ok || code == "+" || isAbsenceCode(code) {
					continue
				}
				if !weekdayCodes[code] {
					add(SeverityViolation, "weekend-consistency", "employee %d weekend shift %q on %s not among their weekday shifts that week", e.ID, code, d.Format("2006-01-02"))
				}
			}
		}
	}
}

func checkRestTransitions(input *model.Input, result *solver.Result, add addFunc) {
	forbidden := map[[2]string]bool{{"S", "F"}: true, {"N", "F"}: true}
	for _, e := range input.Catalog.ActiveEmployees(input.Window.Start) {
		for i := 0; i+1 < len(input.Window.Dates); i++ {
			d1, d2 := input.Window.Dates[i], input.Window.Dates[i+1]
			c1, ok1 := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: d1}]
			c2, ok2 := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: d2}]
			if !ok1 || !ok2 {
				continue
			}
			if d1.Weekday() == time.Sunday && d2.Weekday() == time.Monday {
				continue // soft-tracked rotation exception, not a hard violation
			}
			if forbidden[[2]string{c1, c2}] {
				add(SeverityViolation, "rest-transitions", "employee %d has forbidden transition %s→%s across %s/%s", e.ID, c1, c2, d1.Format("2006-01-02"), d2.Format("2006-01-02"))
			}
		}
	}
}

func checkConsecutiveDays(input *model.Input, result *solver.Result, add addFunc) {
	c := input.Catalog
	maxAcross := 0
	maxPerType := make(map[string]int)
	for _, code := range []string{catalog.ShiftEarly, catalog.ShiftLate, catalog.ShiftNight} {
		if st, ok := c.ShiftTypeByCode(code); ok {
			maxPerType[code] = st.MaxConsecutiveDays
			if st.MaxConsecutiveDays > maxAcross {
				maxAcross = st.MaxConsecutiveDays
			}
		}
	}
	if maxAcross == 0 {
		maxAcross = 6
	}

	for _, e := range c.ActiveEmployees(input.Window.Start) {
		runLen, runCode, workingRun := priorRunState(c, input.PriorAssignments, e.ID, input.Window.Start)
		for _, d := range input.Window.Dates {
			code, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: d}]
			working := ok && !isAbsenceCode(code) && code != "+"

			if working && code == runCode {
				runLen++
			} else if working {
				runLen, runCode = 1, code
			} else {
				runLen, runCode = 0, ""
			}
			if limit, ok := maxPerType[runCode]; ok && runLen > limit {
				add(SeverityViolation, "consecutive-days", "employee %d exceeds %d consecutive %s shifts ending %s", e.ID, limit, runCode, d.Format("2006-01-02"))
			}

			if working {
				workingRun++
			} else {
				workingRun = 0
			}
			if workingRun > maxAcross {
				add(SeverityViolation, "consecutive-days", "employee %d exceeds %d consecutive working days ending %s", e.ID, maxAcross, d.Format("2006-01-02"))
			}
		}
	}
}

// priorRunState derives the consecutive-run state for employeeID as it
// stood the day before windowStart, from assignments persisted in a
// previous planning period. Without this seed, a chain that began before
// the window and continues past it would be re-counted from 1 and never
// caught, independent of whatever the solver's own constraints did.
func priorRunState(c *catalog.Catalog, prior []catalog.ShiftAssignment, employeeID int64, windowStart time.Time) (runLen int, runCode string, workingRun int) {
	codeByDate := make(map[time.Time]string, len(prior))
	for _, a := range prior {
		if a.EmployeeID != employeeID {
			continue
		}
		if st, ok := c.ShiftTypeByID(a.ShiftTypeID); ok {
			codeByDate[a.Date] = st.Code
		}
	}

	for d := windowStart.AddDate(0, 0, -1); ; d = d.AddDate(0, 0, -1) {
		if _, ok := codeByDate[d]; !ok {
			break
		}
		workingRun++
	}

	lastDay := windowStart.AddDate(0, 0, -1)
	if code, ok := codeByDate[lastDay]; ok {
		runCode = code
		for d := lastDay; ; d = d.AddDate(0, 0, -1) {
			cur, ok := codeByDate[d]
			if !ok || cur != runCode {
				break
			}
			runLen++
		}
	}

	return runLen, runCode, workingRun
}

func checkWorkingHours(input *model.Input, result *solver.Result, add addFunc) {
	c := input.Catalog
	maxWeeklyScaled := 48 * c.Settings.HoursScale
	maxMonthlyScaled := 4 * maxWeeklyScaled

	for _, e := range c.ActiveEmployees(input.Window.Start) {
		for _, w := range input.Window.Weeks {
			total := hoursScaled(c, result, e.ID, w.Dates)
			if total > maxWeeklyScaled {
				add(SeverityViolation, "working-hours", "employee %d exceeds weekly hour ceiling (%d > %d scaled) in week %d", e.ID, total, maxWeeklyScaled, w.Index)
			}
		}

		dates := input.Window.Dates
		windowLen := 30
		if len(dates) < windowLen {
			windowLen = len(dates)
		}
		for start := 0; start+windowLen <= len(dates); start++ {
			total := hoursScaled(c, result, e.ID, dates[start:start+windowLen])
			if total > maxMonthlyScaled {
				add(SeverityViolation, "working-hours", "employee %d exceeds 30-day hour ceiling (%d > %d scaled) starting %s", e.ID, total, maxMonthlyScaled, dates[start].Format("2006-01-02"))
			}
		}
	}
}

// EmployeeHoursScaled sums an employee's scaled working hours over dates
// from a solved result, for CLI reporting and statistics: scheduled shift
// duration plus 8 scaled hours for every training (L) absence day, since
// training counts toward hour statistics even though no shift is assigned,
// unlike U/AU which count neither hours nor shifts.
func EmployeeHoursScaled(c *catalog.Catalog, result *solver.Result, employeeID int64, dates []time.Time) int {
	return hoursScaled(c, result, employeeID, dates)
}

func hoursScaled(c *catalog.Catalog, result *solver.Result, employeeID int64, dates []time.Time) int {
	total := 0
	for _, d := range dates {
		code, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: employeeID, Date: d}]
		if !ok {
			continue
		}
		if code == catalog.AbsenceTraining {
			total += 8 * c.Settings.HoursScale
			continue
		}
		if st, ok := c.ShiftTypeByCode(code); ok {
			total += st.DurationHoursScaled
		}
	}
	return total
}

func checkDailyRatio(input *model.Input, result *solver.Result, add addFunc) {
	for _, d := range input.Window.Dates {
		counts := map[string]int{}
		for _, a := range result.Assignments {
			if a.Date.Equal(d) {
				counts[a.ShiftCode]++
			}
		}
		if counts["F"] < counts["S"] || counts["S"] < counts["N"] {
			add(SeverityWarning, "daily-ratio", "F≥S≥N violated on %s (F=%d S=%d N=%d)", d.Format("2006-01-02"), counts["F"], counts["S"], counts["N"])
		}
	}
}

func checkSpecialFunctions(input *model.Input, result *solver.Result, add addFunc) {
	for _, d := range input.Window.Dates {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		bmt, bsb := 0, 0
		for _, sf := range result.SpecialFunctions {
			if !sf.Date.Equal(d) {
				continue
			}
			switch sf.Code {
			case catalog.ShiftBMT:
				bmt++
			case catalog.ShiftBSB:
				bsb++
			}
		}
		if bmt != 1 {
			add(SeverityViolation, "special-functions", "expected exactly one BMT on %s, got %d", d.Format("2006-01-02"), bmt)
		}
		if bsb != 1 {
			add(SeverityViolation, "special-functions", "expected exactly one BSB on %s, got %d", d.Format("2006-01-02"), bsb)
		}
	}
}

func checkLockFidelity(input *model.Input, result *solver.Result, add addFunc) {
	for k, code := range input.Locks.EmployeeShift {
		if got, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: k.EmployeeID, Date: k.Date}]; !ok || got != code {
			add(SeverityViolation, "lock-fidelity", "employee lock %d@%s=%s not honored (got %q)", k.EmployeeID, k.Date.Format("2006-01-02"), code, got)
		}
	}
	for k, code := range input.Locks.TeamShift {
		for _, e := range input.Catalog.TeamMembers(k.TeamID, input.Window.Start) {
			for _, w := range input.Window.Weeks {
				if w.Index != k.WeekIndex {
					continue
				}
				for _, d := range w.Dates {
					if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
						continue
					}
					if got, ok := result.CompleteSchedule[solver.ScheduleKey{EmployeeID: e.ID, Date: d}]; ok && got != code && !isAbsenceCode(got) && got != "+" {
						add(SeverityViolation, "lock-fidelity", "team %d lock week %d=%s not honored for employee %d on %s (got %q)", k.TeamID, k.WeekIndex, code, e.ID, d.Format("2006-01-02"), got)
					}
				}
			}
		}
	}
}

func isAbsenceCode(code string) bool {
	switch code {
	case catalog.AbsenceVacation, catalog.AbsenceSick, catalog.AbsenceTraining:
		return true
	default:
		return false
	}
}
