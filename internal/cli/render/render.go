// Package render draws a solved roster as a terminal grid, for the
// --dry-run operator-review path SPEC_FULL.md §6.2 names.
package render

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/roster/validate"
)

var (
	warningColor   = color.New(color.FgYellow)
	violationColor = color.New(color.FgRed, color.Bold)
	okColor        = color.New(color.FgGreen)
)

// Roster renders result as an employee-by-date grid: one row per active
// employee, one column per window date, cell contents the shift/absence/
// special-function code or "+" for rest. A clean solve with no violations
// is painted green; otherwise the findings list below the grid carries
// the detail (the Validator's Finding has no per-cell locator to paint
// individual cells with).
func Roster(w io.Writer, c *catalog.Catalog, dates []time.Time, result *solver.Result, report validate.Report) {
	employees := c.ActiveEmployees(dates[0])
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	header := []string{"Employee"}
	for _, d := range dates {
		header = append(header, d.Format("01-02"))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)

	paint := okColor
	if !report.Passed() {
		paint = violationColor
	}

	for _, e := range employees {
		row := []string{e.DisplayName()}
		for _, d := range dates {
			key := solver.ScheduleKey{EmployeeID: e.ID, Date: d}
			code := result.CompleteSchedule[key]
			cell := code
			if code != "+" && !isAbsenceCode(code) {
				cell = paint.Sprint(code)
			}
			row = append(row, cell)
		}
		table.Append(row)
	}
	table.Render()

	fmt.Fprintf(w, "\nstatus: %s\n", result.Status)
	for _, v := range report.Violations {
		violationColor.Fprintf(w, "VIOLATION [%s] %s\n", v.Rule, v.Message)
	}
	for _, wn := range report.Warnings {
		warningColor.Fprintf(w, "warning [%s] %s\n", wn.Rule, wn.Message)
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
