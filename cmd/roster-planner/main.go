package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rosterforge/engine/internal/cli/fixture"
	"github.com/rosterforge/engine/internal/cli/render"
	"github.com/rosterforge/engine/internal/roster/catalog"
	"github.com/rosterforge/engine/internal/roster/locks"
	"github.com/rosterforge/engine/internal/roster/model"
	"github.com/rosterforge/engine/internal/roster/notify"
	"github.com/rosterforge/engine/internal/roster/solver"
	"github.com/rosterforge/engine/internal/roster/springer"
	"github.com/rosterforge/engine/internal/roster/validate"
	"github.com/rosterforge/engine/internal/roster/window"
	"github.com/rosterforge/engine/internal/rosterr"
	"github.com/rosterforge/engine/internal/store"
	"github.com/rosterforge/engine/internal/store/memstore"
	"github.com/rosterforge/engine/internal/store/postgresstore"
	"github.com/rosterforge/engine/pkg/config"
	"github.com/rosterforge/engine/pkg/database"
	"github.com/rosterforge/engine/pkg/logger"
)

// Exit codes per SPEC_FULL.md §6.2 (unchanged from spec.md §6).
const (
	exitSuccess    = 0
	exitGeneric    = 1
	exitInfeasible = 2
	exitValidation = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.New("roster-planner", envOrDefault())

	root := &cobra.Command{
		Use:   "roster",
		Short: "plan, validate, and patch monthly shift rosters",
	}
	root.AddCommand(newPlanCmd(log), newValidateCmd(log), newReplaceCmd(log))

	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}

func envOrDefault() string {
	if e := os.Getenv("ROSTER_SERVER_ENVIRONMENT"); e != "" {
		return e
	}
	return "development"
}

// exitCodeFor maps an EngineError's Kind to spec.md §6/§7's exit codes.
func exitCodeFor(err error) int {
	switch {
	case rosterr.Is(err, rosterr.KindInfeasible), rosterr.Is(err, rosterr.KindSolverTimeout):
		return exitInfeasible
	case rosterr.Is(err, rosterr.KindValidation):
		return exitValidation
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitGeneric
	}
}

func newPlanCmd(log *logger.Logger) *cobra.Command {
	var (
		startStr    string
		endStr      string
		timeLimitS  int
		workers     int
		dryRun      bool
		fixturePath string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "solve a roster for a planning window",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing --start")
			}
			end, err := time.Parse("2006-01-02", endStr)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing --end")
			}

			ctx := context.Background()
			var (
				st  store.Store
				doc *fixture.Document
			)

			if dryRun {
				if fixturePath == "" {
					return rosterr.Input("--dry-run requires --fixture <path>")
				}
				doc, err = fixture.Load(fixturePath)
				if err != nil {
					return rosterr.Wrap(err, rosterr.KindInput, "loading fixture")
				}
				c, err := doc.BuildCatalog()
				if err != nil {
					return err
				}
				absences, err := doc.BuildAbsences()
				if err != nil {
					return err
				}
				rawLocks, err := doc.BuildLocks()
				if err != nil {
					return err
				}
				prior, err := doc.BuildPriorAssignments(c)
				if err != nil {
					return err
				}
				st = memstore.New(c, absences, rawLocks, prior)
			} else {
				cfg, err := config.LoadWithValidation("roster-planner")
				if err != nil {
					return rosterr.Wrap(err, rosterr.KindInput, "loading configuration")
				}
				db, err := database.New(&cfg.Database, log)
				if err != nil {
					return rosterr.Wrap(err, rosterr.KindInput, "connecting to database")
				}
				defer db.Close()
				st = postgresstore.New(db)
				if timeLimitS == 0 {
					timeLimitS = cfg.Solver.TimeLimitSeconds
				}
				if workers == 0 {
					workers = cfg.Solver.Workers
				}
			}

			input, conflicts, err := loadInput(ctx, st, start, end)
			if err != nil {
				return err
			}
			for _, c := range conflicts {
				log.Warn().Str("reason", c.Reason).Msg("dropped conflicting lock")
			}

			b, err := model.Build(input)
			if err != nil {
				return err
			}

			opts := solver.Options{Workers: workers}
			if timeLimitS > 0 {
				opts.TimeLimit = time.Duration(timeLimitS) * time.Second
			}
			result, err := solver.Solve(b, opts)
			if err != nil {
				return err
			}
			if result.Status == solver.StatusInfeasible || result.Status == solver.StatusUnknown {
				for _, d := range result.Diagnostics {
					log.Warn().Msg(d)
				}
				return rosterr.Infeasible("solver could not produce a feasible roster")
			}

			report := validate.Run(input, result)

			if dryRun {
				render.Roster(os.Stdout, input.Catalog, input.Window.Dates, result, report)
			}

			if outPath != "" {
				rf := &fixture.RosterFile{WindowStart: startStr, WindowEnd: endStr, Result: fixture.ToResultDTO(result)}
				if doc != nil {
					rf.Fixture = *doc
				}
				if err := rf.Save(outPath); err != nil {
					return rosterr.Wrap(err, rosterr.KindInput, "writing roster output")
				}
			}

			if !report.Passed() {
				for _, v := range report.Violations {
					log.Warn().Str("rule", v.Rule).Msg(v.Message)
				}
				return rosterr.Validation("solved roster failed independent validation")
			}

			if !dryRun {
				if err := st.SaveRoster(ctx, result); err != nil {
					return rosterr.Wrap(err, rosterr.KindInput, "saving roster")
				}
			}

			log.Info().Str("status", string(result.Status)).Msg("roster planned")
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "planning window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "planning window end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&timeLimitS, "time-limit", 0, "solver time limit in seconds")
	cmd.Flags().IntVar(&workers, "workers", 0, "solver worker hint (accepted for API parity, not wired to HiGHS)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan against a JSON fixture instead of Postgres, rendering the result")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture JSON path (required with --dry-run)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the solved roster as JSON to this path")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newValidateCmd(log *logger.Logger) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "independently re-validate a previously planned roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := fixture.LoadRosterFile(inPath)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "loading roster file")
			}
			start, err := time.Parse("2006-01-02", rf.WindowStart)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing roster file window_start")
			}
			end, err := time.Parse("2006-01-02", rf.WindowEnd)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing roster file window_end")
			}

			input, _, err := rf.Fixture.BuildInput(start, end)
			if err != nil {
				return err
			}
			result, err := rf.Result.ToResult()
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing roster file result")
			}

			report := validate.Run(input, result)
			for _, v := range report.Violations {
				fmt.Printf("VIOLATION [%s] %s\n", v.Rule, v.Message)
			}
			for _, w := range report.Warnings {
				fmt.Printf("warning [%s] %s\n", w.Rule, w.Message)
			}

			if !report.Passed() {
				return rosterr.Validation(fmt.Sprintf("%d violations found", len(report.Violations)))
			}
			log.Info().Msg("roster passed independent validation")
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "roster.json produced by `roster plan --out`")
	cmd.MarkFlagRequired("in")
	return cmd
}

func newReplaceCmd(log *logger.Logger) *cobra.Command {
	var (
		inPath      string
		absencePath string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "run the Springer Replacer against a newly recorded absence",
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := fixture.LoadRosterFile(inPath)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "loading roster file")
			}
			absenceDoc, err := fixture.LoadAbsence(absencePath)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "loading absence file")
			}

			start, err := time.Parse("2006-01-02", rf.WindowStart)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing roster file window_start")
			}
			end, err := time.Parse("2006-01-02", rf.WindowEnd)
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing roster file window_end")
			}

			input, _, err := rf.Fixture.BuildInput(start, end)
			if err != nil {
				return err
			}
			result, err := rf.Result.ToResult()
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing roster file result")
			}

			absence, err := absenceDoc.ToAbsence()
			if err != nil {
				return rosterr.Wrap(err, rosterr.KindInput, "parsing absence")
			}

			assignments := assignmentsFromResult(result)
			roster := springer.NewRoster(input.Catalog, assignments)

			isAbsent := func(employeeID int64, date time.Time) bool {
				for _, a := range input.Absences {
					if a.EmployeeID == employeeID && a.Covers(date) {
						return true
					}
				}
				return absence.EmployeeID == employeeID && absence.Covers(date)
			}

			queue := notify.New()
			outcome := springer.Replace(roster, absence, isAbsent, queue)

			anyFailed := false
			for _, o := range outcome.Outcomes {
				if o.Replaced {
					log.Info().Int64("replacement_id", o.ReplacementID).Str("date", o.Date.Format("2006-01-02")).Msg("springer assigned")
					fmt.Printf("%s: %s covered by employee %d\n", o.Date.Format("2006-01-02"), o.ShiftCode, o.ReplacementID)
				} else {
					anyFailed = true
					fmt.Printf("%s: %s not covered: %s\n", o.Date.Format("2006-01-02"), o.ShiftCode, o.Reason)
				}
			}
			for _, rec := range queue.Records() {
				log.Info().Str("type", rec.Type).Msg(rec.Summary)
			}

			if outPath != "" {
				applyOutcomeToResult(result, absence, outcome)
				rf.Result = fixture.ToResultDTO(result)
				if err := rf.Save(outPath); err != nil {
					return rosterr.Wrap(err, rosterr.KindInput, "writing roster output")
				}
			}

			if anyFailed {
				return rosterr.ReplacerFailure("one or more absence days could not be covered")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "roster.json to patch")
	cmd.Flags().StringVar(&absencePath, "absence", "", "absence.json describing the new absence")
	cmd.Flags().StringVar(&outPath, "out", "", "write the patched roster as JSON to this path")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("absence")
	return cmd
}

// loadInput loads everything a model.Input needs from the Store port,
// expanding the window and consolidating locks the same way regardless of
// whether st is backed by memstore or postgresstore.
func loadInput(ctx context.Context, st store.Store, start, end time.Time) (*model.Input, []locks.Conflict, error) {
	c, err := st.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, rosterr.Wrap(err, rosterr.KindInput, "loading catalog")
	}

	win, err := window.Expand(start, end)
	if err != nil {
		return nil, nil, err
	}

	absences, err := st.LoadAbsences(ctx, store.DateRange{Start: win.Start, End: win.End})
	if err != nil {
		return nil, nil, rosterr.Wrap(err, rosterr.KindInput, "loading absences")
	}
	rawLocks, err := st.LoadLocks(ctx, store.DateRange{Start: win.Start, End: win.End})
	if err != nil {
		return nil, nil, rosterr.Wrap(err, rosterr.KindInput, "loading locks")
	}
	prior, err := st.LoadPriorAssignments(ctx, win.Start, c.Settings.LookbackCapDays)
	if err != nil {
		return nil, nil, rosterr.Wrap(err, rosterr.KindInput, "loading prior assignments")
	}

	consolidated, conflicts := locks.Consolidate(rawLocks, win.WeekIndexOf, employeeTeamLookup{c})
	final, absentConflicts := locks.DropAbsent(consolidated, func(employeeID int64, date time.Time) bool {
		for _, a := range absences {
			if a.EmployeeID == employeeID && a.Covers(date) {
				return true
			}
		}
		return false
	})
	conflicts = append(conflicts, absentConflicts...)

	return &model.Input{
		Catalog:          c,
		Window:           win,
		Absences:         absences,
		Locks:            final,
		PriorAssignments: prior,
	}, conflicts, nil
}

type employeeTeamLookup struct{ c *catalog.Catalog }

func (l employeeTeamLookup) TeamOf(employeeID int64) (int64, bool) {
	e, ok := l.c.Employee(employeeID)
	if !ok || e.TeamID == nil {
		return 0, false
	}
	return *e.TeamID, true
}

// assignmentsFromResult reconstructs the ShiftAssignment slice the
// Springer Replacer's Roster needs from a solver Result's Assignments,
// which hold regular shifts only; CompleteSchedule is not read.
func assignmentsFromResult(result *solver.Result) []catalog.ShiftAssignment {
	out := make([]catalog.ShiftAssignment, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		out = append(out, catalog.ShiftAssignment{
			EmployeeID: a.EmployeeID, ShiftTypeID: a.ShiftTypeID, Date: a.Date,
		})
	}
	return out
}

// applyOutcomeToResult folds the Springer Replacer's outcomes back into
// result's CompleteSchedule so --out reflects the patch.
func applyOutcomeToResult(result *solver.Result, absence catalog.Absence, outcome springer.Result) {
	for _, o := range outcome.Outcomes {
		key := solver.ScheduleKey{EmployeeID: absence.EmployeeID, Date: o.Date}
		if o.Replaced {
			result.CompleteSchedule[key] = absence.Code
			replacementKey := solver.ScheduleKey{EmployeeID: o.ReplacementID, Date: o.Date}
			result.CompleteSchedule[replacementKey] = o.ShiftCode
		} else {
			result.CompleteSchedule[key] = absence.Code
		}
	}
}
