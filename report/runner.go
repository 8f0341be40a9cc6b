package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/balance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
	"go.uber.org/zap"
)

// =============================================================================
// BATCH RESULT
// =============================================================================

// Failure records an employee skipped by a batch run.
type Failure struct {
	EmployeeID   int64    `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Reason       string   `json:"reason"`
	Missing      []string `json:"missing,omitempty"`
}

// BatchResult is the output of one run over the employees of a department.
type BatchResult[T any] struct {
	RunID    string    `json:"run_id"`
	Rows     []T       `json:"rows"`
	Failures []Failure `json:"failures"`
}

func newBatch[T any]() *BatchResult[T] {
	return &BatchResult[T]{RunID: uuid.NewString(), Rows: []T{}, Failures: []Failure{}}
}

// =============================================================================
// RUNNER
// =============================================================================

type Runner struct {
	agg     *attendance.Aggregator
	calc    *payroll.Calculator
	tracker *balance.Tracker
	logger  *zap.Logger
}

func NewRunner(agg *attendance.Aggregator, calc *payroll.Calculator, tracker *balance.Tracker, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{agg: agg, calc: calc, tracker: tracker, logger: logger}
}

// Payslip computes a single employee's payslip.
func (r *Runner) Payslip(ctx context.Context, emp attendance.Employee, year int, month time.Month) (*payroll.Payslip, error) {
	if missing := emp.Compensation.Missing(); len(missing) > 0 {
		return nil, &generic.ConfigurationError{EmployeeID: emp.ID, Missing: missing}
	}
	totals, err := r.agg.AggregateMonth(ctx, emp.ID, year, month)
	if err != nil {
		return nil, err
	}
	return r.calc.ComputePayslip(emp, totals)
}

// Payslips runs payroll for every employee of the department.
func (r *Runner) Payslips(ctx context.Context, year int, month time.Month, department string) (*BatchResult[PayslipRow], error) {
	employees, session, err := r.prepare(ctx, department)
	if err != nil {
		return nil, err
	}
	batch := newBatch[PayslipRow]()
	log := r.logger.With(zap.String("run_id", batch.RunID), zap.Int("year", year), zap.Int("month", int(month)))

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if missing := emp.Compensation.Missing(); len(missing) > 0 {
			cfgErr := &generic.ConfigurationError{EmployeeID: emp.ID, Missing: missing}
			log.Warn("skipping employee", zap.Int64("employee_id", emp.ID), zap.Error(cfgErr))
			batch.Failures = append(batch.Failures, failureFor(emp, cfgErr))
			continue
		}

		totals, err := session.AggregateMonth(ctx, emp.ID, year, month)
		if err != nil {
			return nil, err
		}
		slip, err := r.calc.ComputePayslip(emp, totals)
		if errors.Is(err, generic.ErrConfiguration) {
			batch.Failures = append(batch.Failures, failureFor(emp, err))
			continue
		}
		if err != nil {
			return nil, err
		}
		batch.Rows = append(batch.Rows, PayslipRow{Payslip: *slip})
	}

	log.Info("payslip run finished", zap.Int("payslips", len(batch.Rows)), zap.Int("skipped", len(batch.Failures)))
	return batch, nil
}

// Grid builds the monthly attendance grid.
func (r *Runner) Grid(ctx context.Context, year int, month time.Month, department string) (*BatchResult[GridRow], error) {
	employees, session, err := r.prepare(ctx, department)
	if err != nil {
		return nil, err
	}
	batch := newBatch[GridRow]()
	days := generic.DaysInMonth(year, month)

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		totals, err := session.AggregateMonth(ctx, emp.ID, year, month)
		if err != nil {
			return nil, err
		}
		codes := make([]string, days)
		for day := 1; day <= days; day++ {
			codes[day-1] = totals.PerDayCodes[day]
		}
		batch.Rows = append(batch.Rows, GridRow{
			EmployeeID:     emp.ID,
			EmployeeNumber: emp.Number,
			EmployeeName:   emp.Name,
			Codes:          codes,
			WorkedHours:    totals.TotalWorkedHours,
			OvertimeHours:  totals.TotalOvertimeHours,
			AbsenceHours:   totals.TotalAbsenceHours,
			VacationDays:   totals.DaysVacation,
			LeaveDays:      totals.DaysLeave,
			AbsenceDays:    totals.DaysAbsence,
		})
	}
	return batch, nil
}

// Balances builds the annual balance table.
func (r *Runner) Balances(ctx context.Context, year int, department string) (*BatchResult[BalanceRow], error) {
	employees, err := r.agg.Source().ListEmployees(ctx, attendance.EmployeeFilter{Department: department})
	if err != nil {
		return nil, generic.WrapDataAccess("list employees", err)
	}
	batch := newBatch[BalanceRow]()

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bal, err := r.tracker.ComputeAnnualBalance(ctx, emp, year)
		if err != nil {
			return nil, err
		}
		batch.Rows = append(batch.Rows, BalanceRow{AnnualBalance: *bal})
	}
	return batch, nil
}

// OccurrenceHours sums the month's daily-record hours per occurrence type
// description over the department. Records whose type is gone are grouped
// under the fallback glyph.
func (r *Runner) OccurrenceHours(ctx context.Context, year int, month time.Month, department string) ([]OccurrenceHoursRow, error) {
	employees, session, err := r.prepare(ctx, department)
	if err != nil {
		return nil, err
	}
	registry := session.Resolver().Registry()
	window := generic.MonthPeriod(year, month)
	groups := make(map[string]*OccurrenceHoursRow)

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := r.agg.Source().ListEventsForEmployeeInRange(ctx, emp.ID, window)
		if err != nil {
			return nil, generic.WrapDataAccess("list events", err)
		}
		for _, rec := range events.DailyRecords {
			if !window.Contains(rec.Date) {
				continue
			}
			label := registry.Fallback()
			if ot, ok := registry.Lookup(rec.OccurrenceTypeID); ok {
				label = ot.Description
			}
			g, ok := groups[label]
			if !ok {
				g = &OccurrenceHoursRow{Description: label, WorkedHours: decimal.Zero, OvertimeHours: decimal.Zero, AbsenceHours: decimal.Zero}
				groups[label] = g
			}
			g.WorkedHours = g.WorkedHours.Add(rec.WorkedHours)
			g.OvertimeHours = g.OvertimeHours.Add(rec.OvertimeHours)
			g.AbsenceHours = g.AbsenceHours.Add(rec.AbsenceHours)
		}
	}

	rows := make([]OccurrenceHoursRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, *g)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Description < rows[j].Description })
	return rows, nil
}

func (r *Runner) prepare(ctx context.Context, department string) ([]attendance.Employee, *attendance.Session, error) {
	employees, err := r.agg.Source().ListEmployees(ctx, attendance.EmployeeFilter{Department: department})
	if err != nil {
		return nil, nil, generic.WrapDataAccess("list employees", err)
	}
	session, err := r.agg.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	return employees, session, nil
}

func failureFor(emp attendance.Employee, err error) Failure {
	f := Failure{EmployeeID: emp.ID, EmployeeName: emp.Name, Reason: err.Error()}
	var cfgErr *generic.ConfigurationError
	if errors.As(err, &cfgErr) {
		f.Missing = cfgErr.Missing
	}
	return f
}
