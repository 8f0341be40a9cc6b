// Package balance computes the annual vacation, overtime and absence
// summary of an employee.
//
// Vacation taken is counted from approved vacation periods clipped to the
// year. Accumulated overtime is the sum of the stored semiannual
// checkpoints and is never recomputed from daily records.
package balance

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// AnnualBalance is one row of the yearly balance table.
type AnnualBalance struct {
	EmployeeID     int64  `json:"employee_id"`
	EmployeeNumber string `json:"employee_number"`
	EmployeeName   string `json:"employee_name"`
	Year           int    `json:"year"`

	VacationEntitlement int `json:"vacation_entitlement"`
	VacationDaysTaken   int `json:"vacation_days_taken"`
	// VacationDaysAvailable goes negative when more was taken than granted.
	VacationDaysAvailable int `json:"vacation_days_available"`

	AccumulatedOvertimeHours decimal.Decimal `json:"accumulated_overtime_hours"`
	CompensatoryUnits        decimal.Decimal `json:"compensatory_units"`

	AbsenceDaysInYear int `json:"absence_days_in_year"`
	LeaveDaysInYear   int `json:"leave_days_in_year"`
}

type Tracker struct {
	source      attendance.DataSource
	defaultDays int
}

// NewTracker uses defaultDays as the entitlement for employees without one;
// zero selects attendance.DefaultVacationDays.
func NewTracker(source attendance.DataSource, defaultDays int) *Tracker {
	if defaultDays <= 0 {
		defaultDays = attendance.DefaultVacationDays
	}
	return &Tracker{source: source, defaultDays: defaultDays}
}

// ComputeAnnualBalance reads the year's events and adjustments. A store
// failure returns no balance.
func (t *Tracker) ComputeAnnualBalance(ctx context.Context, emp attendance.Employee, year int) (*AnnualBalance, error) {
	window := generic.YearPeriod(year)

	events, err := t.source.ListEventsForEmployeeInRange(ctx, emp.ID, window)
	if err != nil {
		return nil, generic.WrapDataAccess("list events", err)
	}
	adjustments, err := t.source.ListSemiannualAdjustments(ctx, emp.ID, year)
	if err != nil {
		return nil, generic.WrapDataAccess("list semiannual adjustments", err)
	}

	entitlement := emp.VacationEntitlement(t.defaultDays)
	taken := attendance.SpannedDays(events.Vacations, window)

	overtime, units := decimal.Zero, decimal.Zero
	for _, a := range adjustments {
		if a.Year != year {
			continue
		}
		overtime = overtime.Add(a.AccumulatedOvertimeHours)
		units = units.Add(a.CompensatoryUnits)
	}

	absenceDates := make(map[string]struct{})
	for _, a := range events.Absences {
		if a.Approved && window.Contains(a.Date) {
			absenceDates[a.Date.String()] = struct{}{}
		}
	}

	return &AnnualBalance{
		EmployeeID:               emp.ID,
		EmployeeNumber:           emp.Number,
		EmployeeName:             emp.Name,
		Year:                     year,
		VacationEntitlement:      entitlement,
		VacationDaysTaken:        taken,
		VacationDaysAvailable:    entitlement - taken,
		AccumulatedOvertimeHours: overtime,
		CompensatoryUnits:        units,
		AbsenceDaysInYear:        len(absenceDates),
		LeaveDaysInYear:          attendance.SpannedDays(events.Leaves, window),
	}, nil
}
