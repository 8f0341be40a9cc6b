/*
Package attendance turns per-day event records into attendance codes and
monthly or yearly totals.

PURPOSE:
  Owns the HR entities (employees, occurrence types, daily records,
  vacation and leave periods, absences, semiannual adjustments), the
  occurrence type registry, the daily resolver with its fixed precedence
  and the aggregation engine that sums a window of days.

PRECEDENCE (first match wins, per day):
  1. Approved vacation covering the day  -> "F"
  2. Approved leave covering the day     -> "L"
  3. Approved absence on the day         -> "FJ" (justified) or "FI"
  4. Daily record on the day             -> glyph of its occurrence type
  5. Nothing                             -> "-"

  Unapproved vacations, leaves and absences never block a lower rule.

SEE ALSO:
  - resolver.go: ResolveDay
  - aggregate.go: AggregateMonth, AggregateYear, SpannedDays
  - payroll/: Payslip computation on top of MonthTotals
  - balance/: Annual vacation and overtime balances
*/
package attendance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// DefaultVacationDays is the annual entitlement when an employee has none set.
const DefaultVacationDays = 22

// =============================================================================
// EMPLOYEE
// =============================================================================

// Compensation holds the payroll inputs. Absent values stay invalid
// NullDecimals so payroll can report exactly which ones are missing.
type Compensation struct {
	BaseMonthlySalary    decimal.NullDecimal `json:"base_monthly_salary"`
	DailyMealSubsidy     decimal.NullDecimal `json:"daily_meal_subsidy"`
	IncomeTaxRate        decimal.NullDecimal `json:"income_tax_rate"`
	SocialSecurityRate   decimal.NullDecimal `json:"social_security_rate"`
	StandardMonthlyHours decimal.NullDecimal `json:"standard_monthly_hours"`
	OvertimeRate50       decimal.NullDecimal `json:"overtime_rate_50"`
	// OvertimeRate100 is kept for records that carry it; no computation reads it.
	OvertimeRate100 decimal.NullDecimal `json:"overtime_rate_100"`
}

// Missing lists the payroll-required fields that are not set.
func (c Compensation) Missing() []string {
	var missing []string
	required := []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"base_monthly_salary", c.BaseMonthlySalary},
		{"daily_meal_subsidy", c.DailyMealSubsidy},
		{"income_tax_rate", c.IncomeTaxRate},
		{"social_security_rate", c.SocialSecurityRate},
		{"standard_monthly_hours", c.StandardMonthlyHours},
	}
	for _, r := range required {
		if !r.value.Valid {
			missing = append(missing, r.name)
		}
	}
	return missing
}

type Employee struct {
	ID               int64             `json:"id"`
	Number           string            `json:"number"`
	Name             string            `json:"name"`
	Department       string            `json:"department,omitempty"`
	Position         string            `json:"position,omitempty"`
	Email            string            `json:"email,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	TaxID            string            `json:"tax_id,omitempty"`
	SocialSecurityID string            `json:"social_security_id,omitempty"`
	HireDate         generic.TimePoint `json:"hire_date"`
	Compensation     Compensation      `json:"compensation"`
	// AnnualVacationDays nil means DefaultVacationDays.
	AnnualVacationDays *int `json:"annual_vacation_days,omitempty"`
}

// VacationEntitlement returns the annual vacation days, falling back to def.
func (e Employee) VacationEntitlement(def int) int {
	if e.AnnualVacationDays != nil {
		return *e.AnnualVacationDays
	}
	return def
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return &generic.ValidationError{Field: "name", Reason: "required"}
	}
	c := e.Compensation
	for name, v := range map[string]decimal.NullDecimal{
		"base_monthly_salary":    c.BaseMonthlySalary,
		"daily_meal_subsidy":     c.DailyMealSubsidy,
		"income_tax_rate":        c.IncomeTaxRate,
		"social_security_rate":   c.SocialSecurityRate,
		"standard_monthly_hours": c.StandardMonthlyHours,
		"overtime_rate_50":       c.OvertimeRate50,
		"overtime_rate_100":      c.OvertimeRate100,
	} {
		if generic.IsNegative(v) {
			return &generic.ValidationError{Field: name, Reason: "must not be negative"}
		}
	}
	if e.AnnualVacationDays != nil && *e.AnnualVacationDays < 0 {
		return &generic.ValidationError{Field: "annual_vacation_days", Reason: "must not be negative"}
	}
	return nil
}

// NextEmployeeNumber returns the next "F###" number after the highest one
// in use. Numbers that do not follow the pattern are ignored.
func NextEmployeeNumber(existing []string) string {
	highest := 0
	for _, n := range existing {
		var v int
		if _, err := fmt.Sscanf(n, "F%d", &v); err == nil && v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("F%03d", highest+1)
}

// =============================================================================
// OCCURRENCE TYPE
// =============================================================================

// OccurrenceType is one entry of the attendance vocabulary (day shift,
// night shift, compensatory leave...).
type OccurrenceType struct {
	ID                  int64           `json:"id"`
	Code                string          `json:"code"`
	Description         string          `json:"description"`
	DefaultHours        decimal.Decimal `json:"default_hours"`
	Glyph               string          `json:"glyph"`
	IsShift             bool            `json:"is_shift"`
	ImpliesOvertime     bool            `json:"implies_overtime"`
	IsAbsenceType       bool            `json:"is_absence_type"`
	CountsTowardFOTS    bool            `json:"counts_toward_fots"`
	IsCompensatoryLeave bool            `json:"is_compensatory_leave"`
}

func (o OccurrenceType) Validate() error {
	if strings.TrimSpace(o.Code) == "" {
		return &generic.ValidationError{Field: "code", Reason: "required"}
	}
	if strings.TrimSpace(o.Glyph) == "" {
		return &generic.ValidationError{Field: "glyph", Reason: "required"}
	}
	if o.DefaultHours.IsNegative() {
		return &generic.ValidationError{Field: "default_hours", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// EVENTS
// =============================================================================

// DailyRecord is what an employee did on one day. At most one per
// (employee, date); writes upsert.
type DailyRecord struct {
	ID               int64             `json:"id"`
	EmployeeID       int64             `json:"employee_id"`
	Date             generic.TimePoint `json:"date"`
	OccurrenceTypeID int64             `json:"occurrence_type_id"`
	WorkedHours      decimal.Decimal   `json:"worked_hours"`
	OvertimeHours    decimal.Decimal   `json:"overtime_hours"`
	AbsenceHours     decimal.Decimal   `json:"absence_hours"`
	Notes            string            `json:"notes,omitempty"`
}

func (r DailyRecord) Validate() error {
	if r.EmployeeID == 0 {
		return &generic.ValidationError{Field: "employee_id", Reason: "required"}
	}
	if r.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Reason: "required"}
	}
	for name, v := range map[string]decimal.Decimal{
		"worked_hours":   r.WorkedHours,
		"overtime_hours": r.OvertimeHours,
		"absence_hours":  r.AbsenceHours,
	} {
		if v.IsNegative() {
			return &generic.ValidationError{Field: name, Reason: "must not be negative"}
		}
	}
	return nil
}

// VacationPeriod is an inclusive range of vacation days.
type VacationPeriod struct {
	ID         int64             `json:"id"`
	EmployeeID int64             `json:"employee_id"`
	Start      generic.TimePoint `json:"start"`
	End        generic.TimePoint `json:"end"`
	Notes      string            `json:"notes,omitempty"`
	Approved   bool              `json:"approved"`
}

func (v VacationPeriod) Period() generic.Period { return generic.Period{Start: v.Start, End: v.End} }
func (v VacationPeriod) IsApproved() bool       { return v.Approved }

func (v VacationPeriod) Validate() error {
	return validatePeriodRecord(v.EmployeeID, v.Period())
}

// LeavePeriod is an inclusive range of leave days (Reason says which kind).
type LeavePeriod struct {
	ID         int64             `json:"id"`
	EmployeeID int64             `json:"employee_id"`
	Start      generic.TimePoint `json:"start"`
	End        generic.TimePoint `json:"end"`
	Reason     string            `json:"reason,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Approved   bool              `json:"approved"`
}

func (l LeavePeriod) Period() generic.Period { return generic.Period{Start: l.Start, End: l.End} }
func (l LeavePeriod) IsApproved() bool       { return l.Approved }

func (l LeavePeriod) Validate() error {
	return validatePeriodRecord(l.EmployeeID, l.Period())
}

func validatePeriodRecord(employeeID int64, p generic.Period) error {
	if employeeID == 0 {
		return &generic.ValidationError{Field: "employee_id", Reason: "required"}
	}
	return p.Validate()
}

// AbsenceRecord is a single-day absence. At most one per (employee, date).
type AbsenceRecord struct {
	ID           int64             `json:"id"`
	EmployeeID   int64             `json:"employee_id"`
	Date         generic.TimePoint `json:"date"`
	Reason       string            `json:"reason,omitempty"`
	Justified    bool              `json:"justified"`
	AbsenceHours decimal.Decimal   `json:"absence_hours"`
	Approved     bool              `json:"approved"`
}

func (a AbsenceRecord) Validate() error {
	if a.EmployeeID == 0 {
		return &generic.ValidationError{Field: "employee_id", Reason: "required"}
	}
	if a.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Reason: "required"}
	}
	if a.AbsenceHours.IsNegative() {
		return &generic.ValidationError{Field: "absence_hours", Reason: "must not be negative"}
	}
	return nil
}

// SemiannualAdjustment is the manually entered half-year overtime and FOTS
// reconciliation. It is the source of truth for accumulated overtime.
type SemiannualAdjustment struct {
	ID                       int64           `json:"id"`
	EmployeeID               int64           `json:"employee_id"`
	Year                     int             `json:"year"`
	Half                     int             `json:"half"`
	NormalHours              decimal.Decimal `json:"normal_hours"`
	AccumulatedOvertimeHours decimal.Decimal `json:"accumulated_overtime_hours"`
	CompensatoryUnits        decimal.Decimal `json:"compensatory_units"`
}

func (s SemiannualAdjustment) Validate() error {
	if s.EmployeeID == 0 {
		return &generic.ValidationError{Field: "employee_id", Reason: "required"}
	}
	if s.Half != 1 && s.Half != 2 {
		return &generic.ValidationError{Field: "half", Reason: "must be 1 or 2"}
	}
	if s.Year <= 0 {
		return &generic.ValidationError{Field: "year", Reason: "required"}
	}
	return nil
}
