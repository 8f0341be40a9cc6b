/*
Package report assembles the engine's outputs into plain rows.

PURPOSE:
  Exporters (CSV, spreadsheet, PDF, HTTP JSON) consume these rows without
  re-deriving any value. Every row type exposes Columns and Values with the
  same length and order.

ROWS:
  PayslipRow:         One employee's payslip for a month
  GridRow:            Employee x day codes of a month, plus monthly totals
  BalanceRow:         Yearly vacation / overtime / absence / leave summary
  OccurrenceHoursRow: Hours grouped by occurrence type for a month

BATCHES:
  Runner iterates the employees of a department sequentially and checks the
  context between employees. A missing-compensation error skips only that
  employee and is listed in the result; a store error aborts the run.

SEE ALSO:
  - runner.go: Runner and BatchResult
*/
package report

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/balance"
	"github.com/warp/attendance-engine/payroll"
)

// Row is anything an exporter can write as a line.
type Row interface {
	Columns() []string
	Values() []string
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// =============================================================================
// PAYSLIP
// =============================================================================

type PayslipRow struct {
	payroll.Payslip
}

var payslipColumns = []string{
	"employee_number", "employee_name", "department", "year", "month",
	"base_salary", "hourly_rate", "worked_hours", "overtime_hours", "absence_hours",
	"distinct_worked_days", "vacation_days", "leave_days",
	"overtime_value", "gross_pay", "income_tax", "social_security",
	"absence_deduction", "meal_subsidy", "displayed_gross", "net_pay",
}

func (r PayslipRow) Columns() []string { return payslipColumns }

func (r PayslipRow) Values() []string {
	p := r.Payslip
	return []string{
		p.EmployeeNumber, p.EmployeeName, p.Department,
		strconv.Itoa(p.Year), strconv.Itoa(int(p.Month)),
		money(p.BaseSalary), p.HourlyRate.StringFixed(4),
		p.WorkedHours.String(), p.OvertimeHours.String(), p.AbsenceHours.String(),
		strconv.Itoa(p.DistinctWorkedDays), strconv.Itoa(p.VacationDays), strconv.Itoa(p.LeaveDays),
		money(p.OvertimeValue), money(p.GrossPay), money(p.IncomeTax), money(p.SocialSecurity),
		money(p.AbsenceDeduction), money(p.MealSubsidy), money(p.DisplayedGross), money(p.NetPay),
	}
}

// =============================================================================
// MONTHLY GRID
// =============================================================================

// GridRow holds one employee's codes, Codes[0] being day 1.
type GridRow struct {
	EmployeeID     int64           `json:"employee_id"`
	EmployeeNumber string          `json:"employee_number"`
	EmployeeName   string          `json:"employee_name"`
	Codes          []string        `json:"codes"`
	WorkedHours    decimal.Decimal `json:"worked_hours"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
	AbsenceHours   decimal.Decimal `json:"absence_hours"`
	VacationDays   int             `json:"vacation_days"`
	LeaveDays      int             `json:"leave_days"`
	AbsenceDays    int             `json:"absence_days"`
}

func (r GridRow) Columns() []string {
	cols := []string{"employee_number", "employee_name"}
	for day := 1; day <= len(r.Codes); day++ {
		cols = append(cols, strconv.Itoa(day))
	}
	return append(cols, "worked_hours", "overtime_hours", "absence_hours", "vacation_days", "leave_days", "absence_days")
}

func (r GridRow) Values() []string {
	vals := []string{r.EmployeeNumber, r.EmployeeName}
	vals = append(vals, r.Codes...)
	return append(vals,
		r.WorkedHours.String(), r.OvertimeHours.String(), r.AbsenceHours.String(),
		strconv.Itoa(r.VacationDays), strconv.Itoa(r.LeaveDays), strconv.Itoa(r.AbsenceDays),
	)
}

// =============================================================================
// ANNUAL BALANCE
// =============================================================================

type BalanceRow struct {
	balance.AnnualBalance
}

var balanceColumns = []string{
	"employee_number", "employee_name", "year",
	"vacation_entitlement", "vacation_days_taken", "vacation_days_available",
	"accumulated_overtime_hours", "compensatory_units",
	"absence_days_in_year", "leave_days_in_year",
}

func (r BalanceRow) Columns() []string { return balanceColumns }

func (r BalanceRow) Values() []string {
	b := r.AnnualBalance
	return []string{
		b.EmployeeNumber, b.EmployeeName, strconv.Itoa(b.Year),
		strconv.Itoa(b.VacationEntitlement), strconv.Itoa(b.VacationDaysTaken), strconv.Itoa(b.VacationDaysAvailable),
		b.AccumulatedOvertimeHours.String(), b.CompensatoryUnits.String(),
		strconv.Itoa(b.AbsenceDaysInYear), strconv.Itoa(b.LeaveDaysInYear),
	}
}

// =============================================================================
// HOURS BY OCCURRENCE TYPE
// =============================================================================

type OccurrenceHoursRow struct {
	Description   string          `json:"description"`
	WorkedHours   decimal.Decimal `json:"worked_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	AbsenceHours  decimal.Decimal `json:"absence_hours"`
}

var occurrenceColumns = []string{"type", "worked_hours", "overtime_hours", "absence_hours"}

func (r OccurrenceHoursRow) Columns() []string { return occurrenceColumns }

func (r OccurrenceHoursRow) Values() []string {
	return []string{r.Description, money(r.WorkedHours), money(r.OvertimeHours), money(r.AbsenceHours)}
}
