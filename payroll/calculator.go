/*
Package payroll derives a monthly payslip from an employee's compensation
and the month's attendance totals.

PURPOSE:
  Pure computation: no store access, no clock. The same inputs always give
  the same payslip, to the cent.

COMPUTATION (in order):
  hourlyRate     = base / standardMonthlyHours     (0 when hours <= 0; unrounded)
  overtimeValue  = round2(overtimeHours * (1 + rate50) * hourlyRate)

  Worked and overtime hours are summed over every daily record of the
  month, also on days an approved vacation, leave or absence wins on the
  grid. Meal days and record absence hours follow the same rule.
  grossPay       = base + overtimeValue
  incomeTax      = round2(grossPay * incomeTaxRate)
  socialSecurity = round2(grossPay * socialSecurityRate)
  absenceDeduct  = round2(absenceHours * hourlyRate)
  mealSubsidy    = round2(distinctWorkedDays * dailyMealSubsidy)
  netPay         = grossPay - incomeTax - socialSecurity - absenceDeduct + mealSubsidy
  displayedGross = grossPay + mealSubsidy

  Withholding is computed on grossPay only. The meal subsidy is shown as
  part of the displayed gross but never taxed.

ROUNDING:
  Each monetary component is rounded to cents (half away from zero) as it
  is produced; netPay is the exact sum of the rounded components.

SEE ALSO:
  - attendance/aggregate.go: MonthTotals
  - report/runner.go: Batch generation over a department
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// DefaultOvertimeRate50 applies when an employee has no overtime_rate_50
// and Settings leave the default unset.
var DefaultOvertimeRate50 = decimal.RequireFromString("0.50")

// Settings are the engine-wide payroll defaults.
type Settings struct {
	// DefaultOvertimeRate50 is used for employees without a rate of their
	// own. Unset means DefaultOvertimeRate50; a set 0 is honoured.
	DefaultOvertimeRate50 decimal.NullDecimal
}

// Payslip carries every computed figure plus the inputs that produced them.
type Payslip struct {
	EmployeeID     int64      `json:"employee_id"`
	EmployeeNumber string     `json:"employee_number"`
	EmployeeName   string     `json:"employee_name"`
	Department     string     `json:"department,omitempty"`
	Year           int        `json:"year"`
	Month          time.Month `json:"month"`

	BaseSalary         decimal.Decimal `json:"base_salary"`
	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	OvertimeRate50     decimal.Decimal `json:"overtime_rate_50"`
	IncomeTaxRate      decimal.Decimal `json:"income_tax_rate"`
	SocialSecurityRate decimal.Decimal `json:"social_security_rate"`
	DailyMealSubsidy   decimal.Decimal `json:"daily_meal_subsidy"`

	WorkedHours        decimal.Decimal `json:"worked_hours"`
	OvertimeHours      decimal.Decimal `json:"overtime_hours"`
	AbsenceHours       decimal.Decimal `json:"absence_hours"`
	DistinctWorkedDays int             `json:"distinct_worked_days"`
	VacationDays       int             `json:"vacation_days"`
	LeaveDays          int             `json:"leave_days"`

	OvertimeValue    decimal.Decimal `json:"overtime_value"`
	GrossPay         decimal.Decimal `json:"gross_pay"`
	IncomeTax        decimal.Decimal `json:"income_tax"`
	SocialSecurity   decimal.Decimal `json:"social_security"`
	AbsenceDeduction decimal.Decimal `json:"absence_deduction"`
	MealSubsidy      decimal.Decimal `json:"meal_subsidy"`
	NetPay           decimal.Decimal `json:"net_pay"`
	DisplayedGross   decimal.Decimal `json:"displayed_gross"`
}

type Calculator struct {
	defaultRate50 decimal.Decimal
}

func NewCalculator(settings Settings) *Calculator {
	return &Calculator{defaultRate50: generic.OrDefault(settings.DefaultOvertimeRate50, DefaultOvertimeRate50)}
}

// ComputePayslip fails with *generic.ConfigurationError when required
// compensation fields are missing; no partial payslip is returned.
func (c *Calculator) ComputePayslip(emp attendance.Employee, totals *attendance.MonthTotals) (*Payslip, error) {
	comp := emp.Compensation
	if missing := comp.Missing(); len(missing) > 0 {
		return nil, &generic.ConfigurationError{EmployeeID: emp.ID, Missing: missing}
	}

	base := comp.BaseMonthlySalary.Decimal
	stdHours := comp.StandardMonthlyHours.Decimal
	// An employee rate of 0 is a real rate; only an unset one falls back.
	rate50 := generic.OrDefault(comp.OvertimeRate50, c.defaultRate50)
	taxRate := comp.IncomeTaxRate.Decimal
	ssRate := comp.SocialSecurityRate.Decimal
	meal := comp.DailyMealSubsidy.Decimal

	hourly := decimal.Zero
	if stdHours.IsPositive() {
		hourly = base.Div(stdHours)
	}

	overtimeValue := generic.Round2(totals.RecordOvertimeHours.Mul(decimal.NewFromInt(1).Add(rate50)).Mul(hourly))
	gross := base.Add(overtimeValue)
	tax := generic.Round2(gross.Mul(taxRate))
	ss := generic.Round2(gross.Mul(ssRate))
	absenceDeduction := generic.Round2(totals.TotalAbsenceHours.Mul(hourly))
	mealSubsidy := generic.Round2(decimal.NewFromInt(int64(totals.DistinctWorkedDays)).Mul(meal))
	net := gross.Sub(tax).Sub(ss).Sub(absenceDeduction).Add(mealSubsidy)

	return &Payslip{
		EmployeeID:     emp.ID,
		EmployeeNumber: emp.Number,
		EmployeeName:   emp.Name,
		Department:     emp.Department,
		Year:           totals.Year,
		Month:          totals.Month,

		BaseSalary:         base,
		HourlyRate:         hourly,
		OvertimeRate50:     rate50,
		IncomeTaxRate:      taxRate,
		SocialSecurityRate: ssRate,
		DailyMealSubsidy:   meal,

		WorkedHours:        totals.RecordWorkedHours,
		OvertimeHours:      totals.RecordOvertimeHours,
		AbsenceHours:       totals.TotalAbsenceHours,
		DistinctWorkedDays: totals.DistinctWorkedDays,
		VacationDays:       totals.VacationDaysSpanned,
		LeaveDays:          totals.LeaveDaysSpanned,

		OvertimeValue:    overtimeValue,
		GrossPay:         gross,
		IncomeTax:        tax,
		SocialSecurity:   ss,
		AbsenceDeduction: absenceDeduction,
		MealSubsidy:      mealSubsidy,
		NetPay:           net,
		DisplayedGross:   gross.Add(mealSubsidy),
	}, nil
}
