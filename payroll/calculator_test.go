package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func set(s string) decimal.NullDecimal { return generic.Set(d(s)) }

func employee() attendance.Employee {
	return attendance.Employee{
		ID:     1,
		Number: "F001",
		Name:   "Ana Silva",
		Compensation: attendance.Compensation{
			BaseMonthlySalary:    set("1000"),
			StandardMonthlyHours: set("160"),
			OvertimeRate50:       set("0.5"),
			IncomeTaxRate:        set("0.15"),
			SocialSecurityRate:   set("0.11"),
			DailyMealSubsidy:     set("5"),
		},
	}
}

func month(overtime, absence string, workedDays int) *attendance.MonthTotals {
	return &attendance.MonthTotals{
		Year:  2024,
		Month: time.March,
		Totals: attendance.Totals{
			TotalWorkedHours:    d("160"),
			TotalOvertimeHours:  d(overtime),
			RecordWorkedHours:   d("160"),
			RecordOvertimeHours: d(overtime),
			TotalAbsenceHours:   d(absence),
			DistinctWorkedDays:  workedDays,
		},
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "%s: expected %s, got %s", field, want, got)
}

// =============================================================================
// CONCRETE SCENARIO
// =============================================================================

func TestComputePayslip_ConcreteScenario(t *testing.T) {
	// GIVEN: 1000 base, 160 std hours, 10 overtime hours at +50%, 20 worked days at 5/day
	// WHEN: Computing the payslip
	// THEN: Every component matches to the cent

	calc := payroll.NewCalculator(payroll.Settings{})
	slip, err := calc.ComputePayslip(employee(), month("10", "0", 20))
	require.NoError(t, err)

	assertMoney(t, "6.25", slip.HourlyRate, "hourly rate")
	assertMoney(t, "93.75", slip.OvertimeValue, "overtime value")
	assertMoney(t, "1093.75", slip.GrossPay, "gross pay")
	assertMoney(t, "164.06", slip.IncomeTax, "income tax")
	assertMoney(t, "120.31", slip.SocialSecurity, "social security")
	assertMoney(t, "0", slip.AbsenceDeduction, "absence deduction")
	assertMoney(t, "100", slip.MealSubsidy, "meal subsidy")
	assertMoney(t, "909.38", slip.NetPay, "net pay")
	assertMoney(t, "1193.75", slip.DisplayedGross, "displayed gross")
	assert.Equal(t, time.March, slip.Month)
}

func TestComputePayslip_AbsenceDeduction(t *testing.T) {
	calc := payroll.NewCalculator(payroll.Settings{})
	slip, err := calc.ComputePayslip(employee(), month("0", "3", 0))
	require.NoError(t, err)

	assertMoney(t, "18.75", slip.AbsenceDeduction, "absence deduction")
	// 1000 - 150 - 110 - 18.75
	assertMoney(t, "721.25", slip.NetPay, "net pay")
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestComputePayslip_TaxBaseExcludesMealSubsidy(t *testing.T) {
	// GIVEN: Two employees identical except for a huge meal subsidy
	// THEN: Tax and social security are unchanged

	calc := payroll.NewCalculator(payroll.Settings{})

	normal, err := calc.ComputePayslip(employee(), month("10", "0", 20))
	require.NoError(t, err)

	rich := employee()
	rich.Compensation.DailyMealSubsidy = set("1000")
	generous, err := calc.ComputePayslip(rich, month("10", "0", 20))
	require.NoError(t, err)

	assert.True(t, normal.IncomeTax.Equal(generous.IncomeTax))
	assert.True(t, normal.SocialSecurity.Equal(generous.SocialSecurity))
	assert.True(t, normal.GrossPay.Equal(generous.GrossPay))
	assert.True(t, generous.DisplayedGross.GreaterThan(normal.DisplayedGross))
}

func TestComputePayslip_OvertimeMonotonicity(t *testing.T) {
	calc := payroll.NewCalculator(payroll.Settings{})

	prev, err := calc.ComputePayslip(employee(), month("0", "0", 20))
	require.NoError(t, err)

	for _, ot := range []string{"1", "5", "12.5", "40"} {
		next, err := calc.ComputePayslip(employee(), month(ot, "0", 20))
		require.NoError(t, err)

		assert.True(t, next.GrossPay.GreaterThan(prev.GrossPay), "gross at %s", ot)
		assert.True(t, next.IncomeTax.GreaterThan(prev.IncomeTax), "tax at %s", ot)
		assert.True(t, next.SocialSecurity.GreaterThan(prev.SocialSecurity), "ss at %s", ot)
		assert.True(t, next.NetPay.GreaterThanOrEqual(prev.NetPay), "net at %s", ot)
		prev = next
	}
}

func TestComputePayslip_ZeroStandardHours(t *testing.T) {
	emp := employee()
	emp.Compensation.StandardMonthlyHours = set("0")

	slip, err := payroll.NewCalculator(payroll.Settings{}).ComputePayslip(emp, month("10", "4", 20))
	require.NoError(t, err)

	assert.True(t, slip.HourlyRate.IsZero())
	assert.True(t, slip.OvertimeValue.IsZero())
	assert.True(t, slip.AbsenceDeduction.IsZero())
	assertMoney(t, "1000", slip.GrossPay, "gross pay")
}

func TestComputePayslip_DefaultOvertimeRate(t *testing.T) {
	emp := employee()
	emp.Compensation.OvertimeRate50 = decimal.NullDecimal{}

	slip, err := payroll.NewCalculator(payroll.Settings{}).ComputePayslip(emp, month("10", "0", 0))
	require.NoError(t, err)
	assertMoney(t, "0.5", slip.OvertimeRate50, "rate")
	assertMoney(t, "93.75", slip.OvertimeValue, "overtime value")

	custom := payroll.NewCalculator(payroll.Settings{DefaultOvertimeRate50: set("1")})
	slip, err = custom.ComputePayslip(emp, month("10", "0", 0))
	require.NoError(t, err)
	assertMoney(t, "125", slip.OvertimeValue, "overtime value at 100%")

	flat := payroll.NewCalculator(payroll.Settings{DefaultOvertimeRate50: set("0")})
	slip, err = flat.ComputePayslip(emp, month("10", "0", 0))
	require.NoError(t, err)
	assertMoney(t, "0", slip.OvertimeRate50, "configured zero default")
	assertMoney(t, "62.5", slip.OvertimeValue, "overtime value at 0%")
}

func TestComputePayslip_ZeroEmployeeRateIsHonoured(t *testing.T) {
	emp := employee()
	emp.Compensation.OvertimeRate50 = set("0")

	slip, err := payroll.NewCalculator(payroll.Settings{}).ComputePayslip(emp, month("10", "0", 0))
	require.NoError(t, err)
	assertMoney(t, "0", slip.OvertimeRate50, "rate")
	assertMoney(t, "62.5", slip.OvertimeValue, "overtime value")
}

func TestComputePayslip_PaysOvertimeOnVacationDays(t *testing.T) {
	// GIVEN: 2h overtime on a worked day and 3h on a day the vacation wins
	// WHEN: Computing the payslip
	// THEN: All 5h are paid, and both dates earn the meal subsidy

	totals := &attendance.MonthTotals{
		Year:  2024,
		Month: time.March,
		Totals: attendance.Totals{
			TotalWorkedHours:    d("8"),
			TotalOvertimeHours:  d("2"),
			RecordWorkedHours:   d("16"),
			RecordOvertimeHours: d("5"),
			TotalAbsenceHours:   d("0"),
			DistinctWorkedDays:  2,
			DaysVacation:        1,
		},
	}

	slip, err := payroll.NewCalculator(payroll.Settings{}).ComputePayslip(employee(), totals)
	require.NoError(t, err)
	assertMoney(t, "5", slip.OvertimeHours, "overtime hours")
	assertMoney(t, "16", slip.WorkedHours, "worked hours")
	// 5 * 1.5 * 6.25
	assertMoney(t, "46.88", slip.OvertimeValue, "overtime value")
	assertMoney(t, "10", slip.MealSubsidy, "meal subsidy")
}

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

func TestComputePayslip_MissingCompensation(t *testing.T) {
	emp := employee()
	emp.Compensation.BaseMonthlySalary = decimal.NullDecimal{}
	emp.Compensation.IncomeTaxRate = decimal.NullDecimal{}

	slip, err := payroll.NewCalculator(payroll.Settings{}).ComputePayslip(emp, month("10", "0", 20))
	assert.Nil(t, slip)
	require.ErrorIs(t, err, generic.ErrConfiguration)

	var cfgErr *generic.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"base_monthly_salary", "income_tax_rate"}, cfgErr.Missing)
	assert.Equal(t, int64(1), cfgErr.EmployeeID)
}
