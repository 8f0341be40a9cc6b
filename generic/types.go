/*
Package generic provides the domain-agnostic building blocks of the attendance engine.

PURPOSE:
  Calendar days, inclusive periods, decimal quantities, the error taxonomy
  and the CRUD repository contract. Nothing in here knows what an employee,
  a vacation or a payslip is; the attendance, payroll and balance packages
  build on these types.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours and money are decimal.Decimal, never float64
  - Round2: the single rounding rule for money (2 places, half away from zero)
  - OrDefault: resolve an optional (NullDecimal) configuration value

USAGE:
  hourly := base.Div(stdHours)             // kept unrounded
  overtime := generic.Round2(ot.Mul(hourly))

SEE ALSO:
  - period.go: Period, Clip and DaysIn (the clipping law)
  - errors.go: NotFound / Configuration / Validation / DataAccess errors
  - store.go: Repository[T]
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MoneyPlaces is the precision every monetary output is rounded to.
const MoneyPlaces = 2

// Round2 rounds half away from zero to cents. 0.005 becomes 0.01 and
// -0.005 becomes -0.01.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// OrDefault returns the value when set, def otherwise.
func OrDefault(v decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return def
}

// Set wraps a value as a present NullDecimal.
func Set(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// IsNegative reports whether a present value is below zero.
func IsNegative(v decimal.NullDecimal) bool {
	return v.Valid && v.Decimal.IsNegative()
}
