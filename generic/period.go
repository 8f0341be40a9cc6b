package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range, the unit every aggregation is bounded by
// =============================================================================

// Period is an inclusive range [Start, End] of calendar days.
//
// Examples:
//   - A vacation from Jan 25 to Feb 5
//   - The payroll window of February 2024: Feb 1 - Feb 29
//   - The balance window of a calendar year: Jan 1 - Dec 31
type Period struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

// MonthPeriod returns the window covering every day of the month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// YearPeriod returns Jan 1 - Dec 31 of the year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &ValidationError{Field: "period", Reason: "start and end are required"}
	}
	if p.End.Before(p.Start) {
		return &ValidationError{Field: "period", Reason: fmt.Sprintf("end %s before start %s", p.End, p.Start)}
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps returns true when the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Clip intersects the period with a window. The boolean is false when they
// do not overlap.
func (p Period) Clip(window Period) (Period, bool) {
	if !p.Overlaps(window) {
		return Period{}, false
	}
	clipped := p
	if clipped.Start.Before(window.Start) {
		clipped.Start = window.Start
	}
	if clipped.End.After(window.End) {
		clipped.End = window.End
	}
	return clipped, true
}

// Length is the number of days in the period, counting both ends.
// Returns 0 for an inverted period.
func (p Period) Length() int {
	n := DaysBetween(p.Start, p.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

// DaysIn returns how many days of the period fall inside window:
// max(0, min(end, wEnd) - max(start, wStart) + 1).
func (p Period) DaysIn(window Period) int {
	clipped, ok := p.Clip(window)
	if !ok {
		return 0
	}
	return clipped.Length()
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
