package attendance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// BRANCH - Which precedence rule produced a day's code
// =============================================================================

type Branch int

const (
	BranchNone Branch = iota
	BranchVacation
	BranchLeave
	BranchAbsence
	BranchRecord
)

func (b Branch) String() string {
	switch b {
	case BranchVacation:
		return "vacation"
	case BranchLeave:
		return "leave"
	case BranchAbsence:
		return "absence"
	case BranchRecord:
		return "record"
	default:
		return "none"
	}
}

// =============================================================================
// RESOLVER CONFIG
// =============================================================================

// ResolverConfig holds the fixed glyphs of the non-record branches.
type ResolverConfig struct {
	VacationGlyph     string
	LeaveGlyph        string
	JustifiedGlyph    string
	UnjustifiedGlyph  string
	NoOccurrenceGlyph string
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		VacationGlyph:     "F",
		LeaveGlyph:        "L",
		JustifiedGlyph:    "FJ",
		UnjustifiedGlyph:  "FI",
		NoOccurrenceGlyph: "-",
	}
}

// withDefaults fills empty glyphs.
func (c ResolverConfig) withDefaults() ResolverConfig {
	d := DefaultResolverConfig()
	if c.VacationGlyph == "" {
		c.VacationGlyph = d.VacationGlyph
	}
	if c.LeaveGlyph == "" {
		c.LeaveGlyph = d.LeaveGlyph
	}
	if c.JustifiedGlyph == "" {
		c.JustifiedGlyph = d.JustifiedGlyph
	}
	if c.UnjustifiedGlyph == "" {
		c.UnjustifiedGlyph = d.UnjustifiedGlyph
	}
	if c.NoOccurrenceGlyph == "" {
		c.NoOccurrenceGlyph = d.NoOccurrenceGlyph
	}
	return c
}

// =============================================================================
// DAY EVENTS / RESULT
// =============================================================================

// DayEvents are the candidate events for one employee and one day. Periods
// that do not cover the day are ignored, so callers may pass a superset.
type DayEvents struct {
	Vacations []VacationPeriod
	Leaves    []LeavePeriod
	Absences  []AbsenceRecord
	Record    *DailyRecord
}

// DayResult is the resolved code and the hours the winning branch contributes.
type DayResult struct {
	Date             generic.TimePoint
	Code             string
	Branch           Branch
	OccurrenceTypeID int64
	TypeFound        bool
	WorkedHours      decimal.Decimal
	OvertimeHours    decimal.Decimal
	AbsenceHours     decimal.Decimal
}

// =============================================================================
// RESOLVER
// =============================================================================

type Resolver struct {
	registry *Registry
	config   ResolverConfig
	logger   *zap.Logger
}

func NewResolver(registry *Registry, config ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: registry, config: config.withDefaults(), logger: logger}
}

// Registry exposes the lookup the resolver was built with.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ResolveDay applies the precedence rules to a single day. It is pure apart
// from the warning logged when a record points at an unknown occurrence type.
func (r *Resolver) ResolveDay(date generic.TimePoint, events DayEvents) DayResult {
	res := DayResult{
		Date:          date,
		WorkedHours:   decimal.Zero,
		OvertimeHours: decimal.Zero,
		AbsenceHours:  decimal.Zero,
	}

	for _, v := range events.Vacations {
		if v.Approved && v.Period().Contains(date) {
			res.Code, res.Branch = r.config.VacationGlyph, BranchVacation
			return res
		}
	}

	for _, l := range events.Leaves {
		if l.Approved && l.Period().Contains(date) {
			res.Code, res.Branch = r.config.LeaveGlyph, BranchLeave
			return res
		}
	}

	for _, a := range events.Absences {
		if !a.Approved || !a.Date.Equal(date) {
			continue
		}
		res.Branch = BranchAbsence
		res.AbsenceHours = a.AbsenceHours
		if a.Justified {
			res.Code = r.config.JustifiedGlyph
		} else {
			res.Code = r.config.UnjustifiedGlyph
		}
		return res
	}

	if rec := events.Record; rec != nil && rec.Date.Equal(date) {
		glyph, found := r.registry.Glyph(rec.OccurrenceTypeID)
		if !found {
			r.logger.Warn("occurrence type not found, using fallback glyph",
				zap.Int64("employee_id", rec.EmployeeID),
				zap.String("date", date.String()),
				zap.Int64("occurrence_type_id", rec.OccurrenceTypeID),
				zap.String("fallback", glyph),
			)
		}
		res.Code, res.Branch = glyph, BranchRecord
		res.OccurrenceTypeID = rec.OccurrenceTypeID
		res.TypeFound = found
		res.WorkedHours = rec.WorkedHours
		res.OvertimeHours = rec.OvertimeHours
		res.AbsenceHours = rec.AbsenceHours
		return res
	}

	res.Code = r.config.NoOccurrenceGlyph
	return res
}
