package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// TOTALS
// =============================================================================

// Totals is the aggregation of one employee over one window. Every field is
// derived from the window's events; nothing is carried between calls.
type Totals struct {
	EmployeeID int64
	Window     generic.Period
	Days       []DayResult

	// Sums over the days where the record branch fired. The grid shows these.
	TotalWorkedHours   decimal.Decimal
	TotalOvertimeHours decimal.Decimal

	// Sums over every daily record in the window, whichever branch won the
	// day. Payroll pays from these, like DistinctWorkedDays and
	// RecordAbsenceHours.
	RecordWorkedHours   decimal.Decimal
	RecordOvertimeHours decimal.Decimal

	// TotalAbsenceHours = RecordAbsenceHours + AbsenceRecordHours. A day can
	// contribute to both (partial-day absence on a worked day).
	TotalAbsenceHours  decimal.Decimal
	RecordAbsenceHours decimal.Decimal
	AbsenceRecordHours decimal.Decimal

	// Days on which each branch fired.
	DaysVacation int
	DaysLeave    int
	DaysAbsence  int
	DaysRecorded int

	// DistinctWorkedDays counts dates with a daily record carrying worked or
	// overtime hours, whichever branch won the day.
	DistinctWorkedDays int

	// Inclusive-range counts: calendar days covered by approved periods,
	// clipped to the window and counted once even where periods overlap.
	VacationDaysSpanned int
	LeaveDaysSpanned    int

	// AbsenceDistinctDays counts unique dates with an approved absence.
	AbsenceDistinctDays int
}

// MonthTotals adds the per-day grid of a calendar month.
type MonthTotals struct {
	Totals
	Year        int
	Month       time.Month
	PerDayCodes map[int]string
}

// YearTotals is the annual variant used for balance reporting.
type YearTotals struct {
	Totals
	Year int
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Config controls glyph resolution.
type Config struct {
	Resolver      ResolverConfig
	FallbackGlyph string
}

// Aggregator iterates windows of days through the resolver.
type Aggregator struct {
	source DataSource
	config Config
	logger *zap.Logger
}

func NewAggregator(source DataSource, config Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{source: source, config: config, logger: logger}
}

// Source returns the data source the aggregator reads.
func (a *Aggregator) Source() DataSource {
	return a.source
}

// Session loads the occurrence vocabulary once so a batch over many
// employees resolves every day against the same registry.
func (a *Aggregator) Session(ctx context.Context) (*Session, error) {
	types, err := a.source.ListOccurrenceTypes(ctx)
	if err != nil {
		return nil, generic.WrapDataAccess("list occurrence types", err)
	}
	registry := NewRegistry(types, a.config.FallbackGlyph)
	return &Session{
		source:   a.source,
		resolver: NewResolver(registry, a.config.Resolver, a.logger),
		logger:   a.logger,
	}, nil
}

func (a *Aggregator) AggregateMonth(ctx context.Context, employeeID int64, year int, month time.Month) (*MonthTotals, error) {
	s, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.AggregateMonth(ctx, employeeID, year, month)
}

func (a *Aggregator) AggregateYear(ctx context.Context, employeeID int64, year int) (*YearTotals, error) {
	s, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.AggregateYear(ctx, employeeID, year)
}

func (a *Aggregator) AggregateRange(ctx context.Context, employeeID int64, window generic.Period) (*Totals, error) {
	s, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.AggregateRange(ctx, employeeID, window)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is an Aggregator bound to one snapshot of the occurrence vocabulary.
type Session struct {
	source   DataSource
	resolver *Resolver
	logger   *zap.Logger
}

// Resolver exposes the session's resolver (and through it the registry).
func (s *Session) Resolver() *Resolver {
	return s.resolver
}

// AggregateMonth covers day 1 through the last day of the month, leap years included.
func (s *Session) AggregateMonth(ctx context.Context, employeeID int64, year int, month time.Month) (*MonthTotals, error) {
	totals, err := s.AggregateRange(ctx, employeeID, generic.MonthPeriod(year, month))
	if err != nil {
		return nil, err
	}
	codes := make(map[int]string, len(totals.Days))
	for _, d := range totals.Days {
		codes[d.Date.Day()] = d.Code
	}
	return &MonthTotals{Totals: *totals, Year: year, Month: month, PerDayCodes: codes}, nil
}

// AggregateYear covers Jan 1 - Dec 31.
func (s *Session) AggregateYear(ctx context.Context, employeeID int64, year int) (*YearTotals, error) {
	totals, err := s.AggregateRange(ctx, employeeID, generic.YearPeriod(year))
	if err != nil {
		return nil, err
	}
	return &YearTotals{Totals: *totals, Year: year}, nil
}

// AggregateRange resolves every day of the window. A store failure or
// cancellation returns no totals at all.
func (s *Session) AggregateRange(ctx context.Context, employeeID int64, window generic.Period) (*Totals, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	events, err := s.source.ListEventsForEmployeeInRange(ctx, employeeID, window)
	if err != nil {
		return nil, generic.WrapDataAccess("list events", err)
	}

	t := &Totals{
		EmployeeID:         employeeID,
		Window:             window,
		TotalWorkedHours:   decimal.Zero,
		TotalOvertimeHours: decimal.Zero,
		TotalAbsenceHours:  decimal.Zero,
		RecordAbsenceHours: decimal.Zero,
		AbsenceRecordHours: decimal.Zero,

		RecordWorkedHours:   decimal.Zero,
		RecordOvertimeHours: decimal.Zero,
	}

	idx := indexEvents(events, window)

	for _, day := range window.Days() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := s.resolver.ResolveDay(day, idx.forDay(day))
		t.Days = append(t.Days, res)

		switch res.Branch {
		case BranchVacation:
			t.DaysVacation++
		case BranchLeave:
			t.DaysLeave++
		case BranchAbsence:
			t.DaysAbsence++
		case BranchRecord:
			t.DaysRecorded++
			t.TotalWorkedHours = t.TotalWorkedHours.Add(res.WorkedHours)
			t.TotalOvertimeHours = t.TotalOvertimeHours.Add(res.OvertimeHours)
		}
	}

	workedDates := make(map[string]struct{})
	for _, rec := range idx.records {
		t.RecordWorkedHours = t.RecordWorkedHours.Add(rec.WorkedHours)
		t.RecordOvertimeHours = t.RecordOvertimeHours.Add(rec.OvertimeHours)
		t.RecordAbsenceHours = t.RecordAbsenceHours.Add(rec.AbsenceHours)
		if rec.WorkedHours.IsPositive() || rec.OvertimeHours.IsPositive() {
			workedDates[rec.Date.String()] = struct{}{}
		}
	}
	t.DistinctWorkedDays = len(workedDates)

	absenceDates := make(map[string]struct{})
	for _, a := range idx.absences {
		if !a.Approved {
			continue
		}
		t.AbsenceRecordHours = t.AbsenceRecordHours.Add(a.AbsenceHours)
		absenceDates[a.Date.String()] = struct{}{}
	}
	t.AbsenceDistinctDays = len(absenceDates)
	t.TotalAbsenceHours = t.RecordAbsenceHours.Add(t.AbsenceRecordHours)

	t.VacationDaysSpanned = SpannedDays(events.Vacations, window)
	t.LeaveDaysSpanned = SpannedDays(events.Leaves, window)

	s.logger.Debug("aggregated window",
		zap.Int64("employee_id", employeeID),
		zap.String("window", window.String()),
		zap.Int("days", len(t.Days)),
	)
	return t, nil
}

// =============================================================================
// EVENT INDEX
// =============================================================================

// eventIndex keeps the window's events keyed by date so each day is O(1)
// for records and absences.
type eventIndex struct {
	records   map[string]DailyRecord
	absences  map[string]AbsenceRecord
	vacations []VacationPeriod
	leaves    []LeavePeriod
}

func indexEvents(events Events, window generic.Period) *eventIndex {
	idx := &eventIndex{
		records:  make(map[string]DailyRecord),
		absences: make(map[string]AbsenceRecord),
	}
	for _, r := range events.DailyRecords {
		if !window.Contains(r.Date) {
			continue
		}
		// One record per day is a store invariant; keep the first if it is broken.
		if _, dup := idx.records[r.Date.String()]; !dup {
			idx.records[r.Date.String()] = r
		}
	}
	for _, a := range events.Absences {
		if !window.Contains(a.Date) {
			continue
		}
		// An approved absence displaces an unapproved one on the same day.
		key := a.Date.String()
		if prev, dup := idx.absences[key]; !dup || (!prev.Approved && a.Approved) {
			idx.absences[key] = a
		}
	}
	for _, v := range events.Vacations {
		if v.Period().Overlaps(window) {
			idx.vacations = append(idx.vacations, v)
		}
	}
	for _, l := range events.Leaves {
		if l.Period().Overlaps(window) {
			idx.leaves = append(idx.leaves, l)
		}
	}
	return idx
}

func (idx *eventIndex) forDay(day generic.TimePoint) DayEvents {
	ev := DayEvents{Vacations: idx.vacations, Leaves: idx.leaves}
	key := day.String()
	if a, ok := idx.absences[key]; ok {
		ev.Absences = []AbsenceRecord{a}
	}
	if r, ok := idx.records[key]; ok {
		ev.Record = &r
	}
	return ev
}

// =============================================================================
// SPANNED DAYS
// =============================================================================

// ApprovablePeriod is a vacation or leave.
type ApprovablePeriod interface {
	Period() generic.Period
	IsApproved() bool
}

// SpannedDays counts the calendar days of window covered by at least one
// approved period. Each period is clipped first, then overlaps are merged.
func SpannedDays[P ApprovablePeriod](periods []P, window generic.Period) int {
	var clipped []generic.Period
	for _, p := range periods {
		if !p.IsApproved() {
			continue
		}
		if c, ok := p.Period().Clip(window); ok {
			clipped = append(clipped, c)
		}
	}
	if len(clipped) == 0 {
		return 0
	}

	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start.Before(clipped[j].Start) })

	total := 0
	current := clipped[0]
	for _, p := range clipped[1:] {
		if p.Start.BeforeOrEqual(current.End.AddDays(1)) {
			if p.End.After(current.End) {
				current.End = p.End
			}
			continue
		}
		total += current.Length()
		current = p
	}
	return total + current.Length()
}
