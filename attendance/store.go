package attendance

import (
	"context"
	"sort"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// DATA SOURCE - The read side the engine depends on
// =============================================================================

// Events are every record of one employee touching a window. Periods are
// included whatever their approval state; the resolver filters.
type Events struct {
	DailyRecords []DailyRecord
	Absences     []AbsenceRecord
	Vacations    []VacationPeriod
	Leaves       []LeavePeriod
}

// ForDay narrows the events to those relevant to one date.
func (e Events) ForDay(date generic.TimePoint) DayEvents {
	var day DayEvents
	for _, v := range e.Vacations {
		if v.Period().Contains(date) {
			day.Vacations = append(day.Vacations, v)
		}
	}
	for _, l := range e.Leaves {
		if l.Period().Contains(date) {
			day.Leaves = append(day.Leaves, l)
		}
	}
	for _, a := range e.Absences {
		if a.Date.Equal(date) {
			day.Absences = append(day.Absences, a)
		}
	}
	for i := range e.DailyRecords {
		if e.DailyRecords[i].Date.Equal(date) {
			day.Record = &e.DailyRecords[i]
			break
		}
	}
	return day
}

// EmployeeFilter narrows ListEmployees. Empty Department means all.
type EmployeeFilter struct {
	Department string
}

// DataSource is everything the computations read.
type DataSource interface {
	ListOccurrenceTypes(ctx context.Context) ([]OccurrenceType, error)
	ListEventsForEmployeeInRange(ctx context.Context, employeeID int64, window generic.Period) (Events, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	ListSemiannualAdjustments(ctx context.Context, employeeID int64, year int) ([]SemiannualAdjustment, error)
}

// =============================================================================
// STORE - The full CRUD surface, one repository per entity kind
// =============================================================================

// Store is implemented by store/memory, store/sqlite and store/postgres.
type Store interface {
	Employees() generic.Repository[Employee]
	OccurrenceTypes() generic.Repository[OccurrenceType]
	DailyRecords() generic.Repository[DailyRecord]
	Vacations() generic.Repository[VacationPeriod]
	Leaves() generic.Repository[LeavePeriod]
	Absences() generic.Repository[AbsenceRecord]
	Adjustments() generic.Repository[SemiannualAdjustment]

	// UpsertDailyRecord inserts or replaces the record for (employee, date).
	// created is false when an existing record was updated.
	UpsertDailyRecord(ctx context.Context, rec DailyRecord) (id int64, created bool, err error)

	// DeleteOccurrenceType refuses with *generic.InUseError while daily
	// records reference the type, unless force is set.
	DeleteOccurrenceType(ctx context.Context, id int64, force bool) (bool, error)

	// Reset removes every record. Used by demo scenarios.
	Reset(ctx context.Context) error

	Close() error
}

// NewStoreSource adapts a Store to the DataSource the engine reads through.
func NewStoreSource(store Store) DataSource {
	return &storeSource{store: store}
}

type storeSource struct {
	store Store
}

func (s *storeSource) ListOccurrenceTypes(ctx context.Context) ([]OccurrenceType, error) {
	types, err := s.store.OccurrenceTypes().Fetch(ctx, generic.Filter{})
	return types, generic.WrapDataAccess("list occurrence types", err)
}

func (s *storeSource) ListEventsForEmployeeInRange(ctx context.Context, employeeID int64, window generic.Period) (Events, error) {
	filter := generic.Filter{EmployeeID: employeeID, Range: &window}

	records, err := s.store.DailyRecords().Fetch(ctx, filter)
	if err != nil {
		return Events{}, generic.WrapDataAccess("list daily records", err)
	}
	absences, err := s.store.Absences().Fetch(ctx, filter)
	if err != nil {
		return Events{}, generic.WrapDataAccess("list absences", err)
	}
	vacations, err := s.store.Vacations().Fetch(ctx, filter)
	if err != nil {
		return Events{}, generic.WrapDataAccess("list vacations", err)
	}
	leaves, err := s.store.Leaves().Fetch(ctx, filter)
	if err != nil {
		return Events{}, generic.WrapDataAccess("list leaves", err)
	}

	return Events{DailyRecords: records, Absences: absences, Vacations: vacations, Leaves: leaves}, nil
}

func (s *storeSource) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	employees, err := s.store.Employees().Fetch(ctx, generic.Filter{Department: filter.Department})
	if err != nil {
		return nil, generic.WrapDataAccess("list employees", err)
	}
	sort.SliceStable(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })
	return employees, nil
}

func (s *storeSource) ListSemiannualAdjustments(ctx context.Context, employeeID int64, year int) ([]SemiannualAdjustment, error) {
	adjustments, err := s.store.Adjustments().Fetch(ctx, generic.Filter{EmployeeID: employeeID, Year: year})
	return adjustments, generic.WrapDataAccess("list semiannual adjustments", err)
}
