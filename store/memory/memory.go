// Package memory provides an in-memory attendance.Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps every table in maps guarded by one lock, so each write is
// trivially all-or-nothing and the employee cascade is atomic.
type Store struct {
	mu sync.RWMutex

	employees   *table[attendance.Employee]
	types       *table[attendance.OccurrenceType]
	records     *table[attendance.DailyRecord]
	vacations   *table[attendance.VacationPeriod]
	leaves      *table[attendance.LeavePeriod]
	absences    *table[attendance.AbsenceRecord]
	adjustments *table[attendance.SemiannualAdjustment]
}

var _ attendance.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.employees = newTable(s, "employee",
		func(e attendance.Employee) int64 { return e.ID },
		func(e *attendance.Employee, id int64) { e.ID = id },
		func(e attendance.Employee, f generic.Filter) bool {
			return (f.Department == "" || e.Department == f.Department) && (f.EmployeeID == 0 || e.ID == f.EmployeeID)
		},
		func(a, b attendance.Employee) bool { return a.Name < b.Name },
	)
	s.types = newTable(s, "occurrence type",
		func(o attendance.OccurrenceType) int64 { return o.ID },
		func(o *attendance.OccurrenceType, id int64) { o.ID = id },
		func(attendance.OccurrenceType, generic.Filter) bool { return true },
		func(a, b attendance.OccurrenceType) bool { return a.Code < b.Code },
	)
	s.records = newTable(s, "daily record",
		func(r attendance.DailyRecord) int64 { return r.ID },
		func(r *attendance.DailyRecord, id int64) { r.ID = id },
		func(r attendance.DailyRecord, f generic.Filter) bool {
			return matchEmployee(r.EmployeeID, f) && matchDay(r.Date, f)
		},
		func(a, b attendance.DailyRecord) bool { return a.Date.Before(b.Date) },
	)
	s.vacations = newTable(s, "vacation",
		func(v attendance.VacationPeriod) int64 { return v.ID },
		func(v *attendance.VacationPeriod, id int64) { v.ID = id },
		func(v attendance.VacationPeriod, f generic.Filter) bool {
			return matchEmployee(v.EmployeeID, f) && matchPeriod(v.Period(), f)
		},
		func(a, b attendance.VacationPeriod) bool { return a.Start.Before(b.Start) },
	)
	s.leaves = newTable(s, "leave",
		func(l attendance.LeavePeriod) int64 { return l.ID },
		func(l *attendance.LeavePeriod, id int64) { l.ID = id },
		func(l attendance.LeavePeriod, f generic.Filter) bool {
			return matchEmployee(l.EmployeeID, f) && matchPeriod(l.Period(), f)
		},
		func(a, b attendance.LeavePeriod) bool { return a.Start.Before(b.Start) },
	)
	s.absences = newTable(s, "absence",
		func(a attendance.AbsenceRecord) int64 { return a.ID },
		func(a *attendance.AbsenceRecord, id int64) { a.ID = id },
		func(a attendance.AbsenceRecord, f generic.Filter) bool {
			return matchEmployee(a.EmployeeID, f) && matchDay(a.Date, f)
		},
		func(a, b attendance.AbsenceRecord) bool { return a.Date.Before(b.Date) },
	)
	s.adjustments = newTable(s, "semiannual adjustment",
		func(a attendance.SemiannualAdjustment) int64 { return a.ID },
		func(a *attendance.SemiannualAdjustment, id int64) { a.ID = id },
		func(a attendance.SemiannualAdjustment, f generic.Filter) bool {
			return matchEmployee(a.EmployeeID, f) && (f.Year == 0 || a.Year == f.Year)
		},
		func(a, b attendance.SemiannualAdjustment) bool {
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			return a.Half < b.Half
		},
	)

	s.employees.beforeInsert = s.assignEmployeeNumber
	s.employees.beforeUpdate = keepEmployeeNumber
	s.employees.beforeDelete = s.cascadeEmployee
	s.types.beforeDelete = s.rejectReferencedType
	s.records.sameKey = sameRecordDay
	s.absences.checkInsert = s.uniqueAbsenceDay
	s.absences.checkUpdate = s.uniqueAbsenceDay
	s.records.checkUpdate = s.uniqueRecordDay
	s.types.checkInsert = s.uniqueTypeCode
	s.types.checkUpdate = s.uniqueTypeCode
	return s
}

func (s *Store) Employees() generic.Repository[attendance.Employee]             { return s.employees }
func (s *Store) OccurrenceTypes() generic.Repository[attendance.OccurrenceType] { return s.types }
func (s *Store) DailyRecords() generic.Repository[attendance.DailyRecord]       { return s.records }
func (s *Store) Vacations() generic.Repository[attendance.VacationPeriod]       { return s.vacations }
func (s *Store) Leaves() generic.Repository[attendance.LeavePeriod]             { return s.leaves }
func (s *Store) Absences() generic.Repository[attendance.AbsenceRecord]         { return s.absences }
func (s *Store) Adjustments() generic.Repository[attendance.SemiannualAdjustment] {
	return s.adjustments
}

func (s *Store) Close() error { return nil }

// UpsertDailyRecord replaces the record for (employee, date) if one exists.
func (s *Store) UpsertDailyRecord(_ context.Context, rec attendance.DailyRecord) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, created := s.records.upsertLocked(rec)
	return id, created, nil
}

// DeleteOccurrenceType with force leaves referencing daily records in place;
// they resolve to the fallback glyph afterwards.
func (s *Store) DeleteOccurrenceType(ctx context.Context, id int64, force bool) (bool, error) {
	if !force {
		return s.types.Delete(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types.rows[id]; !ok {
		return false, nil
	}
	delete(s.types.rows, id)
	return true, nil
}

// Reset clears all tables and restarts id sequences.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees.reset()
	s.types.reset()
	s.records.reset()
	s.vacations.reset()
	s.leaves.reset()
	s.absences.reset()
	s.adjustments.reset()
	return nil
}

// =============================================================================
// HOOKS (called with s.mu held)
// =============================================================================

func (s *Store) assignEmployeeNumber(e *attendance.Employee) {
	if e.Number != "" {
		return
	}
	numbers := make([]string, 0, len(s.employees.rows))
	for _, existing := range s.employees.rows {
		numbers = append(numbers, existing.Number)
	}
	e.Number = attendance.NextEmployeeNumber(numbers)
}

func keepEmployeeNumber(old attendance.Employee, e *attendance.Employee) {
	if e.Number == "" {
		e.Number = old.Number
	}
}

func (s *Store) rejectReferencedType(id int64) error {
	refs := 0
	for _, r := range s.records.rows {
		if r.OccurrenceTypeID == id {
			refs++
		}
	}
	if refs > 0 {
		return &generic.InUseError{Kind: "occurrence type", ID: id, References: refs}
	}
	return nil
}

func (s *Store) cascadeEmployee(id int64) error {
	deleteWhere(s.records, func(r attendance.DailyRecord) bool { return r.EmployeeID == id })
	deleteWhere(s.vacations, func(v attendance.VacationPeriod) bool { return v.EmployeeID == id })
	deleteWhere(s.leaves, func(l attendance.LeavePeriod) bool { return l.EmployeeID == id })
	deleteWhere(s.absences, func(a attendance.AbsenceRecord) bool { return a.EmployeeID == id })
	deleteWhere(s.adjustments, func(a attendance.SemiannualAdjustment) bool { return a.EmployeeID == id })
	return nil
}

func (s *Store) uniqueRecordDay(id int64, rec attendance.DailyRecord) error {
	for otherID, r := range s.records.rows {
		if otherID != id && r.EmployeeID == rec.EmployeeID && r.Date.Equal(rec.Date) {
			return &generic.ValidationError{Field: "date", Reason: "daily record already exists for " + rec.Date.String()}
		}
	}
	return nil
}

func sameRecordDay(a, b attendance.DailyRecord) bool {
	return a.EmployeeID == b.EmployeeID && a.Date.Equal(b.Date)
}

func (s *Store) uniqueAbsenceDay(id int64, abs attendance.AbsenceRecord) error {
	for otherID, a := range s.absences.rows {
		if otherID != id && a.EmployeeID == abs.EmployeeID && a.Date.Equal(abs.Date) {
			return &generic.ValidationError{Field: "date", Reason: "absence already recorded for " + abs.Date.String()}
		}
	}
	return nil
}

func (s *Store) uniqueTypeCode(id int64, o attendance.OccurrenceType) error {
	for otherID, t := range s.types.rows {
		if otherID != id && t.Code == o.Code {
			return &generic.ValidationError{Field: "code", Reason: "duplicate code " + o.Code}
		}
	}
	return nil
}

// =============================================================================
// FILTER MATCHING
// =============================================================================

func matchEmployee(employeeID int64, f generic.Filter) bool {
	return f.EmployeeID == 0 || employeeID == f.EmployeeID
}

func matchDay(day generic.TimePoint, f generic.Filter) bool {
	if f.Range != nil && !f.Range.Contains(day) {
		return false
	}
	return f.Year == 0 || day.Year() == f.Year
}

func matchPeriod(p generic.Period, f generic.Filter) bool {
	if f.Range != nil && !p.Overlaps(*f.Range) {
		return false
	}
	return f.Year == 0 || p.Overlaps(generic.YearPeriod(f.Year))
}

// =============================================================================
// TABLE - One entity kind
// =============================================================================

type table[T any] struct {
	parent *Store
	kind   string
	rows   map[int64]T
	nextID int64

	idOf  func(T) int64
	setID func(*T, int64)
	match func(T, generic.Filter) bool
	less  func(a, b T) bool

	beforeInsert func(*T)
	beforeUpdate func(old T, rec *T)
	beforeDelete func(id int64) error
	checkInsert  func(id int64, rec T) error
	checkUpdate  func(id int64, rec T) error

	// sameKey, when set, makes Insert overwrite the row with the same key.
	sameKey func(a, b T) bool
}

func newTable[T any](parent *Store, kind string, idOf func(T) int64, setID func(*T, int64),
	match func(T, generic.Filter) bool, less func(a, b T) bool) *table[T] {
	return &table[T]{
		parent: parent,
		kind:   kind,
		rows:   make(map[int64]T),
		idOf:   idOf,
		setID:  setID,
		match:  match,
		less:   less,
	}
}

func (t *table[T]) reset() {
	t.rows = make(map[int64]T)
	t.nextID = 0
}

func (t *table[T]) Fetch(ctx context.Context, filter generic.Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.parent.mu.RLock()
	defer t.parent.mu.RUnlock()

	result := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if t.match(r, filter) {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if t.less(result[i], result[j]) {
			return true
		}
		if t.less(result[j], result[i]) {
			return false
		}
		return t.idOf(result[i]) < t.idOf(result[j])
	})
	return result, nil
}

func (t *table[T]) Get(_ context.Context, id int64) (T, error) {
	t.parent.mu.RLock()
	defer t.parent.mu.RUnlock()

	r, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, &generic.NotFoundError{Kind: t.kind, ID: id}
	}
	return r, nil
}

func (t *table[T]) Insert(_ context.Context, rec T) (int64, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()

	if t.checkInsert != nil {
		if err := t.checkInsert(0, rec); err != nil {
			return 0, err
		}
	}
	id, _ := t.upsertLocked(rec)
	return id, nil
}

// upsertLocked replaces the row matching sameKey, or inserts a new one.
func (t *table[T]) upsertLocked(rec T) (int64, bool) {
	if t.sameKey != nil {
		for id, existing := range t.rows {
			if t.sameKey(existing, rec) {
				t.setID(&rec, id)
				t.rows[id] = rec
				return id, false
			}
		}
	}
	return t.insertLocked(rec), true
}

func (t *table[T]) insertLocked(rec T) int64 {
	if t.beforeInsert != nil {
		t.beforeInsert(&rec)
	}
	t.nextID++
	t.setID(&rec, t.nextID)
	t.rows[t.nextID] = rec
	return t.nextID
}

func (t *table[T]) Update(_ context.Context, id int64, rec T) (bool, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()

	old, ok := t.rows[id]
	if !ok {
		return false, nil
	}
	if t.checkUpdate != nil {
		if err := t.checkUpdate(id, rec); err != nil {
			return false, err
		}
	}
	if t.beforeUpdate != nil {
		t.beforeUpdate(old, &rec)
	}
	t.setID(&rec, id)
	t.rows[id] = rec
	return true, nil
}

func (t *table[T]) Delete(_ context.Context, id int64) (bool, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false, nil
	}
	if t.beforeDelete != nil {
		if err := t.beforeDelete(id); err != nil {
			return false, err
		}
	}
	delete(t.rows, id)
	return true, nil
}

func deleteWhere[T any](t *table[T], pred func(T) bool) {
	for id, r := range t.rows {
		if pred(r) {
			delete(t.rows, id)
		}
	}
}
