/*
Package sqlstore implements attendance.Store over database/sql.

PURPOSE:
  One implementation shared by the SQLite and PostgreSQL stores. The
  drivers differ only in placeholder syntax and in how tables are reset;
  both are captured by Dialect. Schema creation belongs to the caller
  (store/sqlite auto-migrates, store/postgres runs golang-migrate).

COLUMN ENCODING:
  Dates:    'YYYY-MM-DD' text in SQLite, DATE in PostgreSQL
  Decimals: text in SQLite, NUMERIC in PostgreSQL (decimal.Decimal scans both)
  Booleans: INTEGER 0/1 in SQLite, BOOLEAN in PostgreSQL

CONSTRAINTS:
  - (employee_id, work_date) unique on daily_records
  - (employee_id, absence_date) unique on absences
  - code unique on occurrence_types, number unique on employees
  - Every per-employee table cascades on employee delete
  - daily_records.occurrence_type_id has no foreign key: a forced type
    delete leaves the records behind and they resolve to the fallback glyph

CONCURRENCY:
  Writes hold the store lock so employee number assignment cannot race.
  Reads only take the read lock.

SEE ALSO:
  - table.go: Generic Repository over one table
  - entities.go: Column mapping per entity
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// DIALECT
// =============================================================================

// Dialect captures what differs between the supported databases.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// ResetStatements empty every table and restart id sequences.
	ResetStatements []string
}

// Rebind rewrites '?' placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if d.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tables lists every table, children before parents.
var Tables = []string{
	"semiannual_adjustments",
	"absences",
	"leaves",
	"vacations",
	"daily_records",
	"occurrence_types",
	"employees",
}

// =============================================================================
// STORE
// =============================================================================

// Store implements attendance.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.RWMutex

	employees   *table[attendance.Employee]
	types       *table[attendance.OccurrenceType]
	records     *table[attendance.DailyRecord]
	vacations   *table[attendance.VacationPeriod]
	leaves      *table[attendance.LeavePeriod]
	absences    *table[attendance.AbsenceRecord]
	adjustments *table[attendance.SemiannualAdjustment]
}

var _ attendance.Store = (*Store)(nil)

// New wraps an open database whose schema already exists.
func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect}
	s.employees = employeeTable(s)
	s.types = occurrenceTypeTable(s)
	s.records = dailyRecordTable(s)
	s.vacations = vacationTable(s)
	s.leaves = leaveTable(s)
	s.absences = absenceTable(s)
	s.adjustments = adjustmentTable(s)
	return s
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Employees() generic.Repository[attendance.Employee]             { return s.employees }
func (s *Store) OccurrenceTypes() generic.Repository[attendance.OccurrenceType] { return s.types }
func (s *Store) DailyRecords() generic.Repository[attendance.DailyRecord]       { return s.records }
func (s *Store) Vacations() generic.Repository[attendance.VacationPeriod]       { return s.vacations }
func (s *Store) Leaves() generic.Repository[attendance.LeavePeriod]             { return s.leaves }
func (s *Store) Absences() generic.Repository[attendance.AbsenceRecord]         { return s.absences }
func (s *Store) Adjustments() generic.Repository[attendance.SemiannualAdjustment] {
	return s.adjustments
}

// UpsertDailyRecord inserts or replaces the record for (employee, date).
func (s *Store) UpsertDailyRecord(ctx context.Context, rec attendance.DailyRecord) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		id      int64
		created bool
	)
	err := s.withTx(ctx, func(q querier) error {
		var existing int64
		err := q.QueryRowContext(ctx,
			s.dialect.Rebind("SELECT id FROM daily_records WHERE employee_id = ? AND work_date = ?"),
			rec.EmployeeID, dateArg(rec.Date),
		).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created = true
		case err != nil:
			return err
		}
		return q.QueryRowContext(ctx, s.dialect.Rebind(s.records.insertSQL()), s.records.values(rec)...).Scan(&id)
	})
	if err != nil {
		return 0, false, s.translate("upsert daily record", "date", err)
	}
	return id, created, nil
}

// DeleteOccurrenceType refuses while daily records reference the type
// unless force is set.
func (s *Store) DeleteOccurrenceType(ctx context.Context, id int64, force bool) (bool, error) {
	if !force {
		return s.types.Delete(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM occurrence_types WHERE id = ?"), id)
	if err != nil {
		return false, generic.WrapDataAccess("delete occurrence type", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, generic.WrapDataAccess("delete occurrence type", err)
	}
	return n > 0, nil
}

// Reset removes every record and restarts id sequences.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(q querier) error {
		for _, stmt := range s.dialect.ResetStatements {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
	return generic.WrapDataAccess("reset", err)
}

// =============================================================================
// HELPERS
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// translate maps constraint violations to validation errors and everything
// else to data access errors.
func (s *Store) translate(op, uniqueField string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return &generic.ValidationError{Field: uniqueField, Reason: "already exists"}
	case isForeignKeyError(err):
		return &generic.ValidationError{Field: "employee_id", Reason: "unknown employee"}
	}
	return generic.WrapDataAccess(op, err)
}

func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

func isForeignKeyError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "violates foreign key constraint")
}
