/*
Package sqlite provides the SQLite-backed attendance store.

PURPOSE:
  Default on-disk store. Opens the database, auto-migrates the schema and
  hands the handle to store/sqlstore, which implements every repository.

KEY TABLES:
  employees:              Identity, compensation, vacation entitlement
  occurrence_types:       Attendance code vocabulary
  daily_records:          One row per (employee, day)
  vacations / leaves:     Inclusive date periods with an approval flag
  absences:               One row per (employee, day)
  semiannual_adjustments: Overtime and compensatory-day checkpoints

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on:
  - Multiple readers don't block
  - Employee deletes cascade to every dependent table

IN-MEMORY:
  ":memory:" is private per connection, so the pool is pinned to a single
  connection for it.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/sqlstore: Shared SQL implementation
  - store/postgres: PostgreSQL variant with versioned migrations
*/
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/store/sqlstore"
)

// Dialect is SQLite's flavour of the shared SQL store.
var Dialect = sqlstore.Dialect{
	Name: "sqlite",
	ResetStatements: append(deleteAll(),
		"DELETE FROM sqlite_sequence",
	),
}

func deleteAll() []string {
	stmts := make([]string, 0, len(sqlstore.Tables))
	for _, t := range sqlstore.Tables {
		stmts = append(stmts, "DELETE FROM "+t)
	}
	return stmts
}

// Store is a sqlstore.Store over a SQLite file.
type Store struct {
	*sqlstore.Store
}

// New opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{Store: sqlstore.New(db, Dialect)}, nil
}

// migrate creates the database schema.
func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		department TEXT,
		job_title TEXT,
		email TEXT,
		phone TEXT,
		tax_id TEXT,
		social_security_id TEXT,
		hire_date TEXT,
		base_monthly_salary TEXT,
		daily_meal_subsidy TEXT,
		income_tax_rate TEXT,
		social_security_rate TEXT,
		standard_monthly_hours TEXT,
		overtime_rate_50 TEXT,
		overtime_rate_100 TEXT,
		annual_vacation_days INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department);

	CREATE TABLE IF NOT EXISTS occurrence_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		default_hours TEXT NOT NULL DEFAULT '0',
		glyph TEXT NOT NULL,
		is_shift INTEGER NOT NULL DEFAULT 0,
		implies_overtime INTEGER NOT NULL DEFAULT 0,
		is_absence_type INTEGER NOT NULL DEFAULT 0,
		counts_toward_fots INTEGER NOT NULL DEFAULT 0,
		is_compensatory_leave INTEGER NOT NULL DEFAULT 0
	);

	-- No foreign key on occurrence_type_id: records outlive a forced type
	-- delete and render with the fallback glyph.
	CREATE TABLE IF NOT EXISTS daily_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		work_date TEXT NOT NULL,
		occurrence_type_id INTEGER NOT NULL,
		worked_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		absence_hours TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		UNIQUE(employee_id, work_date)
	);

	CREATE INDEX IF NOT EXISTS idx_daily_records_type
		ON daily_records(occurrence_type_id);

	CREATE TABLE IF NOT EXISTS vacations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		notes TEXT,
		approved INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_vacations_employee_dates
		ON vacations(employee_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS leaves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		reason TEXT,
		notes TEXT,
		approved INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_employee_dates
		ON leaves(employee_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS absences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		absence_date TEXT NOT NULL,
		reason TEXT,
		justified INTEGER NOT NULL DEFAULT 0,
		absence_hours TEXT NOT NULL DEFAULT '0',
		approved INTEGER NOT NULL DEFAULT 0,
		UNIQUE(employee_id, absence_date)
	);

	CREATE TABLE IF NOT EXISTS semiannual_adjustments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		half INTEGER NOT NULL CHECK (half IN (1, 2)),
		normal_hours TEXT NOT NULL DEFAULT '0',
		accumulated_overtime_hours TEXT NOT NULL DEFAULT '0',
		compensatory_units TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_employee_year
		ON semiannual_adjustments(employee_id, year);
	`

	_, err := db.Exec(schema)
	return err
}
