package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// COLUMN CODECS
// =============================================================================

// dateArg binds a date as 'YYYY-MM-DD'; the zero date binds NULL.
func dateArg(tp generic.TimePoint) any {
	if tp.IsZero() {
		return nil
	}
	return tp.String()
}

// dateCol scans text, DATE or NULL into a TimePoint.
type dateCol struct{ dst *generic.TimePoint }

func (d dateCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.dst = generic.TimePoint{}
	case time.Time:
		*d.dst = generic.FromTime(v)
	case string:
		tp, err := generic.ParseDate(v)
		if err != nil {
			return err
		}
		*d.dst = tp
	case []byte:
		tp, err := generic.ParseDate(string(v))
		if err != nil {
			return err
		}
		*d.dst = tp
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func employeeTable(s *Store) *table[attendance.Employee] {
	return &table[attendance.Employee]{
		s:    s,
		kind: "employee",
		name: "employees",
		columns: []string{
			"number", "name", "department", "job_title", "email", "phone",
			"tax_id", "social_security_id", "hire_date",
			"base_monthly_salary", "daily_meal_subsidy", "income_tax_rate",
			"social_security_rate", "standard_monthly_hours",
			"overtime_rate_50", "overtime_rate_100", "annual_vacation_days",
		},
		orderBy: "name, id",
		unique:  "number",
		values: func(e attendance.Employee) []any {
			c := e.Compensation
			return []any{
				e.Number, e.Name, nullString(e.Department), nullString(e.Position),
				nullString(e.Email), nullString(e.Phone), nullString(e.TaxID),
				nullString(e.SocialSecurityID), dateArg(e.HireDate),
				c.BaseMonthlySalary, c.DailyMealSubsidy, c.IncomeTaxRate,
				c.SocialSecurityRate, c.StandardMonthlyHours,
				c.OvertimeRate50, c.OvertimeRate100, nullInt(e.AnnualVacationDays),
			}
		},
		scan: func(row scanner) (attendance.Employee, error) {
			var (
				e                                         attendance.Employee
				dept, pos, email, phone, taxID, socialSec sql.NullString
				vacationDays                              sql.NullInt64
			)
			c := &e.Compensation
			err := row.Scan(&e.ID, &e.Number, &e.Name, &dept, &pos, &email, &phone,
				&taxID, &socialSec, dateCol{&e.HireDate},
				&c.BaseMonthlySalary, &c.DailyMealSubsidy, &c.IncomeTaxRate,
				&c.SocialSecurityRate, &c.StandardMonthlyHours,
				&c.OvertimeRate50, &c.OvertimeRate100, &vacationDays)
			if err != nil {
				return e, err
			}
			e.Department, e.Position, e.Email, e.Phone = dept.String, pos.String, email.String, phone.String
			e.TaxID, e.SocialSecurityID = taxID.String, socialSec.String
			if vacationDays.Valid {
				days := int(vacationDays.Int64)
				e.AnnualVacationDays = &days
			}
			return e, nil
		},
		where: func(f generic.Filter, w *where) {
			if f.EmployeeID != 0 {
				w.add("id = ?", f.EmployeeID)
			}
			if f.Department != "" {
				w.add("department = ?", f.Department)
			}
		},
		beforeInsert: func(ctx context.Context, q querier, e *attendance.Employee) error {
			if e.Number != "" {
				return nil
			}
			rows, err := q.QueryContext(ctx, "SELECT number FROM employees")
			if err != nil {
				return err
			}
			defer rows.Close()
			var numbers []string
			for rows.Next() {
				var n string
				if err := rows.Scan(&n); err != nil {
					return err
				}
				numbers = append(numbers, n)
			}
			if err := rows.Err(); err != nil {
				return err
			}
			e.Number = attendance.NextEmployeeNumber(numbers)
			return nil
		},
		beforeUpdate: func(ctx context.Context, q querier, id int64, e *attendance.Employee) error {
			if e.Number != "" {
				return nil
			}
			err := q.QueryRowContext(ctx, s.dialect.Rebind("SELECT number FROM employees WHERE id = ?"), id).Scan(&e.Number)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		},
	}
}

// =============================================================================
// OCCURRENCE TYPES
// =============================================================================

func occurrenceTypeTable(s *Store) *table[attendance.OccurrenceType] {
	return &table[attendance.OccurrenceType]{
		s:    s,
		kind: "occurrence type",
		name: "occurrence_types",
		columns: []string{
			"code", "description", "default_hours", "glyph", "is_shift",
			"implies_overtime", "is_absence_type", "counts_toward_fots", "is_compensatory_leave",
		},
		orderBy: "code, id",
		unique:  "code",
		values: func(o attendance.OccurrenceType) []any {
			return []any{
				o.Code, o.Description, o.DefaultHours, o.Glyph, o.IsShift,
				o.ImpliesOvertime, o.IsAbsenceType, o.CountsTowardFOTS, o.IsCompensatoryLeave,
			}
		},
		scan: func(row scanner) (attendance.OccurrenceType, error) {
			var o attendance.OccurrenceType
			err := row.Scan(&o.ID, &o.Code, &o.Description, &o.DefaultHours, &o.Glyph, &o.IsShift,
				&o.ImpliesOvertime, &o.IsAbsenceType, &o.CountsTowardFOTS, &o.IsCompensatoryLeave)
			return o, err
		},
		beforeDelete: func(ctx context.Context, q querier, id int64) error {
			var refs int
			err := q.QueryRowContext(ctx,
				s.dialect.Rebind("SELECT COUNT(*) FROM daily_records WHERE occurrence_type_id = ?"), id,
			).Scan(&refs)
			if err != nil {
				return err
			}
			if refs > 0 {
				return &generic.InUseError{Kind: "occurrence type", ID: id, References: refs}
			}
			return nil
		},
	}
}

// =============================================================================
// DAILY RECORDS AND ABSENCES
// =============================================================================

func dailyRecordTable(s *Store) *table[attendance.DailyRecord] {
	return &table[attendance.DailyRecord]{
		s:    s,
		kind: "daily record",
		name: "daily_records",
		columns: []string{
			"employee_id", "work_date", "occurrence_type_id",
			"worked_hours", "overtime_hours", "absence_hours", "notes",
		},
		orderBy:  "work_date, id",
		unique:   "date",
		conflict: []string{"employee_id", "work_date"},
		values: func(r attendance.DailyRecord) []any {
			return []any{
				r.EmployeeID, dateArg(r.Date), r.OccurrenceTypeID,
				r.WorkedHours, r.OvertimeHours, r.AbsenceHours, nullString(r.Notes),
			}
		},
		scan: func(row scanner) (attendance.DailyRecord, error) {
			var (
				r     attendance.DailyRecord
				notes sql.NullString
			)
			err := row.Scan(&r.ID, &r.EmployeeID, dateCol{&r.Date}, &r.OccurrenceTypeID,
				&r.WorkedHours, &r.OvertimeHours, &r.AbsenceHours, &notes)
			r.Notes = notes.String
			return r, err
		},
		where: func(f generic.Filter, w *where) {
			w.employee(f)
			w.day("work_date", f)
		},
	}
}

func absenceTable(s *Store) *table[attendance.AbsenceRecord] {
	return &table[attendance.AbsenceRecord]{
		s:       s,
		kind:    "absence",
		name:    "absences",
		columns: []string{"employee_id", "absence_date", "reason", "justified", "absence_hours", "approved"},
		orderBy: "absence_date, id",
		unique:  "date",
		values: func(a attendance.AbsenceRecord) []any {
			return []any{a.EmployeeID, dateArg(a.Date), nullString(a.Reason), a.Justified, a.AbsenceHours, a.Approved}
		},
		scan: func(row scanner) (attendance.AbsenceRecord, error) {
			var (
				a      attendance.AbsenceRecord
				reason sql.NullString
			)
			err := row.Scan(&a.ID, &a.EmployeeID, dateCol{&a.Date}, &reason, &a.Justified, &a.AbsenceHours, &a.Approved)
			a.Reason = reason.String
			return a, err
		},
		where: func(f generic.Filter, w *where) {
			w.employee(f)
			w.day("absence_date", f)
		},
	}
}

// =============================================================================
// VACATION AND LEAVE PERIODS
// =============================================================================

func vacationTable(s *Store) *table[attendance.VacationPeriod] {
	return &table[attendance.VacationPeriod]{
		s:       s,
		kind:    "vacation",
		name:    "vacations",
		columns: []string{"employee_id", "start_date", "end_date", "notes", "approved"},
		orderBy: "start_date, id",
		values: func(v attendance.VacationPeriod) []any {
			return []any{v.EmployeeID, dateArg(v.Start), dateArg(v.End), nullString(v.Notes), v.Approved}
		},
		scan: func(row scanner) (attendance.VacationPeriod, error) {
			var (
				v     attendance.VacationPeriod
				notes sql.NullString
			)
			err := row.Scan(&v.ID, &v.EmployeeID, dateCol{&v.Start}, dateCol{&v.End}, &notes, &v.Approved)
			v.Notes = notes.String
			return v, err
		},
		where: func(f generic.Filter, w *where) {
			w.employee(f)
			w.period(f)
		},
	}
}

func leaveTable(s *Store) *table[attendance.LeavePeriod] {
	return &table[attendance.LeavePeriod]{
		s:       s,
		kind:    "leave",
		name:    "leaves",
		columns: []string{"employee_id", "start_date", "end_date", "reason", "notes", "approved"},
		orderBy: "start_date, id",
		values: func(l attendance.LeavePeriod) []any {
			return []any{l.EmployeeID, dateArg(l.Start), dateArg(l.End), nullString(l.Reason), nullString(l.Notes), l.Approved}
		},
		scan: func(row scanner) (attendance.LeavePeriod, error) {
			var (
				l             attendance.LeavePeriod
				reason, notes sql.NullString
			)
			err := row.Scan(&l.ID, &l.EmployeeID, dateCol{&l.Start}, dateCol{&l.End}, &reason, &notes, &l.Approved)
			l.Reason, l.Notes = reason.String, notes.String
			return l, err
		},
		where: func(f generic.Filter, w *where) {
			w.employee(f)
			w.period(f)
		},
	}
}

// =============================================================================
// SEMIANNUAL ADJUSTMENTS
// =============================================================================

func adjustmentTable(s *Store) *table[attendance.SemiannualAdjustment] {
	return &table[attendance.SemiannualAdjustment]{
		s:    s,
		kind: "semiannual adjustment",
		name: "semiannual_adjustments",
		columns: []string{
			"employee_id", "year", "half", "normal_hours",
			"accumulated_overtime_hours", "compensatory_units",
		},
		orderBy: "year, half, id",
		values: func(a attendance.SemiannualAdjustment) []any {
			return []any{a.EmployeeID, a.Year, a.Half, a.NormalHours, a.AccumulatedOvertimeHours, a.CompensatoryUnits}
		},
		scan: func(row scanner) (attendance.SemiannualAdjustment, error) {
			var a attendance.SemiannualAdjustment
			err := row.Scan(&a.ID, &a.EmployeeID, &a.Year, &a.Half, &a.NormalHours,
				&a.AccumulatedOvertimeHours, &a.CompensatoryUnits)
			return a, err
		},
		where: func(f generic.Filter, w *where) {
			w.employee(f)
			if f.Year != 0 {
				w.add("year = ?", f.Year)
			}
		},
	}
}
