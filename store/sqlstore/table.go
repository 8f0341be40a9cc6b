package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/attendance-engine/generic"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// table is a Repository over one SQL table with an integer id column.
type table[T any] struct {
	s       *Store
	kind    string
	name    string
	columns []string
	orderBy string
	// unique names the field reported when a unique constraint fails.
	unique string
	// conflict, when set, makes Insert an upsert on these columns.
	conflict []string

	values func(T) []any
	scan   func(scanner) (T, error)
	where  func(generic.Filter, *where)

	beforeInsert func(ctx context.Context, q querier, rec *T) error
	beforeUpdate func(ctx context.Context, q querier, id int64, rec *T) error
	beforeDelete func(ctx context.Context, q querier, id int64) error
}

func (t *table[T]) selectSQL() string {
	return fmt.Sprintf("SELECT id, %s FROM %s", strings.Join(t.columns, ", "), t.name)
}

func (t *table[T]) insertSQL() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), marks)
	if len(t.conflict) > 0 {
		key := make(map[string]bool, len(t.conflict))
		for _, c := range t.conflict {
			key[c] = true
		}
		var sets []string
		for _, c := range t.columns {
			if !key[c] {
				sets = append(sets, c+" = excluded."+c)
			}
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(t.conflict, ", "), strings.Join(sets, ", "))
	}
	return query + " RETURNING id"
}

func (t *table[T]) updateSQL() string {
	sets := make([]string, len(t.columns))
	for i, c := range t.columns {
		sets[i] = c + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))
}

func (t *table[T]) Fetch(ctx context.Context, filter generic.Filter) ([]T, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	w := &where{}
	if t.where != nil {
		t.where(filter, w)
	}
	query := t.selectSQL() + w.String() + " ORDER BY " + t.orderBy

	rows, err := t.s.db.QueryContext(ctx, t.s.dialect.Rebind(query), w.args...)
	if err != nil {
		return nil, generic.WrapDataAccess("list "+t.kind, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, generic.WrapDataAccess("scan "+t.kind, err)
		}
		out = append(out, rec)
	}
	return out, generic.WrapDataAccess("list "+t.kind, rows.Err())
}

func (t *table[T]) Get(ctx context.Context, id int64) (T, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	return t.get(ctx, t.s.db, id)
}

func (t *table[T]) get(ctx context.Context, q querier, id int64) (T, error) {
	row := q.QueryRowContext(ctx, t.s.dialect.Rebind(t.selectSQL()+" WHERE id = ?"), id)
	rec, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, &generic.NotFoundError{Kind: t.kind, ID: id}
	}
	if err != nil {
		var zero T
		return zero, generic.WrapDataAccess("get "+t.kind, err)
	}
	return rec, nil
}

func (t *table[T]) Insert(ctx context.Context, rec T) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	var id int64
	err := t.s.withTx(ctx, func(q querier) error {
		if t.beforeInsert != nil {
			if err := t.beforeInsert(ctx, q, &rec); err != nil {
				return err
			}
		}
		return q.QueryRowContext(ctx, t.s.dialect.Rebind(t.insertSQL()), t.values(rec)...).Scan(&id)
	})
	if err != nil {
		return 0, t.s.translate("insert "+t.kind, t.unique, err)
	}
	return id, nil
}

func (t *table[T]) Update(ctx context.Context, id int64, rec T) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	var affected int64
	err := t.s.withTx(ctx, func(q querier) error {
		if t.beforeUpdate != nil {
			if err := t.beforeUpdate(ctx, q, id, &rec); err != nil {
				return err
			}
		}
		args := append(t.values(rec), id)
		res, err := q.ExecContext(ctx, t.s.dialect.Rebind(t.updateSQL()), args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, t.s.translate("update "+t.kind, t.unique, err)
	}
	return affected > 0, nil
}

func (t *table[T]) Delete(ctx context.Context, id int64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	var affected int64
	err := t.s.withTx(ctx, func(q querier) error {
		if t.beforeDelete != nil {
			if err := t.beforeDelete(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := q.ExecContext(ctx, t.s.dialect.Rebind("DELETE FROM "+t.name+" WHERE id = ?"), id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, t.s.translate("delete "+t.kind, t.unique, err)
	}
	return affected > 0, nil
}

// =============================================================================
// WHERE BUILDER
// =============================================================================

type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) employee(f generic.Filter) {
	if f.EmployeeID != 0 {
		w.add("employee_id = ?", f.EmployeeID)
	}
}

// day filters a single date column by Range and Year.
func (w *where) day(column string, f generic.Filter) {
	if f.Range != nil {
		w.add(column+" >= ? AND "+column+" <= ?", dateArg(f.Range.Start), dateArg(f.Range.End))
	}
	if f.Year != 0 {
		y := generic.YearPeriod(f.Year)
		w.add(column+" >= ? AND "+column+" <= ?", dateArg(y.Start), dateArg(y.End))
	}
}

// period keeps rows whose [start_date, end_date] overlaps the Range or Year.
func (w *where) period(f generic.Filter) {
	if f.Range != nil {
		w.add("start_date <= ? AND end_date >= ?", dateArg(f.Range.End), dateArg(f.Range.Start))
	}
	if f.Year != 0 {
		y := generic.YearPeriod(f.Year)
		w.add("start_date <= ? AND end_date >= ?", dateArg(y.End), dateArg(y.Start))
	}
}
