package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/postgres"
	"go.uber.org/zap/zaptest"
)

// newStore connects to ATTENDANCE_TEST_POSTGRES_DSN and empties it.
func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("ATTENDANCE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ATTENDANCE_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := postgres.New(ctx, postgres.Options{DSN: dsn, MaxConns: 4}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDialect_Rebind(t *testing.T) {
	got := postgres.Dialect.Rebind("SELECT id FROM t WHERE a = ? AND b = ?")
	assert.Equal(t, "SELECT id FROM t WHERE a = $1 AND b = $2", got)
}

func TestPostgres_RoundTripAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	empID, err := store.Employees().Insert(ctx, attendance.Employee{
		Name:     "Ana Silva",
		HireDate: generic.MustDate("2021-09-01"),
		Compensation: attendance.Compensation{
			BaseMonthlySalary: generic.Set(decimal.RequireFromString("1500.50")),
		},
	})
	require.NoError(t, err)

	emp, err := store.Employees().Get(ctx, empID)
	require.NoError(t, err)
	assert.Equal(t, "F001", emp.Number)
	assert.True(t, emp.HireDate.Equal(generic.MustDate("2021-09-01")))
	assert.True(t, emp.Compensation.BaseMonthlySalary.Decimal.Equal(decimal.RequireFromString("1500.5")))

	typeID, err := store.OccurrenceTypes().Insert(ctx, attendance.OccurrenceType{Code: "D", Glyph: "D", DefaultHours: decimal.NewFromInt(8)})
	require.NoError(t, err)

	rec := attendance.DailyRecord{EmployeeID: empID, Date: generic.MustDate("2024-02-29"), OccurrenceTypeID: typeID, WorkedHours: decimal.NewFromInt(8)}
	_, created, err := store.UpsertDailyRecord(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)

	rec.WorkedHours = decimal.RequireFromString("6.5")
	_, created, err = store.UpsertDailyRecord(ctx, rec)
	require.NoError(t, err)
	assert.False(t, created)

	feb := generic.MonthPeriod(2024, time.February)
	records, err := store.DailyRecords().Fetch(ctx, generic.Filter{EmployeeID: empID, Range: &feb})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].WorkedHours.Equal(decimal.RequireFromString("6.5")))

	_, err = store.DeleteOccurrenceType(ctx, typeID, false)
	assert.ErrorIs(t, err, generic.ErrInUse)
}
