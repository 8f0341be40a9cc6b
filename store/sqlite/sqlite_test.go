package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func hours(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func insertEmployee(t *testing.T, store *sqlite.Store, name string) int64 {
	t.Helper()
	id, err := store.Employees().Insert(context.Background(), attendance.Employee{Name: name, Department: "Ops"})
	require.NoError(t, err)
	return id
}

func insertType(t *testing.T, store *sqlite.Store, code string) int64 {
	t.Helper()
	id, err := store.OccurrenceTypes().Insert(context.Background(), attendance.OccurrenceType{
		Code: code, Description: code + " shift", Glyph: code, DefaultHours: hours("8"), IsShift: true,
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	days := 25
	id, err := store.Employees().Insert(ctx, attendance.Employee{
		Name:       "Ana Silva",
		Department: "Ops",
		TaxID:      "123456789",
		HireDate:   generic.MustDate("2020-03-01"),
		Compensation: attendance.Compensation{
			BaseMonthlySalary: generic.Set(hours("1234.56")),
			IncomeTaxRate:     generic.Set(hours("0.15")),
		},
		AnnualVacationDays: &days,
	})
	require.NoError(t, err)

	got, err := store.Employees().Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "F001", got.Number)
	assert.Equal(t, "Ana Silva", got.Name)
	assert.Equal(t, "123456789", got.TaxID)
	assert.True(t, got.HireDate.Equal(generic.MustDate("2020-03-01")))
	assert.True(t, got.Compensation.BaseMonthlySalary.Decimal.Equal(hours("1234.56")))
	assert.False(t, got.Compensation.DailyMealSubsidy.Valid)
	require.NotNil(t, got.AnnualVacationDays)
	assert.Equal(t, 25, *got.AnnualVacationDays)
	assert.Equal(t, []string{"daily_meal_subsidy", "social_security_rate", "standard_monthly_hours"}, got.Compensation.Missing())
}

func TestEmployees_SequentialNumbers(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	a := insertEmployee(t, store, "Ana Silva")
	b := insertEmployee(t, store, "Bruno Dias")

	ea, err := store.Employees().Get(ctx, a)
	require.NoError(t, err)
	eb, err := store.Employees().Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "F001", ea.Number)
	assert.Equal(t, "F002", eb.Number)

	// Updating without a number keeps the assigned one.
	ok, err := store.Employees().Update(ctx, a, attendance.Employee{Name: "Ana M. Silva"})
	require.NoError(t, err)
	assert.True(t, ok)
	ea, err = store.Employees().Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "F001", ea.Number)
	assert.Equal(t, "Ana M. Silva", ea.Name)
}

func TestEmployees_FetchByDepartmentSortedByName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, e := range []attendance.Employee{
		{Name: "Zé Lopes", Department: "Ops"},
		{Name: "Ana Silva", Department: "Ops"},
		{Name: "Carla Reis", Department: "Sales"},
	} {
		_, err := store.Employees().Insert(ctx, e)
		require.NoError(t, err)
	}

	ops, err := store.Employees().Fetch(ctx, generic.Filter{Department: "Ops"})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "Ana Silva", ops[0].Name)
	assert.Equal(t, "Zé Lopes", ops[1].Name)
}

func TestEmployees_GetMissing(t *testing.T) {
	_, err := newStore(t).Employees().Get(context.Background(), 42)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	var nf *generic.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(42), nf.ID)
}

func TestEmployees_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	shift := insertType(t, store, "D")

	_, _, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{EmployeeID: emp, Date: generic.MustDate("2024-01-02"), OccurrenceTypeID: shift})
	require.NoError(t, err)
	_, err = store.Vacations().Insert(ctx, attendance.VacationPeriod{EmployeeID: emp, Start: generic.MustDate("2024-02-01"), End: generic.MustDate("2024-02-03")})
	require.NoError(t, err)
	_, err = store.Adjustments().Insert(ctx, attendance.SemiannualAdjustment{EmployeeID: emp, Year: 2024, Half: 1})
	require.NoError(t, err)

	ok, err := store.Employees().Delete(ctx, emp)
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := store.DailyRecords().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	assert.Empty(t, records)
	vacations, err := store.Vacations().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	assert.Empty(t, vacations)
	adjustments, err := store.Adjustments().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

// =============================================================================
// DAILY RECORDS
// =============================================================================

func TestUpsertDailyRecord_ReplacesSameDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	day := insertType(t, store, "D")
	night := insertType(t, store, "N")

	id1, created, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{
		EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: day, WorkedHours: hours("8"),
	})
	require.NoError(t, err)
	assert.True(t, created)

	id2, created, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{
		EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: night, WorkedHours: hours("7.5"),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	records, err := store.DailyRecords().Fetch(ctx, generic.ForEmployee(emp))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, night, records[0].OccurrenceTypeID)
	assert.True(t, records[0].WorkedHours.Equal(hours("7.5")))
}

func TestDailyRecords_SecondInsertOverwrites(t *testing.T) {
	// GIVEN: A record for (employee, date)
	// WHEN: Inserting another record for the same pair
	// THEN: The first is overwritten in place

	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	day := insertType(t, store, "D")
	night := insertType(t, store, "N")

	id1, err := store.DailyRecords().Insert(ctx, attendance.DailyRecord{
		EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: day, WorkedHours: hours("8"),
	})
	require.NoError(t, err)
	id2, err := store.DailyRecords().Insert(ctx, attendance.DailyRecord{
		EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: night, WorkedHours: hours("12"),
	})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	records, err := store.DailyRecords().Fetch(ctx, generic.ForEmployee(emp))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, night, records[0].OccurrenceTypeID)
	assert.True(t, records[0].WorkedHours.Equal(hours("12")))
}

func TestDailyRecords_UpdateOntoTakenDateRejected(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	day := insertType(t, store, "D")

	_, err := store.DailyRecords().Insert(ctx, attendance.DailyRecord{EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: day})
	require.NoError(t, err)
	id, err := store.DailyRecords().Insert(ctx, attendance.DailyRecord{EmployeeID: emp, Date: generic.MustDate("2024-03-05"), OccurrenceTypeID: day})
	require.NoError(t, err)

	_, err = store.DailyRecords().Update(ctx, id, attendance.DailyRecord{EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: day})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestDailyRecords_UnknownEmployeeRejected(t *testing.T) {
	store := newStore(t)
	_, _, err := store.UpsertDailyRecord(context.Background(), attendance.DailyRecord{
		EmployeeID: 99, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: 1,
	})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestDailyRecords_RangeFilter(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	day := insertType(t, store, "D")

	for _, d := range []string{"2024-01-31", "2024-02-01", "2024-02-29", "2024-03-01"} {
		_, _, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{EmployeeID: emp, Date: generic.MustDate(d), OccurrenceTypeID: day})
		require.NoError(t, err)
	}

	feb := generic.MonthPeriod(2024, time.February)
	records, err := store.DailyRecords().Fetch(ctx, generic.Filter{EmployeeID: emp, Range: &feb})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-02-01", records[0].Date.String())
	assert.Equal(t, "2024-02-29", records[1].Date.String())
}

// =============================================================================
// PERIODS AND ABSENCES
// =============================================================================

func TestVacations_OverlapFilter(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")

	for _, p := range [][2]string{
		{"2024-01-25", "2024-02-05"}, // straddles into February
		{"2024-03-01", "2024-03-02"},
		{"2023-12-20", "2024-01-03"},
	} {
		_, err := store.Vacations().Insert(ctx, attendance.VacationPeriod{
			EmployeeID: emp, Start: generic.MustDate(p[0]), End: generic.MustDate(p[1]), Approved: true,
		})
		require.NoError(t, err)
	}

	feb := generic.MonthPeriod(2024, time.February)
	got, err := store.Vacations().Fetch(ctx, generic.Filter{EmployeeID: emp, Range: &feb})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Approved)
	assert.Equal(t, "2024-01-25", got[0].Start.String())

	byYear, err := store.Vacations().Fetch(ctx, generic.Filter{EmployeeID: emp, Year: 2023})
	require.NoError(t, err)
	assert.Len(t, byYear, 1)
}

func TestAbsences_OnePerDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")

	abs := attendance.AbsenceRecord{EmployeeID: emp, Date: generic.MustDate("2024-05-02"), AbsenceHours: hours("8"), Justified: true}
	_, err := store.Absences().Insert(ctx, abs)
	require.NoError(t, err)

	_, err = store.Absences().Insert(ctx, abs)
	require.ErrorIs(t, err, generic.ErrValidation)

	got, err := store.Absences().Fetch(ctx, generic.ForEmployee(emp))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Justified)
	assert.False(t, got[0].Approved)
}

// =============================================================================
// OCCURRENCE TYPES
// =============================================================================

func TestDeleteOccurrenceType_InUse(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	day := insertType(t, store, "D")

	_, _, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{EmployeeID: emp, Date: generic.MustDate("2024-03-04"), OccurrenceTypeID: day})
	require.NoError(t, err)

	ok, err := store.DeleteOccurrenceType(ctx, day, false)
	assert.False(t, ok)
	var inUse *generic.InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 1, inUse.References)

	ok, err = store.DeleteOccurrenceType(ctx, day, true)
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := store.DailyRecords().Fetch(ctx, generic.ForEmployee(emp))
	require.NoError(t, err)
	assert.Len(t, records, 1, "records survive a forced delete")

	_, err = store.OccurrenceTypes().Get(ctx, day)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestOccurrenceTypes_DuplicateCode(t *testing.T) {
	store := newStore(t)
	insertType(t, store, "D")
	_, err := store.OccurrenceTypes().Insert(context.Background(), attendance.OccurrenceType{Code: "D", Glyph: "D"})

	var vErr *generic.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "code", vErr.Field)
}

// =============================================================================
// RESET AND END-TO-END
// =============================================================================

func TestReset_RestartsIDs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	insertEmployee(t, store, "Ana Silva")
	insertEmployee(t, store, "Bruno Dias")

	require.NoError(t, store.Reset(ctx))

	all, err := store.Employees().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	id := insertEmployee(t, store, "Carla Reis")
	assert.Equal(t, int64(1), id)
}

func TestAggregateMonth_OverSQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	emp := insertEmployee(t, store, "Ana Silva")
	day := insertType(t, store, "D")

	_, _, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{
		EmployeeID: emp, Date: generic.MustDate("2024-02-05"), OccurrenceTypeID: day, WorkedHours: hours("8"),
	})
	require.NoError(t, err)
	_, err = store.Vacations().Insert(ctx, attendance.VacationPeriod{
		EmployeeID: emp, Start: generic.MustDate("2024-01-25"), End: generic.MustDate("2024-02-05"), Approved: true,
	})
	require.NoError(t, err)

	agg := attendance.NewAggregator(attendance.NewStoreSource(store), attendance.Config{}, nil)
	totals, err := agg.AggregateMonth(ctx, emp, 2024, time.February)
	require.NoError(t, err)

	assert.Equal(t, 5, totals.DaysVacation)
	assert.Equal(t, "F", totals.PerDayCodes[5])
	assert.Equal(t, "-", totals.PerDayCodes[6])
	assert.True(t, totals.TotalWorkedHours.IsZero(), "vacation wins the day")
}
