package balance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/balance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/memory"
)

func setup(t *testing.T, emp attendance.Employee) (*memory.Store, attendance.Employee) {
	t.Helper()
	store := memory.New()
	id, err := store.Employees().Insert(context.Background(), emp)
	require.NoError(t, err)
	emp, err = store.Employees().Get(context.Background(), id)
	require.NoError(t, err)
	return store, emp
}

func addVacation(t *testing.T, store *memory.Store, empID int64, start, end string, approved bool) {
	t.Helper()
	_, err := store.Vacations().Insert(context.Background(), attendance.VacationPeriod{
		EmployeeID: empID, Start: generic.MustDate(start), End: generic.MustDate(end), Approved: approved,
	})
	require.NoError(t, err)
}

func TestComputeAnnualBalance_OverdrawIsNegative(t *testing.T) {
	// GIVEN: Entitlement of 22 days and 25 approved vacation days in the year
	// WHEN: Computing the balance
	// THEN: Available is -3, not clamped

	store, emp := setup(t, attendance.Employee{Name: "Rui Costa"})
	addVacation(t, store, emp.ID, "2024-07-01", "2024-07-20", true) // 20 days
	addVacation(t, store, emp.ID, "2024-12-27", "2025-01-10", true) // 5 days in 2024
	addVacation(t, store, emp.ID, "2024-03-01", "2024-03-05", false)

	tracker := balance.NewTracker(attendance.NewStoreSource(store), 0)
	bal, err := tracker.ComputeAnnualBalance(context.Background(), emp, 2024)
	require.NoError(t, err)

	assert.Equal(t, 22, bal.VacationEntitlement)
	assert.Equal(t, 25, bal.VacationDaysTaken)
	assert.Equal(t, -3, bal.VacationDaysAvailable)
}

func TestComputeAnnualBalance_EntitlementOverride(t *testing.T) {
	days := 25
	store, emp := setup(t, attendance.Employee{Name: "Rui Costa", AnnualVacationDays: &days})

	bal, err := balance.NewTracker(attendance.NewStoreSource(store), 0).ComputeAnnualBalance(context.Background(), emp, 2024)
	require.NoError(t, err)
	assert.Equal(t, 25, bal.VacationEntitlement)
	assert.Equal(t, 25, bal.VacationDaysAvailable)
}

func TestComputeAnnualBalance_OvertimeFromAdjustmentsOnly(t *testing.T) {
	// GIVEN: Daily overtime in the records and two semiannual checkpoints
	// THEN: Accumulated overtime is the sum of the checkpoints

	ctx := context.Background()
	store, emp := setup(t, attendance.Employee{Name: "Rui Costa"})

	_, _, err := store.UpsertDailyRecord(ctx, attendance.DailyRecord{
		EmployeeID: emp.ID, Date: generic.MustDate("2024-02-01"), OvertimeHours: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	for _, adj := range []attendance.SemiannualAdjustment{
		{EmployeeID: emp.ID, Year: 2024, Half: 1, AccumulatedOvertimeHours: decimal.NewFromInt(12), CompensatoryUnits: decimal.NewFromInt(1)},
		{EmployeeID: emp.ID, Year: 2024, Half: 2, AccumulatedOvertimeHours: decimal.RequireFromString("7.5"), CompensatoryUnits: decimal.NewFromInt(2)},
		{EmployeeID: emp.ID, Year: 2023, Half: 2, AccumulatedOvertimeHours: decimal.NewFromInt(100)},
	} {
		_, err := store.Adjustments().Insert(ctx, adj)
		require.NoError(t, err)
	}

	bal, err := balance.NewTracker(attendance.NewStoreSource(store), 22).ComputeAnnualBalance(ctx, emp, 2024)
	require.NoError(t, err)

	assert.True(t, bal.AccumulatedOvertimeHours.Equal(decimal.RequireFromString("19.5")), "got %s", bal.AccumulatedOvertimeHours)
	assert.True(t, bal.CompensatoryUnits.Equal(decimal.NewFromInt(3)))
}

func TestComputeAnnualBalance_AbsenceAndLeaveDays(t *testing.T) {
	ctx := context.Background()
	store, emp := setup(t, attendance.Employee{Name: "Rui Costa"})

	for _, a := range []attendance.AbsenceRecord{
		{EmployeeID: emp.ID, Date: generic.MustDate("2024-01-10"), Approved: true},
		{EmployeeID: emp.ID, Date: generic.MustDate("2024-05-02"), Approved: true, Justified: true},
		{EmployeeID: emp.ID, Date: generic.MustDate("2024-06-02"), Approved: false},
	} {
		_, err := store.Absences().Insert(ctx, a)
		require.NoError(t, err)
	}
	_, err := store.Leaves().Insert(ctx, attendance.LeavePeriod{
		EmployeeID: emp.ID, Start: generic.MustDate("2024-09-01"), End: generic.MustDate("2024-09-10"), Approved: true,
	})
	require.NoError(t, err)

	bal, err := balance.NewTracker(attendance.NewStoreSource(store), 0).ComputeAnnualBalance(ctx, emp, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, bal.AbsenceDaysInYear)
	assert.Equal(t, 10, bal.LeaveDaysInYear)
}

type brokenSource struct{ attendance.DataSource }

func (brokenSource) ListSemiannualAdjustments(context.Context, int64, int) ([]attendance.SemiannualAdjustment, error) {
	return nil, errors.New("timeout")
}

func TestComputeAnnualBalance_StoreFailure(t *testing.T) {
	store, emp := setup(t, attendance.Employee{Name: "Rui Costa"})
	tracker := balance.NewTracker(brokenSource{attendance.NewStoreSource(store)}, 0)

	bal, err := tracker.ComputeAnnualBalance(context.Background(), emp, 2024)
	assert.Nil(t, bal)
	assert.ErrorIs(t, err, generic.ErrDataAccess)
}
