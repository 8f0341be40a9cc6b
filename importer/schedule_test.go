package importer_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/importer"
	"github.com/warp/attendance-engine/store/memory"
	"github.com/xuri/excelize/v2"
)

func seedTypes(t *testing.T, store *memory.Store) map[string]int64 {
	t.Helper()
	ids := make(map[string]int64)
	for _, ot := range []attendance.OccurrenceType{
		{Code: "D", Glyph: "D", DefaultHours: decimal.NewFromInt(8)},
		{Code: "N", Glyph: "N", DefaultHours: decimal.NewFromInt(8)},
		{Code: "F", Glyph: "F", DefaultHours: decimal.NewFromInt(8)},
		{Code: "T", Glyph: "T", DefaultHours: decimal.NewFromInt(8)},
	} {
		id, err := store.OccurrenceTypes().Insert(context.Background(), ot)
		require.NoError(t, err)
		ids[ot.Code] = id
	}
	return ids
}

// workbook builds a roster: headers on row 12 from D, names in B from row 13.
func workbook(t *testing.T, headers []any, people map[string][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(4+i, 12)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}

	row := 13
	for _, name := range []string{"Ana Silva", "Novo Colega"} {
		codes, ok := people[name]
		if !ok {
			continue
		}
		require.NoError(t, f.SetCellValue(sheet, "B"+itoa(row), name))
		for i, code := range codes {
			if code == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(4+i, row)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, code))
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func itoa(n int) string { return strconv.Itoa(n) }

func TestScheduleImport_UpsertsRecords(t *testing.T) {
	// GIVEN: Headers 30, 31, 1, 2 (month rolls over to February)
	//        Ana exists, Novo Colega does not
	// WHEN: Importing the roster twice
	// THEN: Records carry override or default hours, the unknown code is
	//       skipped, the new employee gets F002 and the rerun only updates

	ctx := context.Background()
	store := memory.New()
	types := seedTypes(t, store)
	_, err := store.Employees().Insert(ctx, attendance.Employee{Name: "Ana Silva"})
	require.NoError(t, err)

	people := map[string][]string{
		"Ana Silva":   {"D", "N", "F", "XX"},
		"Novo Colega": {"d", "", "T"},
	}
	im := importer.NewScheduleImporter(store, nil)

	summary, err := im.Import(ctx, workbook(t, []any{30, 31, 1, 2}, people), importer.DefaultScheduleLayout(2025))
	require.NoError(t, err)

	assert.NotEmpty(t, summary.BatchID)
	assert.Equal(t, 4, summary.Days)
	assert.Equal(t, 5, summary.Inserted)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, []string{"Novo Colega (F002)"}, summary.CreatedEmployees)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, "G13", summary.Skipped[0].Cell)
	assert.Equal(t, "XX", summary.Skipped[0].Code)

	records, err := store.DailyRecords().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	byKey := make(map[string]attendance.DailyRecord)
	for _, r := range records {
		byKey[itoa(int(r.EmployeeID))+"@"+r.Date.String()] = r
	}

	ana := byKey["1@2025-01-30"]
	assert.Equal(t, types["D"], ana.OccurrenceTypeID)
	assert.True(t, ana.WorkedHours.Equal(decimal.NewFromInt(12)), "D is overridden to 12h")
	assert.True(t, byKey["1@2025-02-01"].WorkedHours.IsZero(), "F is overridden to 0h")
	assert.True(t, byKey["2@2025-02-01"].WorkedHours.Equal(decimal.NewFromInt(8)), "T keeps its default")
	assert.Equal(t, types["D"], byKey["2@2025-01-30"].OccurrenceTypeID, "codes are case-insensitive")

	again, err := im.Import(ctx, workbook(t, []any{30, 31, 1, 2}, people), importer.DefaultScheduleLayout(2025))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 5, again.Updated)
	assert.Empty(t, again.CreatedEmployees)
}

func TestScheduleImport_MonthlyGridAfterImport(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedTypes(t, store)

	people := map[string][]string{"Ana Silva": {"N", "N"}}
	_, err := importer.NewScheduleImporter(store, nil).Import(ctx, workbook(t, []any{1, 2}, people), importer.DefaultScheduleLayout(2025))
	require.NoError(t, err)

	emps, err := store.Employees().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	require.Len(t, emps, 1)

	agg := attendance.NewAggregator(attendance.NewStoreSource(store), attendance.Config{}, nil)
	totals, err := agg.AggregateMonth(ctx, emps[0].ID, 2025, time.January)
	require.NoError(t, err)
	assert.Equal(t, "N", totals.PerDayCodes[1])
	assert.Equal(t, "N", totals.PerDayCodes[2])
	assert.Equal(t, "-", totals.PerDayCodes[3])
	assert.True(t, totals.TotalWorkedHours.Equal(decimal.NewFromInt(24)))
}

func TestScheduleImport_RejectsBadInput(t *testing.T) {
	store := memory.New()
	im := importer.NewScheduleImporter(store, nil)

	_, err := im.Import(context.Background(), strings.NewReader("not a workbook"), importer.DefaultScheduleLayout(2025))
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = im.Import(context.Background(), workbook(t, []any{"Turno"}, nil), importer.DefaultScheduleLayout(2025))
	assert.ErrorIs(t, err, generic.ErrValidation)
}
