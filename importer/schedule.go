/*
Package importer loads external HR files into an attendance store.

PURPOSE:
  Two one-shot imports used when onboarding a roster:
  - A yearly shift schedule spreadsheet (xlsx): one row per employee, one
    column per day, each cell an occurrence code
  - A ';'-separated CSV with tax and social security numbers

SCHEDULE LAYOUT (defaults):
  Row 12, from column D: day headers (1..31 repeating, or real dates)
  Column B, from row 13: employee names; the first empty name ends the sheet
  Cells:                 occurrence codes, matched case-insensitively

DATE HEADERS:
  A header that is a plain day number belongs to the current month. When a
  day number below 10 follows a larger or equal one, or the day would not fit
  the month, the month advances. Date serials and "d/m" or "d/m/yyyy" text are
  taken as they are and re-anchor the month.

HOURS:
  A record gets its type's default hours unless the layout overrides the
  code. By default D and N are 12 hours, and F, L and B are 0.

SEE ALSO:
  - identifiers.go: NIF / NISS CSV update
  - cmd/import: Command-line entry point
*/
package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// =============================================================================
// LAYOUT AND SUMMARY
// =============================================================================

// ScheduleLayout says where things are in the spreadsheet. Rows are 1-based
// and columns are letters, as a spreadsheet user would name them.
type ScheduleLayout struct {
	Sheet           string
	Year            int
	DatesRow        int
	NameColumn      string
	FirstDataColumn string
	// HoursOverride replaces the type's default hours for these codes.
	HoursOverride map[string]decimal.Decimal
}

// DefaultScheduleLayout is the standard roster layout for the given year.
func DefaultScheduleLayout(year int) ScheduleLayout {
	twelve := decimal.NewFromInt(12)
	return ScheduleLayout{
		Year:            year,
		DatesRow:        12,
		NameColumn:      "B",
		FirstDataColumn: "D",
		HoursOverride: map[string]decimal.Decimal{
			"D": twelve,
			"N": twelve,
			"F": decimal.Zero,
			"L": decimal.Zero,
			"B": decimal.Zero,
		},
	}
}

// SkippedCell is a code cell that produced no record.
type SkippedCell struct {
	Cell     string `json:"cell"`
	Employee string `json:"employee"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// ImportSummary reports what a schedule import changed.
type ImportSummary struct {
	BatchID          string        `json:"batch_id"`
	Days             int           `json:"days"`
	Inserted         int           `json:"inserted"`
	Updated          int           `json:"updated"`
	CreatedEmployees []string      `json:"created_employees"`
	Skipped          []SkippedCell `json:"skipped"`
}

// =============================================================================
// SCHEDULE IMPORTER
// =============================================================================

type ScheduleImporter struct {
	store  attendance.Store
	logger *zap.Logger
}

func NewScheduleImporter(store attendance.Store, logger *zap.Logger) *ScheduleImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleImporter{store: store, logger: logger}
}

type dayColumn struct {
	col  int // 0-based
	date generic.TimePoint
}

// Import reads the workbook and upserts one daily record per recognised
// code cell. Unknown codes are skipped; missing employees are created.
func (im *ScheduleImporter) Import(ctx context.Context, r io.Reader, layout ScheduleLayout) (*ImportSummary, error) {
	layout = withLayoutDefaults(layout)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &generic.ValidationError{Field: "file", Reason: "not a readable spreadsheet: " + err.Error()}
	}
	defer f.Close()

	sheet := layout.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &generic.ValidationError{Field: "sheet", Reason: err.Error()}
	}

	nameCol, err := excelize.ColumnNameToNumber(layout.NameColumn)
	if err != nil {
		return nil, &generic.ValidationError{Field: "name_column", Reason: err.Error()}
	}
	dataCol, err := excelize.ColumnNameToNumber(layout.FirstDataColumn)
	if err != nil {
		return nil, &generic.ValidationError{Field: "first_data_column", Reason: err.Error()}
	}
	if layout.DatesRow < 1 || layout.DatesRow > len(rows) {
		return nil, &generic.ValidationError{Field: "dates_row", Reason: fmt.Sprintf("row %d is empty", layout.DatesRow)}
	}

	days := parseDateHeader(rows[layout.DatesRow-1], dataCol-1, layout.Year)
	if len(days) == 0 {
		return nil, &generic.ValidationError{Field: "dates_row", Reason: "no dates found"}
	}

	types, err := im.store.OccurrenceTypes().Fetch(ctx, generic.Filter{})
	if err != nil {
		return nil, generic.WrapDataAccess("list occurrence types", err)
	}
	byCode := make(map[string]attendance.OccurrenceType, len(types))
	for _, ot := range types {
		byCode[strings.ToUpper(ot.Code)] = ot
	}

	employees, err := im.store.Employees().Fetch(ctx, generic.Filter{})
	if err != nil {
		return nil, generic.WrapDataAccess("list employees", err)
	}
	byName := make(map[string]int64, len(employees))
	for _, e := range employees {
		byName[e.Name] = e.ID
	}

	summary := &ImportSummary{
		BatchID:          uuid.NewString(),
		Days:             len(days),
		CreatedEmployees: []string{},
		Skipped:          []SkippedCell{},
	}
	log := im.logger.With(zap.String("batch_id", summary.BatchID), zap.String("sheet", sheet))

	for r := layout.DatesRow; r < len(rows); r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[r]
		if len(row) < nameCol || strings.TrimSpace(row[nameCol-1]) == "" {
			break
		}
		name := strings.TrimSpace(row[nameCol-1])

		empID, ok := byName[name]
		if !ok {
			empID, err = im.createEmployee(ctx, name, summary)
			if err != nil {
				return nil, err
			}
			byName[name] = empID
		}

		for _, d := range days {
			if d.col >= len(row) {
				break
			}
			code := strings.ToUpper(strings.TrimSpace(row[d.col]))
			if code == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(d.col+1, r+1)

			ot, ok := byCode[code]
			if !ok {
				log.Warn("unknown occurrence code", zap.String("cell", cell), zap.String("code", code))
				summary.Skipped = append(summary.Skipped, SkippedCell{Cell: cell, Employee: name, Code: code, Reason: "unknown occurrence code"})
				continue
			}

			worked := ot.DefaultHours
			if h, ok := layout.HoursOverride[code]; ok {
				worked = h
			}
			_, created, err := im.store.UpsertDailyRecord(ctx, attendance.DailyRecord{
				EmployeeID:       empID,
				Date:             d.date,
				OccurrenceTypeID: ot.ID,
				WorkedHours:      worked,
				OvertimeHours:    decimal.Zero,
				AbsenceHours:     decimal.Zero,
			})
			if err != nil {
				return nil, err
			}
			if created {
				summary.Inserted++
			} else {
				summary.Updated++
			}
		}
	}

	log.Info("schedule imported",
		zap.Int("days", summary.Days),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("created_employees", len(summary.CreatedEmployees)),
		zap.Int("skipped", len(summary.Skipped)),
	)
	return summary, nil
}

func (im *ScheduleImporter) createEmployee(ctx context.Context, name string, summary *ImportSummary) (int64, error) {
	id, err := im.store.Employees().Insert(ctx, attendance.Employee{Name: name})
	if err != nil {
		return 0, err
	}
	emp, err := im.store.Employees().Get(ctx, id)
	if err != nil {
		return 0, err
	}
	summary.CreatedEmployees = append(summary.CreatedEmployees, fmt.Sprintf("%s (%s)", emp.Name, emp.Number))
	return id, nil
}

func withLayoutDefaults(l ScheduleLayout) ScheduleLayout {
	def := DefaultScheduleLayout(l.Year)
	if l.Year == 0 {
		l.Year = time.Now().Year()
	}
	if l.DatesRow == 0 {
		l.DatesRow = def.DatesRow
	}
	if l.NameColumn == "" {
		l.NameColumn = def.NameColumn
	}
	if l.FirstDataColumn == "" {
		l.FirstDataColumn = def.FirstDataColumn
	}
	if l.HoursOverride == nil {
		l.HoursOverride = def.HoursOverride
	}
	return l
}

// =============================================================================
// DATE HEADER
// =============================================================================

// parseDateHeader reads header cells from column start until the first cell
// that is neither a day number nor a date.
func parseDateHeader(header []string, start, year int) []dayColumn {
	var (
		days    []dayColumn
		month   = time.January
		lastDay = 0
	)

	for c := start; c < len(header); c++ {
		raw := strings.TrimSpace(header[c])
		if raw == "" {
			break
		}

		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			if v > 31 {
				t, err := excelize.ExcelDateToTime(v, false)
				if err != nil {
					break
				}
				tp := generic.FromTime(t)
				days = append(days, dayColumn{col: c, date: tp})
				month, lastDay = tp.Month(), tp.Day()
				continue
			}

			day := int(v)
			if day < 1 {
				break
			}
			if lastDay > 0 && day <= lastDay && day < 10 {
				month = nextMonth(month)
			}
			if day > generic.DaysInMonth(year, month) {
				month = nextMonth(month)
			}
			days = append(days, dayColumn{col: c, date: generic.NewTimePoint(year, month, day)})
			lastDay = day
			continue
		}

		tp, ok := parseDayMonth(raw, year)
		if !ok {
			break
		}
		days = append(days, dayColumn{col: c, date: tp})
		month, lastDay = tp.Month(), tp.Day()
	}
	return days
}

func nextMonth(m time.Month) time.Month {
	if m == time.December {
		return time.January
	}
	return m + 1
}

// parseDayMonth accepts "d/m" in the import year and "d/m/yyyy".
func parseDayMonth(s string, year int) (generic.TimePoint, bool) {
	if t, err := time.Parse("2/1/2006", strings.Fields(s)[0]); err == nil {
		return generic.FromTime(t), true
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return generic.TimePoint{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > generic.DaysInMonth(year, time.Month(month)) {
		return generic.TimePoint{}, false
	}
	return generic.NewTimePoint(year, time.Month(month), day), true
}
