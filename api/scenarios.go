/*
scenarios.go - Demo dataset loaders for testing and demonstrations

PURPOSE:
  Provides pre-built datasets that populate the store with realistic
  attendance data. Each scenario creates employees and a month or a year of
  events that exercise specific rules.

AVAILABLE SCENARIOS:
  payroll-basics:    One fully paid month; the payslip nets 909.38
  vacation-overdraw: More vacation approved than granted; balance -3
  mixed-month:       Every precedence branch in one March, plus an
                     employee without compensation for the payroll batch

HOW SCENARIOS WORK:
 1. Reset the store (clear all data, restart ids)
 2. Seed the default occurrence vocabulary
 3. Create employees
 4. Add daily records, periods, absences and adjustments

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "mixed-month"}

NOTE:
  Scenarios reset the store. Only mount them in development or demos.

SEE ALSO:
  - handlers.go: Report endpoints to look at the loaded data
  - factory/occurrence.go: Default vocabulary
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "payroll-basics",
		Name:        "Payroll Basics",
		Description: "January 2025: 20 worked days, 10 overtime hours, 1000 base salary",
	},
	{
		ID:          "vacation-overdraw",
		Name:        "Vacation Overdraw",
		Description: "2025: 13 approved vacation days against a 10-day entitlement",
	},
	{
		ID:          "mixed-month",
		Name:        "Mixed Month",
		Description: "March 2025: vacation, leave, absences, shifts and an unknown type",
	},
}

type scenarioLoader func(ctx context.Context, h *Handler, types map[string]int64) error

var scenarioLoaders = map[string]scenarioLoader{
	"payroll-basics":    loadPayrollBasics,
	"vacation-overdraw": loadVacationOverdraw,
	"mixed-month":       loadMixedMonth,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listOf(scenarios))
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the store contents with a demo dataset.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	ctx := r.Context()

	h.currentScenario = ""
	types, err := h.resetAndSeed(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reset store", err)
		return
	}
	if err := load(ctx, h, types); err != nil {
		h.writeDomainError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every record and reseeds the vocabulary.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if _, err := h.resetAndSeed(r.Context()); err != nil {
		h.writeDomainError(w, r, "Failed to reset store", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "reset"})
}

// resetAndSeed returns the seeded type ids by code.
func (h *Handler) resetAndSeed(ctx context.Context) (map[string]int64, error) {
	if err := h.Store.Reset(ctx); err != nil {
		return nil, err
	}
	if _, err := h.Occurrences.Seed(ctx, h.Store.OccurrenceTypes(), h.Occurrences.DefaultOccurrenceTypes()); err != nil {
		return nil, err
	}
	stored, err := h.Store.OccurrenceTypes().Fetch(ctx, generic.Filter{})
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(stored))
	for _, ot := range stored {
		ids[ot.Code] = ot.ID
	}
	return ids, nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fullCompensation(base, stdHours string) attendance.Compensation {
	return attendance.Compensation{
		BaseMonthlySalary:    generic.Set(dec(base)),
		StandardMonthlyHours: generic.Set(dec(stdHours)),
		OvertimeRate50:       generic.Set(dec("0.5")),
		IncomeTaxRate:        generic.Set(dec("0.15")),
		SocialSecurityRate:   generic.Set(dec("0.11")),
		DailyMealSubsidy:     generic.Set(dec("5")),
	}
}

func loadPayrollBasics(ctx context.Context, h *Handler, types map[string]int64) error {
	empID, err := h.employees.repo.Insert(ctx, attendance.Employee{
		Name:         "Ana Silva",
		Department:   "Operations",
		Position:     "Operator",
		HireDate:     generic.NewTimePoint(2023, time.March, 1),
		Compensation: fullCompensation("1000", "160"),
	})
	if err != nil {
		return err
	}

	// The first 20 weekdays of January, 8h each; two of them carry 5h overtime.
	day := generic.NewTimePoint(2025, time.January, 1)
	for worked := 0; worked < 20; day = day.AddDays(1) {
		if day.IsWeekend() {
			continue
		}
		overtime := decimal.Zero
		if worked == 4 || worked == 9 {
			overtime = dec("5")
		}
		if _, err := h.records.repo.Insert(ctx, attendance.DailyRecord{
			EmployeeID:       empID,
			Date:             day,
			OccurrenceTypeID: types["D"],
			WorkedHours:      dec("8"),
			OvertimeHours:    overtime,
			AbsenceHours:     decimal.Zero,
		}); err != nil {
			return err
		}
		worked++
	}
	return nil
}

func loadVacationOverdraw(ctx context.Context, h *Handler, types map[string]int64) error {
	entitlement := 10
	empID, err := h.employees.repo.Insert(ctx, attendance.Employee{
		Name:               "Bruno Costa",
		Department:         "Operations",
		Position:           "Technician",
		HireDate:           generic.NewTimePoint(2020, time.September, 15),
		Compensation:       fullCompensation("1200", "160"),
		AnnualVacationDays: &entitlement,
	})
	if err != nil {
		return err
	}

	vacations := []attendance.VacationPeriod{
		{EmployeeID: empID, Start: generic.NewTimePoint(2025, time.July, 1), End: generic.NewTimePoint(2025, time.July, 13), Approved: true, Notes: "Summer"},
		{EmployeeID: empID, Start: generic.NewTimePoint(2025, time.August, 1), End: generic.NewTimePoint(2025, time.August, 5), Approved: false, Notes: "Requested"},
	}
	for _, v := range vacations {
		if _, err := h.vacations.repo.Insert(ctx, v); err != nil {
			return err
		}
	}

	adjustments := []attendance.SemiannualAdjustment{
		{EmployeeID: empID, Year: 2025, Half: 1, NormalHours: dec("960"), AccumulatedOvertimeHours: dec("12.5"), CompensatoryUnits: dec("1")},
		{EmployeeID: empID, Year: 2025, Half: 2, NormalHours: dec("900"), AccumulatedOvertimeHours: dec("4"), CompensatoryUnits: dec("0.5")},
	}
	for _, a := range adjustments {
		if _, err := h.adjustments.repo.Insert(ctx, a); err != nil {
			return err
		}
	}

	for d := 14; d <= 18; d++ {
		if _, err := h.records.repo.Insert(ctx, attendance.DailyRecord{
			EmployeeID:       empID,
			Date:             generic.NewTimePoint(2025, time.July, d),
			OccurrenceTypeID: types["N"],
			WorkedHours:      dec("12"),
			OvertimeHours:    decimal.Zero,
			AbsenceHours:     decimal.Zero,
		}); err != nil {
			return err
		}
	}
	return nil
}

func loadMixedMonth(ctx context.Context, h *Handler, types map[string]int64) error {
	carla, err := h.employees.repo.Insert(ctx, attendance.Employee{
		Name:         "Carla Mendes",
		Department:   "Maintenance",
		Position:     "Electrician",
		HireDate:     generic.NewTimePoint(2022, time.January, 10),
		Compensation: fullCompensation("1400", "168"),
	})
	if err != nil {
		return err
	}
	// No compensation: the payroll batch lists this employee as a failure.
	if _, err := h.employees.repo.Insert(ctx, attendance.Employee{
		Name:       "Duarte Rocha",
		Department: "Maintenance",
		Position:   "Apprentice",
	}); err != nil {
		return err
	}

	mar := func(d int) generic.TimePoint { return generic.NewTimePoint(2025, time.March, d) }

	if _, err := h.vacations.repo.Insert(ctx, attendance.VacationPeriod{EmployeeID: carla, Start: mar(3), End: mar(7), Approved: true}); err != nil {
		return err
	}
	if _, err := h.leaves.repo.Insert(ctx, attendance.LeavePeriod{EmployeeID: carla, Start: mar(10), End: mar(11), Reason: "medical", Approved: true}); err != nil {
		return err
	}

	absences := []attendance.AbsenceRecord{
		{EmployeeID: carla, Date: mar(12), Reason: "appointment", Justified: true, AbsenceHours: dec("8"), Approved: true},
		{EmployeeID: carla, Date: mar(13), Justified: false, AbsenceHours: dec("4"), Approved: true},
		{EmployeeID: carla, Date: mar(14), Reason: "pending", Justified: true, AbsenceHours: dec("8"), Approved: false},
	}
	for _, a := range absences {
		if _, err := h.absences.repo.Insert(ctx, a); err != nil {
			return err
		}
	}

	records := []attendance.DailyRecord{
		// Inside the vacation: the vacation wins the day.
		{EmployeeID: carla, Date: mar(4), OccurrenceTypeID: types["D"], WorkedHours: dec("12")},
		// The unapproved absence does not block the record.
		{EmployeeID: carla, Date: mar(14), OccurrenceTypeID: types["D"], WorkedHours: dec("12")},
		// A type that is not in the vocabulary shows the fallback glyph.
		{EmployeeID: carla, Date: mar(17), OccurrenceTypeID: 9999, WorkedHours: dec("6")},
		{EmployeeID: carla, Date: mar(18), OccurrenceTypeID: types["N"], WorkedHours: dec("12")},
		{EmployeeID: carla, Date: mar(19), OccurrenceTypeID: types["N"], WorkedHours: dec("12")},
		{EmployeeID: carla, Date: mar(20), OccurrenceTypeID: types["NT"], WorkedHours: dec("12"), OvertimeHours: dec("2")},
	}
	for _, rec := range records {
		if _, err := h.records.repo.Insert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
