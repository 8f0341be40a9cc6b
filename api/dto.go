/*
dto.go - Data Transfer Objects for the HTTP API

PURPOSE:
  Request and response shapes that are not plain domain records. CRUD
  endpoints exchange the attendance entities directly (they carry their
  own JSON tags); everything here is composed for a specific endpoint.

NAMING CONVENTIONS:
  - *DTO:      Response types returned to clients
  - *Request:  Request body types from clients
  - *Response: Envelopes (lists, errors, status)

DATES AND NUMBERS:
  Dates are "YYYY-MM-DD". Hours and money are decimal strings so no value
  goes through a float.

SEE ALSO:
  - handlers.go: Uses these types
  - attendance/entities.go: Entity JSON
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// ListResponse wraps every collection.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func listOf[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// StatusResponse acknowledges a write without a body of its own.
type StatusResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
}

// UpsertResponse is returned by PUT /api/daily-records.
type UpsertResponse struct {
	Record  attendance.DailyRecord `json:"record"`
	Created bool                   `json:"created"`
}

// DayDTO is one resolved day of an attendance view.
type DayDTO struct {
	Date          generic.TimePoint `json:"date"`
	Code          string            `json:"code"`
	Branch        string            `json:"branch"`
	WorkedHours   decimal.Decimal   `json:"worked_hours"`
	OvertimeHours decimal.Decimal   `json:"overtime_hours"`
	AbsenceHours  decimal.Decimal   `json:"absence_hours"`
}

// AttendanceDTO is GET /api/employees/{id}/attendance.
type AttendanceDTO struct {
	EmployeeID int64    `json:"employee_id"`
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	Days       []DayDTO `json:"days"`

	TotalWorkedHours    decimal.Decimal `json:"total_worked_hours"`
	TotalOvertimeHours  decimal.Decimal `json:"total_overtime_hours"`
	TotalAbsenceHours   decimal.Decimal `json:"total_absence_hours"`
	DaysVacation        int             `json:"days_vacation"`
	DaysLeave           int             `json:"days_leave"`
	DaysAbsence         int             `json:"days_absence"`
	DaysRecorded        int             `json:"days_recorded"`
	DistinctWorkedDays  int             `json:"distinct_worked_days"`
	VacationDaysSpanned int             `json:"vacation_days_spanned"`
	LeaveDaysSpanned    int             `json:"leave_days_spanned"`
}

func toAttendanceDTO(t *attendance.MonthTotals) AttendanceDTO {
	days := make([]DayDTO, len(t.Days))
	for i, d := range t.Days {
		days[i] = DayDTO{
			Date:          d.Date,
			Code:          d.Code,
			Branch:        d.Branch.String(),
			WorkedHours:   d.WorkedHours,
			OvertimeHours: d.OvertimeHours,
			AbsenceHours:  d.AbsenceHours,
		}
	}
	return AttendanceDTO{
		EmployeeID:          t.EmployeeID,
		Year:                t.Year,
		Month:               int(t.Month),
		Days:                days,
		TotalWorkedHours:    t.TotalWorkedHours,
		TotalOvertimeHours:  t.TotalOvertimeHours,
		TotalAbsenceHours:   t.TotalAbsenceHours,
		DaysVacation:        t.DaysVacation,
		DaysLeave:           t.DaysLeave,
		DaysAbsence:         t.DaysAbsence,
		DaysRecorded:        t.DaysRecorded,
		DistinctWorkedDays:  t.DistinctWorkedDays,
		VacationDaysSpanned: t.VacationDaysSpanned,
		LeaveDaysSpanned:    t.LeaveDaysSpanned,
	}
}

// ScenarioDTO represents a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
