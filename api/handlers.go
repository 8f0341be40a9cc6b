/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to the domain packages.

ENDPOINTS:
  Records (CRUD, see resource.go):
    /api/employees, /api/occurrence-types, /api/daily-records,
    /api/vacations, /api/leaves, /api/absences, /api/adjustments

  Per employee:
    GET /api/employees/{id}/payslip?year=&month=
    GET /api/employees/{id}/attendance?year=&month=
    GET /api/employees/{id}/balance?year=

  Reports (department optional, format=csv for a spreadsheet-friendly body):
    GET /api/reports/grid?year=&month=&department=
    GET /api/reports/payslips?year=&month=&department=
    GET /api/reports/balances?year=&department=
    GET /api/reports/occurrences?year=&month=&department=

  Import:
    POST /api/import/schedule?year=   xlsx body or multipart "file"
    POST /api/import/identifiers      CSV body or multipart "file"

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:   Record access
  - Runner:  Payslip / grid / balance batches
  - Agg:     Per-employee attendance views

ERROR HANDLING:
  Errors are returned as JSON with a status picked from the error category:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Occurrence type still referenced
  - 422: Employee compensation incomplete
  - 503: Store unavailable
  - 500: Anything else

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - resource.go: Generic CRUD handlers
  - scenarios.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/balance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/importer"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/report"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures the computations behind the handlers.
type Options struct {
	Engine              attendance.Config
	Payroll             payroll.Settings
	DefaultVacationDays int
	Logger              *zap.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       attendance.Store
	Agg         *attendance.Aggregator
	Tracker     *balance.Tracker
	Runner      *report.Runner
	Occurrences *factory.OccurrenceFactory

	logger *zap.Logger

	employees   *resource[attendance.Employee]
	types       *resource[attendance.OccurrenceType]
	records     *resource[attendance.DailyRecord]
	vacations   *resource[attendance.VacationPeriod]
	leaves      *resource[attendance.LeavePeriod]
	absences    *resource[attendance.AbsenceRecord]
	adjustments *resource[attendance.SemiannualAdjustment]

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the engine over store.
func NewHandler(store attendance.Store, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	source := attendance.NewStoreSource(store)
	agg := attendance.NewAggregator(source, opts.Engine, logger)
	tracker := balance.NewTracker(source, opts.DefaultVacationDays)

	h := &Handler{
		Store:       store,
		Agg:         agg,
		Tracker:     tracker,
		Runner:      report.NewRunner(agg, payroll.NewCalculator(opts.Payroll), tracker, logger),
		Occurrences: factory.NewOccurrenceFactory(),
		logger:      logger,
	}

	h.employees = newResource(h, "employee", store.Employees())
	h.types = newResource(h, "occurrence type", store.OccurrenceTypes())
	h.types.remove = func(r *http.Request, id int64) (bool, error) {
		return store.DeleteOccurrenceType(r.Context(), id, r.URL.Query().Get("force") == "true")
	}
	h.records = newResource(h, "daily record", store.DailyRecords())
	h.vacations = newResource(h, "vacation", store.Vacations())
	h.leaves = newResource(h, "leave", store.Leaves())
	h.absences = newResource(h, "absence", store.Absences())
	h.adjustments = newResource(h, "adjustment", store.Adjustments())
	return h
}

// =============================================================================
// DAILY RECORD UPSERT
// =============================================================================

// UpsertDailyRecord creates or replaces the record of (employee_id, date).
// PUT /api/daily-records
func (h *Handler) UpsertDailyRecord(w http.ResponseWriter, r *http.Request) {
	var rec attendance.DailyRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := rec.Validate(); err != nil {
		h.writeDomainError(w, r, "Invalid daily record", err)
		return
	}

	id, created, err := h.Store.UpsertDailyRecord(r.Context(), rec)
	if err != nil {
		h.writeDomainError(w, r, "Failed to save daily record", err)
		return
	}
	saved, err := h.Store.DailyRecords().Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load daily record", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, UpsertResponse{Record: saved, Created: created})
}

// =============================================================================
// EMPLOYEE COMPUTATIONS
// =============================================================================

// GetPayslip computes one employee's payslip for a month.
// GET /api/employees/{id}/payslip?year=&month=
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}

	slip, err := h.Runner.Payslip(r.Context(), emp, year, month)
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute payslip", err)
		return
	}
	writeJSON(w, http.StatusOK, slip)
}

// GetAttendance returns the resolved days and totals of a month.
// GET /api/employees/{id}/attendance?year=&month=
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}

	totals, err := h.Agg.AggregateMonth(r.Context(), emp.ID, year, month)
	if err != nil {
		h.writeDomainError(w, r, "Failed to aggregate month", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(totals))
}

// GetBalance returns the annual vacation and overtime balance.
// GET /api/employees/{id}/balance?year=
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}
	year, err := yearParam(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid year", err)
		return
	}

	bal, err := h.Tracker.ComputeAnnualBalance(r.Context(), emp, year)
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (h *Handler) employeeFromPath(w http.ResponseWriter, r *http.Request) (attendance.Employee, bool) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid employee id", err)
		return attendance.Employee{}, false
	}
	emp, err := h.Store.Employees().Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Employee not found", err)
		return attendance.Employee{}, false
	}
	return emp, true
}

// =============================================================================
// REPORTS
// =============================================================================

// GridReport returns the monthly attendance grid.
// GET /api/reports/grid?year=&month=&department=
func (h *Handler) GridReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}
	batch, err := h.Runner.Grid(r.Context(), year, month, r.URL.Query().Get("department"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to build grid", err)
		return
	}
	writeBatch(w, r, batch)
}

// PayslipsReport runs payroll over a department. Employees with incomplete
// compensation are listed under failures; the rest of the batch still runs.
// GET /api/reports/payslips?year=&month=&department=
func (h *Handler) PayslipsReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}
	batch, err := h.Runner.Payslips(r.Context(), year, month, r.URL.Query().Get("department"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to run payroll", err)
		return
	}
	writeBatch(w, r, batch)
}

// BalancesReport returns every employee's annual balance.
// GET /api/reports/balances?year=&department=
func (h *Handler) BalancesReport(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid year", err)
		return
	}
	batch, err := h.Runner.Balances(r.Context(), year, r.URL.Query().Get("department"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute balances", err)
		return
	}
	writeBatch(w, r, batch)
}

// OccurrencesReport returns hours grouped by occurrence type.
// GET /api/reports/occurrences?year=&month=&department=
func (h *Handler) OccurrencesReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}
	rows, err := h.Runner.OccurrenceHours(r.Context(), year, month, r.URL.Query().Get("department"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to group hours", err)
		return
	}
	if wantsCSV(r) {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, listOf(rows))
}

func writeBatch[T report.Row](w http.ResponseWriter, r *http.Request, batch *report.BatchResult[T]) {
	if wantsCSV(r) {
		w.Header().Set("X-Run-ID", batch.RunID)
		writeCSV(w, batch.Rows)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

// writeCSV writes the rows with a header line. An empty report is a bare
// 200 with no lines.
func writeCSV[T report.Row](w http.ResponseWriter, rows []T) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	for i, row := range rows {
		if i == 0 {
			_ = cw.Write(row.Columns())
		}
		_ = cw.Write(row.Values())
	}
	cw.Flush()
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportSchedule loads a yearly roster spreadsheet.
// POST /api/import/schedule?year=
func (h *Handler) ImportSchedule(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid year", err)
		return
	}
	body, closeBody, err := uploadBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	defer closeBody()

	layout := importer.DefaultScheduleLayout(year)
	layout.Sheet = r.URL.Query().Get("sheet")
	summary, err := importer.NewScheduleImporter(h.Store, h.logger).Import(r.Context(), body, layout)
	if err != nil {
		h.writeDomainError(w, r, "Failed to import schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ImportIdentifiers updates NIF / NISS numbers from a CSV.
// POST /api/import/identifiers
func (h *Handler) ImportIdentifiers(w http.ResponseWriter, r *http.Request) {
	body, closeBody, err := uploadBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	defer closeBody()

	summary, err := importer.NewIdentifierImporter(h.Store, h.logger).Import(r.Context(), body)
	if err != nil {
		h.writeDomainError(w, r, "Failed to import identifiers", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// uploadBody accepts either a multipart form with a "file" part or the raw
// request body.
func uploadBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, func() {}, nil
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &generic.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a record id", raw)}
	}
	return id, nil
}

// yearParam defaults to the current year.
func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		return 0, &generic.ValidationError{Field: "year", Reason: fmt.Sprintf("%q is not a year", raw)}
	}
	return year, nil
}

// yearMonth defaults to the current month.
func yearMonth(r *http.Request) (int, time.Month, error) {
	year, err := yearParam(r)
	if err != nil {
		return 0, 0, err
	}
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return year, time.Now().Month(), nil
	}
	m, err := strconv.Atoi(raw)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, &generic.ValidationError{Field: "month", Reason: fmt.Sprintf("%q is not a month", raw)}
	}
	return year, time.Month(m), nil
}

// filterFromQuery reads employee_id, department, year, from and to.
func filterFromQuery(r *http.Request) (generic.Filter, error) {
	q := r.URL.Query()
	var f generic.Filter

	if raw := q.Get("employee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, &generic.ValidationError{Field: "employee_id", Reason: "must be an integer"}
		}
		f.EmployeeID = id
	}
	f.Department = q.Get("department")
	if q.Get("year") != "" {
		year, err := yearParam(r)
		if err != nil {
			return f, err
		}
		f.Year = year
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			return f, &generic.ValidationError{Field: "from", Reason: "from and to go together"}
		}
		start, err := generic.ParseDate(from)
		if err != nil {
			return f, &generic.ValidationError{Field: "from", Reason: err.Error()}
		}
		end, err := generic.ParseDate(to)
		if err != nil {
			return f, &generic.ValidationError{Field: "to", Reason: err.Error()}
		}
		p := generic.Period{Start: start, End: end}
		if err := p.Validate(); err != nil {
			return f, err
		}
		f.Range = &p
	}
	return f, nil
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps the error taxonomy to HTTP.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, generic.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, generic.ErrInUse):
		return http.StatusConflict, "in_use"
	case errors.Is(err, generic.ErrConfiguration):
		return http.StatusUnprocessableEntity, "configuration"
	case errors.Is(err, generic.ErrDataAccess):
		return http.StatusServiceUnavailable, "data_access"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeDomainError picks the status from the error and attaches the
// structured details clients act on.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: message, Code: code, Details: err.Error()}

	var inUse *generic.InUseError
	var cfgErr *generic.ConfigurationError
	var valErr *generic.ValidationError
	switch {
	case errors.As(err, &inUse):
		resp.Details = map[string]any{"kind": inUse.Kind, "id": inUse.ID, "references": inUse.References}
	case errors.As(err, &cfgErr):
		resp.Details = map[string]any{"employee_id": cfgErr.EmployeeID, "missing": cfgErr.Missing}
	case errors.As(err, &valErr):
		resp.Details = map[string]any{"field": valErr.Field, "reason": valErr.Reason}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(message,
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}
