/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request, echoed in error logs
  4. CORS:       Cross-origin requests for a frontend

ROUTE GROUPS:
  /api/employees/*         Employees plus payslip / attendance / balance
  /api/occurrence-types/*  Attendance vocabulary
  /api/daily-records/*     Per-day records (PUT / upserts)
  /api/vacations/*         Vacation periods
  /api/leaves/*            Leave periods
  /api/absences/*          Single-day absences
  /api/adjustments/*       Semiannual overtime adjustments
  /api/reports/*           Department-wide batches
  /api/import/*            Spreadsheet and CSV imports
  /api/scenarios/*         Demo datasets (only when enabled)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions tunes the router per deployment.
type RouterOptions struct {
	AllowedOrigins []string
	// Scenarios mounts /api/scenarios, which can wipe the store.
	Scenarios bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Run-ID"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		})

		r.Route("/employees", func(r chi.Router) {
			h.employees.mount(r)
			r.Get("/{id}/payslip", h.GetPayslip)
			r.Get("/{id}/attendance", h.GetAttendance)
			r.Get("/{id}/balance", h.GetBalance)
		})

		r.Route("/occurrence-types", h.types.mount)

		r.Route("/daily-records", func(r chi.Router) {
			h.records.mount(r)
			r.Put("/", h.UpsertDailyRecord)
		})

		r.Route("/vacations", h.vacations.mount)
		r.Route("/leaves", h.leaves.mount)
		r.Route("/absences", h.absences.mount)
		r.Route("/adjustments", h.adjustments.mount)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/grid", h.GridReport)
			r.Get("/payslips", h.PayslipsReport)
			r.Get("/balances", h.BalancesReport)
			r.Get("/occurrences", h.OccurrencesReport)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/schedule", h.ImportSchedule)
			r.Post("/identifiers", h.ImportIdentifiers)
		})

		if opts.Scenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}
