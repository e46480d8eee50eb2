/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*      Employee and schedule management, timeline reads
  /api/schedules/*      Template preview
  /api/attendance/*     Punch classification and overtime approval
  /api/vacations/*      Date-range validation and registration
  /api/leaves/*         Datetime-range validation and registration
  /api/incapacities/*   Registration, extension, episode reads
  /api/holidays/*       Holiday calendar

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}/timeline", h.GetTimeline)
		})

		// Schedule routes
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/preview", h.PreviewTemplate)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", h.RegisterAttendance)
			r.Post("/overtime", h.ApproveOvertime)
		})

		// Vacation routes
		r.Route("/vacations", func(r chi.Router) {
			r.Post("/validate", h.ValidateVacation)
			r.Post("/", h.RegisterVacation)
		})

		// Leave routes
		r.Route("/leaves", func(r chi.Router) {
			r.Post("/validate", h.ValidateLeave)
			r.Post("/", h.RegisterLeave)
		})

		// Incapacity routes
		r.Route("/incapacities", func(r chi.Router) {
			r.Post("/", h.RegisterIncapacity)
			r.Post("/{group}/extend", h.ExtendIncapacity)
			r.Get("/{group}/episode", h.GetEpisode)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})
	})

	return r
}
