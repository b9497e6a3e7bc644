/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the booking frontend

ROUTE GROUPS:
  /api/room-types/*     Catalog, availability, calendars
  /api/quotes           Pricing without commitment
  /api/reservations/*   Reservation lifecycle
  /api/admin/*          Staff bookings (discounts), hold expiry
  /api/scenarios/*      Demo scenarios
  /health               Liveness and backend connectivity

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

// DefaultAllowedOrigins are the dev frontend origins.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. A nil
// allowedOrigins uses DefaultAllowedOrigins.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if allowedOrigins == nil {
		allowedOrigins = DefaultAllowedOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location", "Retry-After"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/room-types", func(r chi.Router) {
			r.Get("/", h.ListRoomTypes)
			r.Post("/", h.SaveRoomType)
			r.Get("/{id}", h.GetRoomType)
			r.Get("/{id}/availability", h.GetAvailability)
			r.Get("/{id}/calendar", h.GetCalendar)
		})

		r.Post("/quotes", h.CreateQuote)

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", h.CreateReservation)
			r.Get("/{ref}", h.GetReservation)
			r.Patch("/{ref}", h.UpdateReservation)
			r.Delete("/{ref}", h.DeleteReservation)
			r.Post("/{ref}/confirm", h.ConfirmReservation)
			r.Post("/{ref}/cancel", h.CancelReservation)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reservations", h.CreateAdminReservation)
			r.Post("/expire-holds", h.TriggerHoldExpiry)
			r.Get("/hold-expiry", h.GetHoldExpiry)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
