package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/handler"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/middleware"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/metrics"
)

type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Staff    *handler.StaffHandler
	Bookings *handler.BookingHandler
	Cleaning *handler.CleaningHandler
	Rooms    *handler.RoomHandler
}

// NewRouter wires HTTP routes and middleware.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	gate *middleware.AuthMiddleware,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.Recover(logger))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	admin := []domain.Role{domain.RoleAdmin}

	r.Get("/health", h.Health.Health)
	r.Get("/health/live", h.Health.Live)
	r.Get("/health/ready", h.Health.Ready)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/rooms", h.Rooms.ListAvailable)

		api.Route("/bookings", func(b chi.Router) {
			b.Get("/", h.Bookings.ListForGuest)
			if cfg.BookingRateLimit > 0 {
				b.With(httprate.LimitByIP(cfg.BookingRateLimit, time.Minute)).Post("/", h.Bookings.Create)
			} else {
				b.Post("/", h.Bookings.Create)
			}
		})

		api.Route("/admin", func(a chi.Router) {
			a.Post("/login", h.Auth.Login)
			a.Post("/logout", h.Auth.Logout)
			a.Get("/session", h.Auth.Session)

			a.Route("/cleaning", func(c chi.Router) {
				c.Get("/", gate.RequireAuthenticated(h.Cleaning.List))
				c.Post("/", gate.RequireAuthenticated(h.Cleaning.Create))
				c.Get("/templates", gate.RequireAuthenticated(h.Cleaning.Templates))
				c.Patch("/{id}", gate.RequireAuthenticated(h.Cleaning.Update))
				c.Delete("/{id}", gate.RequireAuthenticated(h.Cleaning.Delete))
				c.Patch("/{id}/checklist/{itemId}", gate.RequireAuthenticated(h.Cleaning.SetChecklistItem))
			})

			a.Group(func(ar chi.Router) {
				ar.Use(gate.Require(admin...))

				ar.Get("/users", h.Staff.List)
				ar.Post("/users", h.Staff.Create)
				ar.Get("/users/{id}", h.Staff.Get)
				ar.Patch("/users/{id}", h.Staff.Update)
				ar.Delete("/users/{id}", h.Staff.Delete)

				ar.Get("/bookings", h.Bookings.List)
				ar.Put("/bookings", h.Bookings.UpdateStatusForm)
				ar.Get("/bookings/export", h.Bookings.Export)
				ar.Patch("/bookings/{id}", h.Bookings.UpdateStatus)

				ar.Get("/rooms", h.Rooms.List)
				ar.Post("/rooms", h.Rooms.Create)
				ar.Patch("/rooms/{id}", h.Rooms.Update)
				ar.Delete("/rooms/{id}", h.Rooms.Delete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
	})

	return r
}
