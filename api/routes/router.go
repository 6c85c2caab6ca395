package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/goldbuy-backend/api/controllers"
	ticketcontrollers "github.com/angelmondragon/goldbuy-backend/api/controllers/tickets"
	"github.com/angelmondragon/goldbuy-backend/api/middleware"
	"github.com/angelmondragon/goldbuy-backend/internal/tickets"
	"github.com/angelmondragon/goldbuy-backend/pkg/config"
	"github.com/angelmondragon/goldbuy-backend/pkg/db"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
	"github.com/angelmondragon/goldbuy-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. redisClient and metricsHandler may be nil;
// without redis, Idempotency-Key replay is disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ticketService tickets.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	deps := []controllers.Dependency{{Name: "db", Pinger: dbP}}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/tickets", func(r chi.Router) {
		r.Use(middleware.RequireActor(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/", ticketcontrollers.Create(ticketService, logg))
		r.Get("/by-number/{ticketNumber}", ticketcontrollers.GetByNumber(ticketService, logg))

		r.Route("/{ticketId}", func(r chi.Router) {
			r.Get("/", ticketcontrollers.Get(ticketService, logg))
			r.Get("/totals", ticketcontrollers.Totals(ticketService, logg))
			r.Get("/audit", ticketcontrollers.Audit(ticketService, logg))
			r.Put("/items", ticketcontrollers.UpsertItem(ticketService, logg))
			r.Delete("/items/{itemId}", ticketcontrollers.RemoveItem(ticketService, logg))
			r.Put("/pricing", ticketcontrollers.SetPricing(ticketService, logg))
			r.Post("/transitions", ticketcontrollers.Transition(ticketService, logg))
			r.Post("/payments", ticketcontrollers.RecordPayment(ticketService, logg))
			r.Put("/disposition", ticketcontrollers.SetDisposition(ticketService, logg))
		})
	})

	return r
}
