package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pharmwatch/pharmwatch-backend/api/controllers"
	"github.com/pharmwatch/pharmwatch-backend/api/middleware"
	"github.com/pharmwatch/pharmwatch-backend/internal/query"
	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	querySvc *query.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", controllers.SearchItems(querySvc, logg))
		r.Get("/items/{barcode}", controllers.GetItem(querySvc, logg))
		r.Get("/items/{barcode}/history", controllers.GetItemHistory(querySvc, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
