package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dutchbamin/together/api/controllers"
	"github.com/dutchbamin/together/api/middleware"
	"github.com/dutchbamin/together/internal/proxy"
	"github.com/dutchbamin/together/pkg/config"
	"github.com/dutchbamin/together/pkg/logger"
	"github.com/dutchbamin/together/pkg/metrics"
)

// NewRouter assembles the gateway: health probes, Prometheus metrics,
// and the verbatim passthrough to the remote backend.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	proxyHandler *proxy.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, proxyHandler))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/baemin", func(r chi.Router) {
		r.Get("/*", proxyHandler.ServeHTTP)
		r.Post("/*", proxyHandler.ServeHTTP)
		r.Put("/*", proxyHandler.ServeHTTP)
		r.Delete("/*", proxyHandler.ServeHTTP)
	})

	return r
}
