package api

import (
	"net/http"

	"github.com/NordCoder/Krymon/internal/obs"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type RouterConfig struct {
	CORSOrigins []string
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64
	RateBurst int
	Metrics   prometheus.Registerer
}

func NewRouter(log *zap.Logger, srv *Server, cfg RouterConfig) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = prometheus.DefaultRegisterer
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(instrument(newHTTPMetrics(cfg.Metrics), log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(newIPLimiter(cfg.RateLimit, cfg.RateBurst).middleware)
	}

	r.Get("/service", srv.List)
	r.Post("/service", srv.Add)
	r.Delete("/service/{id}", srv.Delete)

	return obs.HTTPHandler(r, "krymon.api")
}
