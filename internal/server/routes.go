package server

import (
	"log/slog"
	"net/http"

	"github.com/maauso/atis-broadcast/internal/metrics"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// Metrics instruments every route and serves GET /metrics. Nil disables both.
	Metrics *metrics.Metrics
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET /health", "/health", h.Health},
		{"POST /generate-audio", "/generate-audio", h.GenerateAudio},
		{"POST /broadcasts", "/broadcasts", h.CreateBroadcast},
		{"GET /broadcasts", "/broadcasts", h.ListBroadcasts},
		{"GET /broadcasts/{id}", "/broadcasts/{id}", h.GetBroadcast},
		{"DELETE /broadcasts/{id}", "/broadcasts/{id}", h.DeleteBroadcast},
		{"GET /broadcasts/{id}/audio", "/broadcasts/{id}/audio", h.GetBroadcastAudio},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, MetricsMiddleware(cfg.Metrics, rt.endpoint)(rt.handler))
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
