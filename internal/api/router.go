package api

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyloop/lecture-gateway/internal/observability"
)

// RouterConfig holds the settings the router needs from the environment.
type RouterConfig struct {
	// CorsAllowedOrigins is a comma-separated list of allowed origins.
	// Empty allows all origins (development mode).
	CorsAllowedOrigins string

	// MetricsEnabled exposes /metrics when true.
	MetricsEnabled bool

	// ReadyChecks are probed by /ready.
	ReadyChecks map[string]observability.HealthCheckFunc
}

// SplitOrigins parses the comma-separated origin list, defaulting to "*".
func SplitOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			origins = append(origins, s)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func NewRouter(h *Handler, hub *EventHub, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   SplitOrigins(cfg.CorsAllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", observability.HealthCheckHandler())
	r.Get("/ready", observability.ReadinessHandler(cfg.ReadyChecks))
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/lectures", h.CreateLecture)
		r.Get("/lectures/{id}", h.GetLecture)
		r.Post("/lectures/{id}/speak", h.SpeakLecture)

		r.Post("/speak", h.Speak)
		r.Get("/playback", h.PlaybackState)
	})

	r.Get("/ws/events", hub.HandleWS)

	return r
}
