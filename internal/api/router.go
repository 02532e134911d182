// Package api exposes the session engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rcliao/learning-beast/internal/session"
)

// SessionHeader carries the session id on node routes.
const SessionHeader = "X-Session-Id"

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// StartRatePerMinute limits POST /session/start per client IP. 0 disables it.
	StartRatePerMinute int
	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// Handler serves the engine's operations.
type Handler struct {
	engine *session.Engine
	logger *zap.Logger
}

// NewHandler creates a Handler. logger may be nil.
func NewHandler(engine *session.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// NewRouter builds the full HTTP surface with middleware.
func NewRouter(engine *session.Engine, logger *zap.Logger, opts Options) http.Handler {
	h := NewHandler(engine, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/session", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.StartRatePerMinute > 0 {
				r.Use(httprate.LimitByIP(opts.StartRatePerMinute, time.Minute))
			}
			r.Post("/start", h.StartSession)
		})
		r.Get("/{sessionID}/question", h.NextQuestion)
		r.Post("/{sessionID}/question/{questionID}", h.AnswerQuestion)
	})

	r.Get("/node/{nodeID}", h.GetNode)
	r.Post("/node/{nodeID}/answer", h.AnswerNode)

	r.Get("/profile/{sessionID}", h.GetProfile)

	return r
}
