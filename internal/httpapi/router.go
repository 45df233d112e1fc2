// Package httpapi serves builder sessions over a JSON HTTP API.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/DeusData/cypher-builder/internal/metrics"
	"github.com/DeusData/cypher-builder/internal/session"
)

// maxBody caps request bodies (schema documents included).
const maxBody = 4 << 20

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	sessions *session.Manager
	metrics  *metrics.Collector
	origins  []string
}

// NewRouter creates a router. origins lists the CORS allowed origins.
func NewRouter(m *session.Manager, c *metrics.Collector, origins []string) *Router {
	return &Router{sessions: m, metrics: c, origins: origins}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(rt.logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.health)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", rt.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", rt.getSession)
			r.Delete("/", rt.closeSession)
			r.Post("/events", rt.applyEvent)
			r.Post("/schema", rt.setSchema)
			r.Get("/templates", rt.listTemplates)
			r.Post("/templates/{index}", rt.applyTemplate)
			r.Get("/cypher", rt.cypher)
		})
	})

	return router
}

// logger logs each request and counts it by route pattern.
func (rt *Router) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		rt.metrics.Request(r.Method, route, ww.Status())
		slog.Debug("http.request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"sessions": len(rt.sessions.IDs()),
	})
}
