// Package httpapi serves the protocol operations over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"curiospace/internal/protocol"
	"curiospace/internal/space"
)

// Operations is the protocol surface the API exposes.
type Operations interface {
	GenerateSubject(ctx context.Context) (protocol.SubjectResult, error)
	GenerateSubjectFromItems(ctx context.Context, items []string) (protocol.SubjectResult, error)
	GenerateAxes(ctx context.Context, req protocol.AxesRequest) (protocol.AxesResult, error)
	Manifest(ctx context.Context, req protocol.ManifestRequest) (space.Manifestation, error)
	Place(ctx context.Context, req protocol.PlaceRequest) (protocol.Placement, error)
}

type Options struct {
	AllowedOrigins []string
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Router struct {
	ops    Operations
	opts   Options
	logger *zap.Logger
}

func NewRouter(ops Operations, opts Options, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{ops: ops, opts: opts, logger: logger}
}

func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	h := &handler{ops: rt.ops, logger: rt.logger}
	router.Route("/api", func(r chi.Router) {
		r.Post("/generate-subject", h.generateSubject)
		r.Post("/generate-subject-from-items", h.generateSubjectFromItems)
		r.Post("/generate-axes", h.generateAxes)
		r.Post("/manifest-item", h.manifestItem)
		r.Post("/place-item", h.placeItem)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
