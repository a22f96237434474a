// Package api serves burnout predictions over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"burnout-risk/internal/ml"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Options configures the HTTP server.
type Options struct {
	Port           int
	RequestTimeout time.Duration
	// Versions, when set, backs GET /model/versions.
	Versions VersionLister
	// Gatherer feeds GET /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// VersionLister lists registered model versions. *ml.Registry implements it.
type VersionLister interface {
	List() ([]ml.VersionInfo, error)
}

// ModelServer provides HTTP API for model predictions
type ModelServer struct {
	handler *Handler
	server  *http.Server
}

// NewModelServer creates a new HTTP server for model serving
func NewModelServer(predictor *ml.Predictor, store *ml.ModelStore, opts Options) *ModelServer {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	h := NewHandler(predictor, store, opts.Versions)

	return &ModelServer{
		handler: h,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", opts.Port),
			Handler:      NewRouter(h, opts.Gatherer, opts.RequestTimeout),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: opts.RequestTimeout + 5*time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Handler returns the server's routed handler.
func (ms *ModelServer) Handler() http.Handler {
	return ms.server.Handler
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("Starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
