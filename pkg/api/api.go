// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the control surface of the parrot: the target peer,
// the desired transmission count and a read-only status view for
// presentation layers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/tracker"
	"github.com/telekom/parrot/pkg/transport"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Controller is the part of the tracker the api drives
type Controller interface {
	// Status returns a consistent snapshot of the tracker state
	Status() tracker.Status
	// SetTarget selects the peer future transmissions are sent to
	SetTarget(peer transport.PeerID)
	// SetDesired adjusts the desired transmission count
	SetDesired(ctx context.Context, n int)
}

// API is the api server of the parrot
type API interface {
	// Run serves the api until the context is canceled
	Run(ctx context.Context) error
	// Shutdown gracefully shuts the api server down
	Shutdown(ctx context.Context) error
}

var _ API = (*api)(nil)

type api struct {
	server     *http.Server
	router     chi.Router
	controller Controller
	registry   *prometheus.Registry
}

// New creates a new api serving the given controller
func New(cfg Config, c Controller, registry *prometheus.Registry) API {
	r := chi.NewRouter()
	return &api{
		server:     &http.Server{Addr: cfg.ListeningAddress, Handler: r, ReadHeaderTimeout: readHeaderTimeout},
		router:     r,
		controller: c,
		registry:   registry,
	}
}

// Run serves the api until the context is canceled
func (a *api) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	a.routes(ctx)

	cErr := make(chan error, 1)
	go func() {
		cErr <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if err := a.Shutdown(ctx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-cErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.ErrorContext(ctx, "Api server stopped", "error", err)
		return err
	}
}

// Shutdown gracefully shuts the api server down
func (a *api) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrApiShutdown, err)
	}
	return nil
}

// routes registers the handlers of the api
func (a *api) routes(ctx context.Context) {
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(logger.Middleware(ctx))

	a.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	a.router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	a.router.Get("/v1/status", a.handleStatus)
	a.router.Get("/v1/status/schema", a.handleSchema)
	a.router.Put("/v1/target", a.handleTarget)
	a.router.Put("/v1/transmissions", a.handleTransmissions)
}

// handleStatus returns the tracker status snapshot
func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.controller.Status())
}

// handleSchema returns the openapi schema of the status document
func (a *api) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := StatusSchema()
	if err != nil {
		log := logger.FromContext(r.Context())
		log.ErrorContext(r.Context(), "Failed to generate status schema", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, schema)
}

// targetRequest is the body of a target selection request
type targetRequest struct {
	Peer string `json:"peer"`
}

// handleTarget selects the target peer
func (a *api) handleTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	a.controller.SetTarget(transport.PeerID(req.Peer))
	w.WriteHeader(http.StatusOK)
}

// transmissionsRequest is the body of a desired count adjustment
type transmissionsRequest struct {
	Desired int `json:"desired"`
}

// handleTransmissions adjusts the desired transmission count
func (a *api) handleTransmissions(w http.ResponseWriter, r *http.Request) {
	var req transmissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Desired < 0 {
		http.Error(w, "desired count must be equal or above 0", http.StatusBadRequest)
		return
	}
	a.controller.SetDesired(r.Context(), req.Desired)
	w.WriteHeader(http.StatusOK)
}

// StatusSchema returns an openapi3.SchemaRef of the status document
func StatusSchema() (*openapi3.SchemaRef, error) {
	schema, err := openapi3gen.NewSchemaRefForValue(tracker.Status{}, openapi3.Schemas{})
	if err != nil {
		return nil, ErrCreateOpenapiSchema{name: "status", err: err}
	}
	return schema, nil
}

// writeJSON writes v as the JSON response body
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.FromContext(r.Context())
		log.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}
