// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package parrot

import (
	"context"
	"sync"
	"time"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/api"
	"github.com/telekom/parrot/pkg/config"
	"github.com/telekom/parrot/pkg/telemetry"
	"github.com/telekom/parrot/pkg/tracker"
	"github.com/telekom/parrot/pkg/transport"
)

const shutdownTimeout = time.Second * 90

// Parrot is the main struct of the parrot application
type Parrot struct {
	// config is the startup configuration of the parrot
	config *config.Config
	// api is the parrot's API
	api api.API
	// telemetry is used to initialize tracing and collect metrics
	telemetry telemetry.Provider
	// transport is the reflector transport delivering peer events
	transport *transport.HTTP
	// tracker is the span correlation core
	tracker *tracker.Tracker
	// cErr is used to handle non-recoverable errors of the parrot components
	cErr chan error
	// cDone is used to signal that the parrot was shut down because of an error
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
}

// New creates a new parrot from a given config
func New(cfg *config.Config) (*Parrot, error) {
	m := telemetry.New(cfg.Telemetry)
	tp := transport.NewHTTP(cfg.Transport)

	trk, err := tracker.New(cfg.Tracker, tp)
	if err != nil {
		return nil, err
	}
	m.GetRegistry().MustRegister(trk.GetMetricCollectors()...)

	return &Parrot{
		config:    cfg,
		api:       api.New(cfg.Api, trk, m.GetRegistry()),
		telemetry: m,
		transport: tp,
		tracker:   trk,
		cErr:      make(chan error, 1),
		cDone:     make(chan struct{}, 1),
		shutOnce:  sync.Once{},
	}, nil
}

// Run starts the parrot
func (p *Parrot) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	if p.config.HasTelemetry() {
		if err := p.telemetry.InitTracing(ctx); err != nil {
			return err
		}
	}

	go func() {
		p.cErr <- p.tracker.Run(ctx)
	}()
	go func() {
		p.cErr <- p.api.Run(ctx)
	}()

	if peer := p.config.Tracker.TargetPeer; peer != "" {
		go func() {
			if err := p.transport.Connect(ctx, transport.PeerID(peer)); err != nil {
				log.ErrorContext(ctx, "Failed to connect to target peer", "peer", peer, "error", err)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			p.shutdown(ctx)
		case err := <-p.cErr:
			if err != nil {
				log.Error("Non-recoverable error in parrot component", "error", err)
				p.shutdown(ctx)
			}
		case <-p.cDone:
			log.InfoContext(ctx, "Parrot was shut down")
			return ErrFinalShutdown
		}
	}
}

// shutdown shuts down the parrot and all managed components gracefully.
func (p *Parrot) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	p.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down parrot")
		var sErrs ErrShutdown
		p.tracker.Shutdown()
		sErrs.errTransport = p.transport.Close()
		sErrs.errAPI = p.api.Shutdown(ctx)
		sErrs.errTelemetry = p.telemetry.Shutdown(ctx)

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "errors", sErrs)
		}

		// Signal that shutdown is complete
		p.cDone <- struct{}{}
	})
}
