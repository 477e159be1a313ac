// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package tracker contains the span correlation core of parrot. It maps the
// asynchronous peer connectivity, transfer and data events of a transport
// onto a tree of trace spans and keeps a ledger of per-transmission
// round-trip completion.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/probe"
	"github.com/telekom/parrot/pkg/transport"
)

// Config is the configuration of the tracker
type Config struct {
	// TargetPeer is the peer transmissions are dispatched to
	TargetPeer string `yaml:"targetPeer" mapstructure:"targetPeer"`
	// SizeClass is the payload size class of outbound envelopes
	SizeClass probe.SizeClass `yaml:"sizeClass" mapstructure:"sizeClass"`
	// Encoding selects the envelope codec ("json" or "cbor")
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	// PendingTimeout bounds how long a transmission may stay pending
	// before its span is closed and its ledger entry marked failed.
	// A duration of 0 disables the expiry sweep.
	PendingTimeout time.Duration `yaml:"pendingTimeout" mapstructure:"pendingTimeout"`
}

// Validate validates the tracker configuration
func (c *Config) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if c.SizeClass != "" {
		if err := c.SizeClass.Validate(); err != nil {
			log.ErrorContext(ctx, "Invalid size class", "sizeClass", c.SizeClass)
			return err
		}
	}
	if _, err := probe.NewCodec(c.Encoding); err != nil {
		log.ErrorContext(ctx, "Invalid envelope encoding", "encoding", c.Encoding)
		return err
	}
	if c.PendingTimeout < 0 {
		log.ErrorContext(ctx, "The pending timeout should be equal or above 0", "pendingTimeout", c.PendingTimeout)
		return ErrInvalidPendingTimeout
	}
	return nil
}

// Tracker owns the correlation state: the span registry, the transmission
// ledger and the dispatch bookkeeping. All state is mutated either by the
// single Run loop consuming the transport's event queue or by the control
// surface methods, which take the tracker mutex.
type Tracker struct {
	mu        sync.Mutex
	config    Config
	tracer    trace.Tracer
	transport transport.Transport
	registry  *SpanRegistry
	ledger    *Ledger
	metrics   metrics
	codec     probe.Codec

	advertising     spanEntry
	advertisingOpen bool

	target  transport.PeerID
	desired int
	seq     uint64

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a new tracker consuming events from the given transport
func New(cfg Config, t transport.Transport) (*Tracker, error) {
	codec, err := probe.NewCodec(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	if cfg.SizeClass == "" {
		cfg.SizeClass = probe.SizeX1K
	}

	tracer := otel.Tracer("parrot.tracker")
	return &Tracker{
		config:    cfg,
		tracer:    tracer,
		transport: t,
		registry:  NewSpanRegistry(tracer),
		ledger:    NewLedger(),
		metrics:   newMetrics(),
		codec:     codec,
		target:    transport.PeerID(cfg.TargetPeer),
		done:      make(chan struct{}, 1),
	}, nil
}

// Run consumes the transport's event queue until the context is canceled or
// the tracker is shut down. The advertising span covers the whole
// discoverable lifetime of this run.
func (t *Tracker) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	t.startAdvertising(ctx)
	defer t.stopAdvertising()

	var expiry <-chan time.Time
	if t.config.PendingTimeout > 0 {
		ticker := time.NewTicker(t.config.PendingTimeout)
		defer ticker.Stop()
		expiry = ticker.C
	}

	log.InfoContext(ctx, "Starting tracker", "targetPeer", t.target, "sizeClass", t.config.SizeClass)
	for {
		select {
		case <-ctx.Done():
			log.ErrorContext(ctx, "Context canceled", "error", ctx.Err())
			return ctx.Err()
		case <-t.done:
			return nil
		case ev, ok := <-t.transport.Events():
			if !ok {
				log.InfoContext(ctx, "Transport event queue closed")
				return nil
			}
			t.handleEvent(ctx, ev)
		case <-expiry:
			t.expirePending(ctx)
		}
	}
}

// Shutdown stops the run loop
func (t *Tracker) Shutdown() {
	t.doneOnce.Do(func() {
		t.done <- struct{}{}
		close(t.done)
	})
}

// handleEvent routes one transport event to its handler. Events are handled
// one at a time; the mutex only guards against the control surface.
func (t *Tracker) handleEvent(ctx context.Context, ev transport.Event) {
	log := logger.FromContext(ctx)
	switch ev := ev.(type) {
	case transport.PeerStateChanged:
		t.handlePeerState(ctx, ev)
	case transport.DataReceived:
		t.handleData(ctx, ev)
	case transport.TransferStarted:
		t.handleTransferStarted(ctx, ev)
	case transport.TransferFinished:
		t.handleTransferFinished(ctx, ev)
	case transport.InvitationReceived:
		t.handleInvitation(ctx, ev)
	default:
		log.WarnContext(ctx, "Dropping event of unknown type", "event", ev)
	}
}

// expirePending sweeps transmissions that outlived the pending timeout
func (t *Tracker) expirePending(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	deadline := time.Now().Add(-t.config.PendingTimeout)
	for _, id := range t.registry.ExpireTransmissions(deadline, errExpired) {
		t.ledger.Record(id, OutcomeFailed)
		t.metrics.failed.Inc()
		log.WarnContext(ctx, "Transmission expired without acknowledgment", "id", id)
	}
	t.observeOpenSpans()
}

// startAdvertising opens the root advertising span. Session spans parent
// under it and declined invitations are recorded on it.
func (t *Tracker) startAdvertising(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	actx, span := t.tracer.Start(ctx, "peer.advertising")
	t.advertising = spanEntry{ctx: actx, span: span, started: time.Now()}
	t.advertisingOpen = true
}

// stopAdvertising closes the advertising span
func (t *Tracker) stopAdvertising() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.advertisingOpen {
		return
	}
	t.advertisingOpen = false
	finish(t.advertising, nil)
	t.advertising = spanEntry{}
}

// advertisingContext returns the context of the advertising span, falling
// back to the given context when advertising is not active
func (t *Tracker) advertisingContext(ctx context.Context) context.Context {
	if t.advertisingOpen {
		return t.advertising.ctx
	}
	return ctx
}

// observeOpenSpans updates the open span gauges from the registry
func (t *Tracker) observeOpenSpans() {
	t.metrics.openSpans.WithLabelValues("session").Set(float64(t.registry.OpenSessions()))
	t.metrics.openSpans.WithLabelValues("resource").Set(float64(t.registry.OpenResources()))
	t.metrics.openSpans.WithLabelValues("transmission").Set(float64(t.registry.OpenTransmissions()))
}

// GetMetricCollectors returns the prometheus collectors of the tracker
func (t *Tracker) GetMetricCollectors() []prometheus.Collector {
	return t.metrics.GetCollectors()
}
