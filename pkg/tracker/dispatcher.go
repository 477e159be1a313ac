// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/probe"
	"github.com/telekom/parrot/pkg/transport"
)

// SetTarget selects the peer future transmissions are dispatched to
func (t *Tracker) SetTarget(peer transport.PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = peer
}

// Target returns the currently selected target peer
func (t *Tracker) Target() transport.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// SetDesired adjusts the desired transmission count. Raising the count
// dispatches one transmission per unit of increase; lowering it only stores
// the new value. Without a target peer or an active session to it the
// dispatch is skipped, which is not an error.
func (t *Tracker) SetDesired(ctx context.Context, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	delta := n - t.desired
	t.desired = n
	if delta <= 0 {
		return
	}

	if t.target == "" {
		log.DebugContext(ctx, "No target peer selected, skipping dispatch", "desired", n)
		return
	}
	sessionCtx, ok := t.registry.SessionContext(t.target)
	if !ok {
		log.DebugContext(ctx, "No active session to target peer, skipping dispatch", "peer", t.target, "desired", n)
		return
	}

	for i := 0; i < delta; i++ {
		t.dispatch(ctx, sessionCtx)
	}
	t.observeOpenSpans()
}

// Desired returns the desired transmission count
func (t *Tracker) Desired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.desired
}

// dispatch sends one transmission to the target peer: a fresh id, an
// envelope of the configured size class, a transmission span with encode
// and send child spans, and the matching ledger entry. A failed attempt is
// closed through the regular path with an error status; it is never retried
// and never leaks its span. Caller must hold the mutex.
func (t *Tracker) dispatch(ctx context.Context, sessionCtx context.Context) {
	log := logger.FromContext(ctx)

	t.seq++
	id := probe.NewID(fmt.Sprintf("echo-%d", t.seq))

	txnCtx, err := t.registry.StartTransmission(sessionCtx, t.target, id, t.config.SizeClass)
	if err != nil {
		// Ids are unique, so an occupied key would be a bug in the id
		// generator. Record the attempt as failed and move on.
		log.ErrorContext(ctx, "Failed to open transmission span", "id", id, "error", err)
		t.ledger.Record(id, OutcomeFailed)
		t.metrics.failed.Inc()
		return
	}

	env := probe.Envelope{ID: id, Size: t.config.SizeClass}
	payload, err := t.encode(txnCtx, env)
	if err != nil {
		t.failTransmission(ctx, id, err)
		return
	}

	if err := t.send(txnCtx, payload); err != nil {
		t.failTransmission(ctx, id, err)
		return
	}

	t.ledger.Record(id, OutcomePending)
	t.metrics.sent.WithLabelValues(string(t.target)).Inc()
	log.DebugContext(ctx, "Transmission dispatched", "id", id, "peer", t.target, "size", t.config.SizeClass)
}

// failTransmission records a failed attempt: the transmission span is
// closed with the error and the ledger entry is set to failed. Caller must
// hold the mutex.
func (t *Tracker) failTransmission(ctx context.Context, id probe.ID, err error) {
	logger.FromContext(ctx).ErrorContext(ctx, "Transmission failed", "id", id, "error", err)
	t.registry.EndTransmission(id, err)
	t.ledger.Record(id, OutcomeFailed)
	t.metrics.failed.Inc()
}

// encode serializes the envelope in its own child span
func (t *Tracker) encode(txnCtx context.Context, env probe.Envelope) ([]byte, error) {
	_, span := t.tracer.Start(txnCtx, "transmission.encode")
	defer span.End()

	payload, err := env.Encode(t.codec)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to encode envelope")
		span.RecordError(err)
		return nil, err
	}
	return payload, nil
}

// send transmits the payload in its own child span
func (t *Tracker) send(txnCtx context.Context, payload []byte) error {
	sendCtx, span := t.tracer.Start(txnCtx, "transmission.send")
	defer span.End()

	if err := t.transport.Send(sendCtx, t.target, payload); err != nil {
		span.SetStatus(codes.Error, "Failed to send envelope")
		span.RecordError(err)
		return err
	}
	return nil
}

// handleData decodes an inbound payload as an echoed envelope. A decode
// failure is logged and the payload discarded without touching any state.
// A valid echo acknowledges the ledger entry, even if no matching
// transmission span exists anymore, and closes the matching span if one is
// still open.
func (t *Tracker) handleData(ctx context.Context, ev transport.DataReceived) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	env, err := probe.DecodeEnvelope(t.codec, ev.Payload)
	if err != nil {
		log.ErrorContext(ctx, "Discarding undecodable payload", "peer", ev.Peer, "bytes", len(ev.Payload), "error", err)
		return
	}

	t.ledger.Acknowledge(env.ID)
	t.metrics.acknowledged.Inc()

	if t.registry.TransmissionEvent(env.ID, "acknowledged") {
		t.registry.EndTransmission(env.ID, nil)
		log.DebugContext(ctx, "Transmission acknowledged", "id", env.ID, "peer", ev.Peer)
	} else {
		log.WarnContext(ctx, "Acknowledgment without open transmission span", "id", env.ID, "peer", ev.Peer)
	}
	t.observeOpenSpans()
}

// SentOrder returns the transmission ids in the order they were recorded
func (t *Tracker) SentOrder() []probe.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Snapshot()
}

// ReceivedCount returns the number of acknowledged transmissions
func (t *Tracker) ReceivedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Acknowledged()
}

// Status is the read-only view of the tracker for presentation layers
type Status struct {
	// Target is the currently selected target peer
	Target string `json:"target"`
	// Desired is the desired transmission count
	Desired int `json:"desired"`
	// Sent is the total number of recorded transmissions
	Sent int `json:"sent"`
	// Pending is the number of transmissions awaiting their echo
	Pending int `json:"pending"`
	// Acknowledged is the number of completed round-trips
	Acknowledged int `json:"acknowledged"`
	// Failed is the number of failed transmissions
	Failed int `json:"failed"`
	// Order lists the transmission ids in dispatch order
	Order []probe.ID `json:"order"`
}

// Status returns a consistent snapshot of the tracker state
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Target:       string(t.target),
		Desired:      t.desired,
		Sent:         t.ledger.Count(),
		Pending:      t.ledger.Pending(),
		Acknowledged: t.ledger.Acknowledged(),
		Failed:       t.ledger.Failed(),
		Order:        t.ledger.Snapshot(),
	}
}
