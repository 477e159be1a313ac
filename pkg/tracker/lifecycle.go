// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/transport"
)

// handlePeerState drives the per-peer session state machine:
// Idle -> Connecting -> Connected -> Idle. A peer may reconnect, restarting
// the cycle. Any unknown state value means the span bookkeeping can no
// longer be trusted, which is the one fatal error path of the core.
func (t *Tracker) handlePeerState(ctx context.Context, ev transport.PeerStateChanged) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	switch ev.State {
	case transport.StateConnecting:
		// A connecting peer that still has an open session span means the
		// previous session never tore down cleanly. Close it and its
		// children before opening the new one so nothing leaks.
		if _, ok := t.registry.SessionContext(ev.Peer); ok {
			log.WarnContext(ctx, "Peer reconnecting with open session span, closing the stale one", "peer", ev.Peer)
			t.closeSession(ctx, ev.Peer, errReplaced)
		}
		if err := t.registry.StartSession(t.advertisingContext(ctx), ev.Peer); err != nil {
			log.ErrorContext(ctx, "Failed to open session span", "peer", ev.Peer, "error", err)
			return
		}
		log.DebugContext(ctx, "Session span opened", "peer", ev.Peer)

	case transport.StateConnected:
		if !t.registry.SessionEvent(ev.Peer, "connected") {
			// Defensive: the connected notification may arrive without a
			// prior connecting one. Log only, never crash.
			log.WarnContext(ctx, "Connected notification without session span", "peer", ev.Peer)
		}

	case transport.StateNotConnected:
		t.closeSession(ctx, ev.Peer, nil)
		log.DebugContext(ctx, "Session span closed", "peer", ev.Peer)

	default:
		log.ErrorContext(ctx, "Unknown peer state, span bookkeeping is inconsistent", "peer", ev.Peer, "state", ev.State)
		panic(fmt.Sprintf("tracker: unknown peer state %q for peer %q", ev.State, ev.Peer))
	}

	t.observeOpenSpans()
}

// closeSession tears down the peer's session span together with everything
// still open underneath it: in-flight transmission spans are swept and
// their ledger entries marked failed, an open resource span is closed.
// Caller must hold the mutex.
func (t *Tracker) closeSession(ctx context.Context, peer transport.PeerID, reason error) {
	log := logger.FromContext(ctx)

	for _, id := range t.registry.SweepTransmissions(peer, errSessionClosed) {
		t.ledger.Record(id, OutcomeFailed)
		t.metrics.failed.Inc()
		log.WarnContext(ctx, "Closed in-flight transmission on session teardown", "peer", peer, "id", id)
	}
	t.registry.EndResource(peer, errSessionClosed)
	t.registry.EndSession(peer, reason)
}

// handleInvitation declines every inbound session invitation; parrot only
// ever dials out to reflectors. The decision is recorded as an event on the
// advertising span, if one is active.
func (t *Tracker) handleInvitation(ctx context.Context, ev transport.InvitationReceived) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	if ev.Respond != nil {
		ev.Respond(false)
	}
	log.InfoContext(ctx, "Declined session invitation", "peer", ev.Peer)

	if t.advertisingOpen {
		t.advertising.span.AddEvent("invitation.declined")
		t.advertising.span.SetAttributes(attribute.String("invitation.peer", string(ev.Peer)))
	}
}
