// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/transport"
)

// handleTransferStarted opens the resource span for an inbound bulk
// transfer as a child of the peer's session span. Without an active session
// the transfer is not traced. The resource name is not part of the key, so
// a second transfer from the same peer replaces the first; the prior span
// is closed rather than leaked.
func (t *Tracker) handleTransferStarted(ctx context.Context, ev transport.TransferStarted) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	sessionCtx, ok := t.registry.SessionContext(ev.Peer)
	if !ok {
		log.DebugContext(ctx, "Transfer started without session, skipping resource span", "peer", ev.Peer, "resource", ev.Name)
		return
	}

	if t.registry.EndResource(ev.Peer, errReplaced) {
		log.WarnContext(ctx, "Concurrent transfer from peer, closing previous resource span", "peer", ev.Peer, "resource", ev.Name)
	}

	if err := t.registry.StartResource(sessionCtx, ev.Peer, ev.Name); err != nil {
		log.ErrorContext(ctx, "Failed to open resource span", "peer", ev.Peer, "error", err)
		return
	}
	log.DebugContext(ctx, "Resource span opened", "peer", ev.Peer, "resource", ev.Name)
	t.observeOpenSpans()
}

// handleTransferFinished closes the peer's resource span, recording the
// transfer error if one occurred. Finishing a transfer that has no open
// resource span is a no-op.
func (t *Tracker) handleTransferFinished(ctx context.Context, ev transport.TransferFinished) {
	t.mu.Lock()
	defer t.mu.Unlock()
	log := logger.FromContext(ctx)

	if !t.registry.EndResource(ev.Peer, ev.Err) {
		log.DebugContext(ctx, "Transfer finished without resource span", "peer", ev.Peer, "resource", ev.Name)
		return
	}
	log.DebugContext(ctx, "Resource span closed", "peer", ev.Peer, "resource", ev.Name, "error", ev.Err)
	t.observeOpenSpans()
}
