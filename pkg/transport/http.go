// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/telekom/parrot/internal/logger"
)

var _ Transport = (*HTTP)(nil)

// HTTP is a reflector transport over plain http. A send posts the payload
// to the peer's reflector endpoint; the echoed response body is delivered
// asynchronously on the event queue, like any other inbound payload.
type HTTP struct {
	client *http.Client
	peers  map[PeerID]string
	events chan Event
	mu     sync.Mutex
	closed bool
}

// NewHTTP creates a new http reflector transport from the given configuration
func NewHTTP(cfg Config) *HTTP {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	peers := make(map[PeerID]string, len(cfg.Peers))
	for name, target := range cfg.Peers {
		peers[PeerID(name)] = target
	}

	return &HTTP{
		client: &http.Client{Timeout: timeout},
		peers:  peers,
		events: make(chan Event, size),
	}
}

// Events returns the event queue of the transport
func (t *HTTP) Events() <-chan Event {
	return t.events
}

// Connect probes the peer's reflector endpoint and reports the resulting
// session state on the event queue
func (t *HTTP) Connect(ctx context.Context, peer PeerID) error {
	log := logger.FromContext(ctx)
	target, ok := t.peers[peer]
	if !ok {
		return ErrUnknownPeer{Peer: peer}
	}

	t.deliver(ctx, PeerStateChanged{Peer: peer, State: StateConnecting})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		t.deliver(ctx, PeerStateChanged{Peer: peer, State: StateNotConnected})
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		log.ErrorContext(ctx, "Failed to reach reflector", "peer", peer, "error", err)
		t.deliver(ctx, PeerStateChanged{Peer: peer, State: StateNotConnected})
		return ErrSendFailed{Peer: peer, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		t.deliver(ctx, PeerStateChanged{Peer: peer, State: StateNotConnected})
		return ErrSendFailed{Peer: peer, Err: fmt.Errorf("reflector returned status %d", resp.StatusCode)}
	}

	t.deliver(ctx, PeerStateChanged{Peer: peer, State: StateConnected})
	return nil
}

// Disconnect reports the end of the peer session on the event queue
func (t *HTTP) Disconnect(ctx context.Context, peer PeerID) {
	t.deliver(ctx, PeerStateChanged{Peer: peer, State: StateNotConnected})
}

// Send posts the payload to the peer's reflector endpoint. The echoed
// response body is delivered on the event queue.
func (t *HTTP) Send(ctx context.Context, peer PeerID, payload []byte) error {
	target, ok := t.peers[peer]
	if !ok {
		return ErrUnknownPeer{Peer: peer}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return ErrSendFailed{Peer: peer, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrSendFailed{Peer: peer, Err: fmt.Errorf("reflector returned status %d", resp.StatusCode)}
	}

	echo, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrSendFailed{Peer: peer, Err: err}
	}

	t.deliver(ctx, DataReceived{Peer: peer, Payload: echo})
	return nil
}

// Close shuts the transport down and closes the event queue
func (t *HTTP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	close(t.events)
	return nil
}

// deliver puts an event on the queue. If the queue is full the event is
// dropped, since no handler may ever block the transport.
func (t *HTTP) deliver(ctx context.Context, ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.events <- ev:
	default:
		logger.FromContext(ctx).WarnContext(ctx, "Event queue full, dropping event", "event", fmt.Sprintf("%T", ev))
	}
}
