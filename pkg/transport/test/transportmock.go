// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package transportmock

import (
	"context"
	"sync"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/transport"
)

// Mock is an in-memory transport for tests. Events are injected with
// Deliver; sends are recorded and can be made to fail or to echo the
// payload back as inbound data.
type Mock struct {
	events  chan transport.Event
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	echo    bool
	closed  bool
}

// New creates a new Mock with a buffered event queue
func New() *Mock {
	return &Mock{
		events: make(chan transport.Event, 64),
	}
}

// Events returns the event queue of the mock
func (m *Mock) Events() <-chan transport.Event {
	return m.events
}

// Send records the payload. If an error is configured it is returned; if
// echo mode is enabled the payload is delivered back as inbound data.
func (m *Mock) Send(ctx context.Context, peer transport.PeerID, payload []byte) error {
	log := logger.FromContext(ctx)
	m.mu.Lock()
	err := m.sendErr
	echo := m.echo
	if err == nil {
		m.sent = append(m.sent, payload)
	}
	m.mu.Unlock()
	log.Info("MockSend called", "peer", peer, "bytes", len(payload), "err", err)

	if err != nil {
		return transport.ErrSendFailed{Peer: peer, Err: err}
	}
	if echo {
		m.Deliver(transport.DataReceived{Peer: peer, Payload: payload})
	}
	return nil
}

// Close closes the event queue
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transport.ErrClosed
	}
	m.closed = true
	close(m.events)
	return nil
}

// Deliver injects an event into the queue
func (m *Mock) Deliver(ev transport.Event) {
	m.events <- ev
}

// SetSendErr sets the error returned by Send
func (m *Mock) SetSendErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// SetEcho enables or disables echo mode
func (m *Mock) SetEcho(echo bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = echo
}

// Sent returns the payloads recorded by Send
func (m *Mock) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentCount returns the number of successful sends
func (m *Mock) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
