// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package transport abstracts the peer session layer. A transport delivers
// peer connectivity, data and transfer notifications as discrete events on
// a single queue and sends raw payloads to a peer.
package transport

import (
	"context"
	"fmt"
)

// PeerID identifies a remote participant. It is stable for the life of a
// connection attempt and only ever used as a key.
type PeerID string

// PeerState is the connectivity state of a peer session
type PeerState int

const (
	// StateNotConnected means no session with the peer exists
	StateNotConnected PeerState = iota
	// StateConnecting means a session with the peer is being established
	StateConnecting
	// StateConnected means the session with the peer is established
	StateConnected
)

// String returns the human-readable name of the state
func (s PeerState) String() string {
	switch s {
	case StateNotConnected:
		return "notConnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Known reports whether the state is one of the defined values. Consumers
// treat an unknown state as a fatal condition.
func (s PeerState) Known() bool {
	return s == StateNotConnected || s == StateConnecting || s == StateConnected
}

// Event is a discrete notification delivered by a transport.
// The concrete types below are the only implementations.
type Event interface {
	isEvent()
}

// PeerStateChanged notifies about a connectivity state transition of a peer
type PeerStateChanged struct {
	Peer  PeerID
	State PeerState
}

// DataReceived carries a raw inbound payload from a peer
type DataReceived struct {
	Peer    PeerID
	Payload []byte
}

// TransferStarted notifies about the start of an inbound bulk transfer
type TransferStarted struct {
	Peer PeerID
	Name string
}

// TransferFinished notifies about the end of an inbound bulk transfer.
// Err is nil if the transfer completed successfully.
type TransferFinished struct {
	Peer PeerID
	Name string
	Err  error
}

// InvitationReceived notifies about an inbound session invitation from a
// peer. Respond must be called exactly once with the decision.
type InvitationReceived struct {
	Peer    PeerID
	Context string
	Respond func(accept bool)
}

func (PeerStateChanged) isEvent()   {}
func (DataReceived) isEvent()       {}
func (TransferStarted) isEvent()    {}
func (TransferFinished) isEvent()   {}
func (InvitationReceived) isEvent() {}

// Transport is the peer session collaborator
type Transport interface {
	// Events returns the single delivery queue of the transport. The
	// channel is closed when the transport shuts down.
	Events() <-chan Event
	// Send transmits the payload to the given peer
	Send(ctx context.Context, peer PeerID, payload []byte) error
	// Close shuts the transport down and closes the event queue
	Close() error
}

// ErrUnknownPeer is returned when a send targets a peer the transport
// has no session for
type ErrUnknownPeer struct {
	Peer PeerID
}

func (e ErrUnknownPeer) Error() string {
	return fmt.Sprintf("unknown peer %q", e.Peer)
}

// ErrSendFailed wraps a transport level send failure
type ErrSendFailed struct {
	Peer PeerID
	Err  error
}

func (e ErrSendFailed) Error() string {
	return fmt.Sprintf("failed to send to peer %q: %v", e.Peer, e.Err)
}

func (e ErrSendFailed) Unwrap() error {
	return e.Err
}
