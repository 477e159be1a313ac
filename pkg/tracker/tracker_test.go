// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/telekom/parrot/pkg/probe"
	"github.com/telekom/parrot/pkg/transport"
	transportmock "github.com/telekom/parrot/pkg/transport/test"
)

// newTestTracker creates a tracker on a mock transport whose finished
// spans are captured by the returned recorder
func newTestTracker(t *testing.T, cfg Config) (*Tracker, *transportmock.Mock, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mock := transportmock.New()
	trk, err := New(cfg, mock)
	require.NoError(t, err)
	return trk, mock, sr
}

// endedByName filters the recorded spans by name
func endedByName(sr *tracetest.SpanRecorder, name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func connectPeer(ctx context.Context, trk *Tracker, peer transport.PeerID) {
	trk.handleEvent(ctx, transport.PeerStateChanged{Peer: peer, State: transport.StateConnecting})
	trk.handleEvent(ctx, transport.PeerStateChanged{Peer: peer, State: transport.StateConnected})
}

func TestTracker_SessionLifecycle(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	connectPeer(ctx, trk, "peer-1")
	trk.handleEvent(ctx, transport.PeerStateChanged{Peer: "peer-1", State: transport.StateNotConnected})

	sessions := endedByName(sr, "peer.session")
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Events(), 1)
	assert.Equal(t, "connected", sessions[0].Events()[0].Name)
	assert.Equal(t, 0, trk.registry.OpenSessions())
}

func TestTracker_Reconnect(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	// The cycle may restart after a disconnect
	for i := 0; i < 3; i++ {
		connectPeer(ctx, trk, "peer-1")
		trk.handleEvent(ctx, transport.PeerStateChanged{Peer: "peer-1", State: transport.StateNotConnected})
	}

	assert.Len(t, endedByName(sr, "peer.session"), 3)
	assert.Equal(t, 0, trk.registry.OpenSessions())
}

func TestTracker_ConnectedWithoutSession(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})

	// A connected notification without a prior connecting one must be
	// logged and ignored, never crash.
	trk.handleEvent(t.Context(), transport.PeerStateChanged{Peer: "peer-1", State: transport.StateConnected})

	assert.Empty(t, sr.Ended())
	assert.Equal(t, 0, trk.registry.OpenSessions())
}

func TestTracker_DuplicateConnectingClosesStaleSession(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	trk.handleEvent(ctx, transport.PeerStateChanged{Peer: "peer-1", State: transport.StateConnecting})
	trk.handleEvent(ctx, transport.PeerStateChanged{Peer: "peer-1", State: transport.StateConnecting})

	// The stale session span is closed with an error status instead of
	// being silently overwritten.
	sessions := endedByName(sr, "peer.session")
	require.Len(t, sessions, 1)
	assert.Equal(t, codes.Error, sessions[0].Status().Code)
	assert.Equal(t, 1, trk.registry.OpenSessions())
}

func TestTracker_UnknownPeerStateIsFatal(t *testing.T) {
	trk, _, _ := newTestTracker(t, Config{})

	assert.Panics(t, func() {
		trk.handleEvent(t.Context(), transport.PeerStateChanged{Peer: "peer-1", State: transport.PeerState(99)})
	})
}

func TestTracker_InvitationAlwaysDeclined(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	trk.startAdvertising(ctx)

	accepted := true
	responded := false
	trk.handleEvent(ctx, transport.InvitationReceived{
		Peer: "peer-1",
		Respond: func(accept bool) {
			responded = true
			accepted = accept
		},
	})

	assert.True(t, responded)
	assert.False(t, accepted)

	trk.stopAdvertising()
	advertising := endedByName(sr, "peer.advertising")
	require.Len(t, advertising, 1)
	require.Len(t, advertising[0].Events(), 1)
	assert.Equal(t, "invitation.declined", advertising[0].Events()[0].Name)
}

func TestTracker_ResourceTransfer(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	connectPeer(ctx, trk, "peer-1")
	trk.handleEvent(ctx, transport.TransferStarted{Peer: "peer-1", Name: "blob.bin"})
	assert.Equal(t, 1, trk.registry.OpenResources())

	trk.handleEvent(ctx, transport.TransferFinished{Peer: "peer-1", Name: "blob.bin"})
	assert.Equal(t, 0, trk.registry.OpenResources())

	resources := endedByName(sr, "peer.resource")
	require.Len(t, resources, 1)
	assert.NotEqual(t, codes.Error, resources[0].Status().Code)

	// Finishing again is a no-op
	trk.handleEvent(ctx, transport.TransferFinished{Peer: "peer-1", Name: "blob.bin"})
	assert.Len(t, endedByName(sr, "peer.resource"), 1)
}

func TestTracker_ResourceTransferWithoutSession(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})

	trk.handleEvent(t.Context(), transport.TransferStarted{Peer: "peer-1", Name: "blob.bin"})

	assert.Equal(t, 0, trk.registry.OpenResources())
	assert.Empty(t, sr.Ended())
}

func TestTracker_ConcurrentTransferReplaces(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	connectPeer(ctx, trk, "peer-1")
	trk.handleEvent(ctx, transport.TransferStarted{Peer: "peer-1", Name: "first.bin"})
	trk.handleEvent(ctx, transport.TransferStarted{Peer: "peer-1", Name: "second.bin"})

	// The first resource span is closed with an error status, not leaked
	resources := endedByName(sr, "peer.resource")
	require.Len(t, resources, 1)
	assert.Equal(t, codes.Error, resources[0].Status().Code)
	assert.Equal(t, 1, trk.registry.OpenResources())
}

func TestTracker_TransferFinishedWithError(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	connectPeer(ctx, trk, "peer-1")
	trk.handleEvent(ctx, transport.TransferStarted{Peer: "peer-1", Name: "blob.bin"})
	trk.handleEvent(ctx, transport.TransferFinished{Peer: "peer-1", Name: "blob.bin", Err: errors.New("checksum mismatch")})

	resources := endedByName(sr, "peer.resource")
	require.Len(t, resources, 1)
	assert.Equal(t, codes.Error, resources[0].Status().Code)
}

func TestTracker_DispatchScenario(t *testing.T) {
	trk, mock, sr := newTestTracker(t, Config{TargetPeer: "refl", SizeClass: probe.SizeX1K})
	ctx := t.Context()

	connectPeer(ctx, trk, "refl")
	trk.SetDesired(ctx, 3)

	assert.Equal(t, 3, mock.SentCount())
	assert.Equal(t, 3, trk.registry.OpenTransmissions())

	status := trk.Status()
	assert.Equal(t, 3, status.Sent)
	assert.Equal(t, 3, status.Pending)
	assert.Equal(t, 0, status.Acknowledged)
	assert.Len(t, status.Order, 3)

	// Every dispatch opened an encode and a send child span
	assert.Len(t, endedByName(sr, "transmission.encode"), 3)
	assert.Len(t, endedByName(sr, "transmission.send"), 3)

	// The echoes arrive; each closes its transmission span and flips the
	// ledger entry to acknowledged.
	for _, payload := range mock.Sent() {
		trk.handleEvent(ctx, transport.DataReceived{Peer: "refl", Payload: payload})
	}

	assert.Equal(t, 0, trk.registry.OpenTransmissions())
	assert.Equal(t, 3, trk.ReceivedCount())

	transmissions := endedByName(sr, "transmission")
	require.Len(t, transmissions, 3)
	for _, s := range transmissions {
		require.Len(t, s.Events(), 1)
		assert.Equal(t, "acknowledged", s.Events()[0].Name)
		assert.NotEqual(t, codes.Error, s.Status().Code)
	}

	// The sent order is stable after acknowledgment
	assert.Equal(t, status.Order, trk.SentOrder())
}

func TestTracker_SetDesiredWithoutTarget(t *testing.T) {
	trk, mock, _ := newTestTracker(t, Config{})
	ctx := t.Context()

	connectPeer(ctx, trk, "peer-1")
	trk.SetDesired(ctx, 2)

	assert.Equal(t, 0, mock.SentCount())
	assert.Equal(t, 0, trk.Status().Sent)
	assert.Equal(t, 2, trk.Desired())
}

func TestTracker_SetDesiredWithoutSession(t *testing.T) {
	trk, mock, _ := newTestTracker(t, Config{TargetPeer: "refl"})

	trk.SetDesired(t.Context(), 2)

	assert.Equal(t, 0, mock.SentCount())
	assert.Equal(t, 0, trk.Status().Sent)
}

func TestTracker_LoweringDesiredDoesNotDispatch(t *testing.T) {
	trk, mock, _ := newTestTracker(t, Config{TargetPeer: "refl"})
	ctx := t.Context()

	connectPeer(ctx, trk, "refl")
	trk.SetDesired(ctx, 2)
	require.Equal(t, 2, mock.SentCount())

	trk.SetDesired(ctx, 1)
	assert.Equal(t, 2, mock.SentCount())
	assert.Equal(t, 1, trk.Desired())

	// Raising again dispatches only the delta
	trk.SetDesired(ctx, 3)
	assert.Equal(t, 4, mock.SentCount())
}

func TestTracker_SendFailure(t *testing.T) {
	trk, mock, sr := newTestTracker(t, Config{TargetPeer: "refl"})
	ctx := t.Context()

	connectPeer(ctx, trk, "refl")
	mock.SetSendErr(errors.New("connection reset"))
	trk.SetDesired(ctx, 1)

	// The failed attempt is not retried, its ledger entry is failed and
	// its span is closed through the regular path, not abandoned.
	assert.Equal(t, 0, mock.SentCount())
	assert.Equal(t, 0, trk.registry.OpenTransmissions())

	status := trk.Status()
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 0, status.Pending)

	transmissions := endedByName(sr, "transmission")
	require.Len(t, transmissions, 1)
	assert.Equal(t, codes.Error, transmissions[0].Status().Code)
}

func TestTracker_AcknowledgmentWithoutTransmission(t *testing.T) {
	trk, _, sr := newTestTracker(t, Config{})
	ctx := t.Context()

	payload, err := probe.Envelope{ID: "X", Size: probe.SizeX1K}.Encode(probe.JSON())
	require.NoError(t, err)

	trk.handleEvent(ctx, transport.DataReceived{Peer: "refl", Payload: payload})

	// The ledger still records the acknowledgment; no span operation is
	// performed and nothing crashes.
	assert.Equal(t, 1, trk.ReceivedCount())
	assert.Empty(t, endedByName(sr, "transmission"))

	status := trk.Status()
	assert.Equal(t, []probe.ID{"X"}, status.Order)
}

func TestTracker_UndecodablePayload(t *testing.T) {
	trk, _, _ := newTestTracker(t, Config{})

	trk.handleEvent(t.Context(), transport.DataReceived{Peer: "refl", Payload: []byte("not an envelope")})

	// Logged and discarded: no ledger mutation
	assert.Equal(t, 0, trk.Status().Sent)
	assert.Equal(t, 0, trk.ReceivedCount())
}

func TestTracker_SessionTeardownSweepsInflight(t *testing.T) {
	trk, mock, sr := newTestTracker(t, Config{TargetPeer: "refl"})
	ctx := t.Context()

	connectPeer(ctx, trk, "refl")
	trk.SetDesired(ctx, 2)
	require.Equal(t, 2, mock.SentCount())

	trk.handleEvent(ctx, transport.PeerStateChanged{Peer: "refl", State: transport.StateNotConnected})

	// No transmission span outlives its session
	assert.Equal(t, 0, trk.registry.OpenTransmissions())
	transmissions := endedByName(sr, "transmission")
	require.Len(t, transmissions, 2)
	for _, s := range transmissions {
		assert.Equal(t, codes.Error, s.Status().Code)
	}

	status := trk.Status()
	assert.Equal(t, 2, status.Failed)
	assert.Equal(t, 0, status.Pending)
}

func TestTracker_PendingExpiry(t *testing.T) {
	trk, mock, sr := newTestTracker(t, Config{TargetPeer: "refl", PendingTimeout: 10 * time.Millisecond})
	ctx := t.Context()

	connectPeer(ctx, trk, "refl")
	trk.SetDesired(ctx, 1)
	require.Equal(t, 1, mock.SentCount())

	time.Sleep(20 * time.Millisecond)
	trk.expirePending(ctx)

	assert.Equal(t, 0, trk.registry.OpenTransmissions())
	assert.Equal(t, 1, trk.Status().Failed)

	transmissions := endedByName(sr, "transmission")
	require.Len(t, transmissions, 1)
	assert.Equal(t, codes.Error, transmissions[0].Status().Code)
}

func TestTracker_RunLoop(t *testing.T) {
	trk, mock, sr := newTestTracker(t, Config{TargetPeer: "refl"})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	cErr := make(chan error, 1)
	go func() { cErr <- trk.Run(ctx) }()

	mock.SetEcho(true)
	mock.Deliver(transport.PeerStateChanged{Peer: "refl", State: transport.StateConnecting})
	mock.Deliver(transport.PeerStateChanged{Peer: "refl", State: transport.StateConnected})

	require.Eventually(t, func() bool {
		trk.mu.Lock()
		defer trk.mu.Unlock()
		_, ok := trk.registry.SessionContext("refl")
		return ok
	}, time.Second, 5*time.Millisecond, "session span should open")

	trk.SetDesired(ctx, 1)

	// The mock echoes the payload back on the event queue; the run loop
	// picks it up and completes the round-trip.
	require.Eventually(t, func() bool {
		return trk.ReceivedCount() == 1
	}, time.Second, 5*time.Millisecond, "echo should be acknowledged")

	trk.Shutdown()
	require.NoError(t, <-cErr)

	// The advertising span covers the whole run
	assert.Len(t, endedByName(sr, "peer.advertising"), 1)
}
