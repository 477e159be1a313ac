// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/telekom/parrot/pkg/probe"
	"github.com/telekom/parrot/pkg/transport"
)

// spanEntry is a live span together with the context needed to parent
// child spans under it
type spanEntry struct {
	ctx     context.Context
	span    trace.Span
	started time.Time
}

// spanMap is one role partition of the registry. A key can hold at most one
// open span; put on an occupied key is rejected so that a caller can never
// silently leak the previous span.
type spanMap[K comparable] struct {
	role  string
	spans map[K]spanEntry
}

func newSpanMap[K comparable](role string) spanMap[K] {
	return spanMap[K]{role: role, spans: make(map[K]spanEntry)}
}

func (m *spanMap[K]) get(key K) (spanEntry, bool) {
	e, ok := m.spans[key]
	return e, ok
}

func (m *spanMap[K]) put(key K, e spanEntry) error {
	if _, ok := m.spans[key]; ok {
		return ErrSpanExists{Role: m.role}
	}
	m.spans[key] = e
	return nil
}

func (m *spanMap[K]) remove(key K) (spanEntry, bool) {
	e, ok := m.spans[key]
	if ok {
		delete(m.spans, key)
	}
	return e, ok
}

// SpanRegistry holds the live spans of the correlation core, partitioned by
// role: one session span per peer, one resource span per peer and one
// transmission span per transmission id. Closing a span ends it, which
// hands it to the configured span processor; the local reference is
// discarded and never reused.
//
// The registry is not safe for concurrent use; the owning Tracker
// serializes access.
type SpanRegistry struct {
	tracer        trace.Tracer
	sessions      spanMap[transport.PeerID]
	resources     spanMap[transport.PeerID]
	transmissions spanMap[probe.ID]
	// inflight indexes open transmission spans by the peer they were sent
	// to, so session teardown can sweep them
	inflight map[transport.PeerID]map[probe.ID]struct{}
	owner    map[probe.ID]transport.PeerID
}

// NewSpanRegistry creates an empty registry creating spans with the
// given tracer
func NewSpanRegistry(tracer trace.Tracer) *SpanRegistry {
	return &SpanRegistry{
		tracer:        tracer,
		sessions:      newSpanMap[transport.PeerID]("session"),
		resources:     newSpanMap[transport.PeerID]("resource"),
		transmissions: newSpanMap[probe.ID]("transmission"),
		inflight:      make(map[transport.PeerID]map[probe.ID]struct{}),
		owner:         make(map[probe.ID]transport.PeerID),
	}
}

// StartSession opens the session span for the peer as a child of the given
// parent context. Returns ErrSpanExists if the peer already has an open
// session span; the caller must close or discard it first.
func (r *SpanRegistry) StartSession(parent context.Context, peer transport.PeerID) error {
	if _, ok := r.sessions.get(peer); ok {
		return ErrSpanExists{Role: "session"}
	}
	ctx, span := r.tracer.Start(parent, "peer.session",
		trace.WithAttributes(attribute.String("peer.id", string(peer))),
	)
	return r.sessions.put(peer, spanEntry{ctx: ctx, span: span, started: time.Now()})
}

// SessionEvent appends an event to the peer's session span. Returns false
// if the peer has no open session span.
func (r *SpanRegistry) SessionEvent(peer transport.PeerID, name string, attrs ...attribute.KeyValue) bool {
	e, ok := r.sessions.get(peer)
	if !ok {
		return false
	}
	e.span.AddEvent(name, trace.WithAttributes(attrs...))
	return true
}

// SessionContext returns the context of the peer's open session span,
// used to parent resource and transmission spans
func (r *SpanRegistry) SessionContext(peer transport.PeerID) (context.Context, bool) {
	e, ok := r.sessions.get(peer)
	if !ok {
		return nil, false
	}
	return e.ctx, true
}

// EndSession closes the peer's session span and removes it. Closing an
// absent key is a no-op and returns false.
func (r *SpanRegistry) EndSession(peer transport.PeerID, err error) bool {
	e, ok := r.sessions.remove(peer)
	if !ok {
		return false
	}
	finish(e, err)
	return true
}

// StartResource opens the resource span for the peer as a child of the
// given parent context. Returns ErrSpanExists if the peer already has an
// open resource span.
func (r *SpanRegistry) StartResource(parent context.Context, peer transport.PeerID, name string) error {
	if _, ok := r.resources.get(peer); ok {
		return ErrSpanExists{Role: "resource"}
	}
	ctx, span := r.tracer.Start(parent, "peer.resource",
		trace.WithAttributes(
			attribute.String("peer.id", string(peer)),
			attribute.String("resource.name", name),
		),
	)
	return r.resources.put(peer, spanEntry{ctx: ctx, span: span, started: time.Now()})
}

// EndResource closes the peer's resource span and removes it. Closing an
// absent key is a no-op and returns false.
func (r *SpanRegistry) EndResource(peer transport.PeerID, err error) bool {
	e, ok := r.resources.remove(peer)
	if !ok {
		return false
	}
	finish(e, err)
	return true
}

// StartTransmission opens the transmission span for the given id as a child
// of the given parent context and indexes it under the target peer. The
// returned context parents the encode and send child spans.
func (r *SpanRegistry) StartTransmission(parent context.Context, peer transport.PeerID, id probe.ID, size probe.SizeClass) (context.Context, error) {
	if _, ok := r.transmissions.get(id); ok {
		return nil, ErrSpanExists{Role: "transmission"}
	}
	ctx, span := r.tracer.Start(parent, "transmission",
		trace.WithAttributes(
			attribute.String("peer.id", string(peer)),
			attribute.String("transmission.id", id.String()),
			attribute.String("transmission.size", string(size)),
		),
	)
	if err := r.transmissions.put(id, spanEntry{ctx: ctx, span: span, started: time.Now()}); err != nil {
		return nil, err
	}
	if r.inflight[peer] == nil {
		r.inflight[peer] = make(map[probe.ID]struct{})
	}
	r.inflight[peer][id] = struct{}{}
	r.owner[id] = peer
	return ctx, nil
}

// TransmissionEvent appends an event to the transmission span of the given
// id. Returns false if no open span exists for the id.
func (r *SpanRegistry) TransmissionEvent(id probe.ID, name string, attrs ...attribute.KeyValue) bool {
	e, ok := r.transmissions.get(id)
	if !ok {
		return false
	}
	e.span.AddEvent(name, trace.WithAttributes(attrs...))
	return true
}

// EndTransmission closes the transmission span of the given id and removes
// it from the registry and the in-flight index. Closing an absent key is a
// no-op and returns false.
func (r *SpanRegistry) EndTransmission(id probe.ID, err error) bool {
	e, ok := r.transmissions.remove(id)
	if !ok {
		return false
	}
	r.unindex(id)
	finish(e, err)
	return true
}

// SweepTransmissions closes all in-flight transmission spans of the given
// peer and returns their ids. Used on session teardown so that no
// transmission span outlives its parent session.
func (r *SpanRegistry) SweepTransmissions(peer transport.PeerID, reason error) []probe.ID {
	ids := make([]probe.ID, 0, len(r.inflight[peer]))
	for id := range r.inflight[peer] {
		if e, ok := r.transmissions.remove(id); ok {
			finish(e, reason)
		}
		ids = append(ids, id)
	}
	delete(r.inflight, peer)
	for _, id := range ids {
		delete(r.owner, id)
	}
	return ids
}

// ExpireTransmissions closes all transmission spans started before the
// given deadline and returns their ids
func (r *SpanRegistry) ExpireTransmissions(deadline time.Time, reason error) []probe.ID {
	var ids []probe.ID
	for id, e := range r.transmissions.spans {
		if e.started.Before(deadline) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		if e, ok := r.transmissions.remove(id); ok {
			r.unindex(id)
			finish(e, reason)
		}
	}
	return ids
}

// OpenSessions returns the number of open session spans
func (r *SpanRegistry) OpenSessions() int { return len(r.sessions.spans) }

// OpenResources returns the number of open resource spans
func (r *SpanRegistry) OpenResources() int { return len(r.resources.spans) }

// OpenTransmissions returns the number of open transmission spans
func (r *SpanRegistry) OpenTransmissions() int { return len(r.transmissions.spans) }

func (r *SpanRegistry) unindex(id probe.ID) {
	peer, ok := r.owner[id]
	if !ok {
		return
	}
	delete(r.owner, id)
	if set, ok := r.inflight[peer]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.inflight, peer)
		}
	}
}

// finish closes a span, recording the error as its status if present, and
// hands it to the span processor. The entry must already be removed from
// its map; a finished span is never looked up again.
func finish(e spanEntry, err error) {
	if err != nil {
		e.span.SetStatus(codes.Error, err.Error())
		e.span.RecordError(err)
	}
	e.span.End()
}
