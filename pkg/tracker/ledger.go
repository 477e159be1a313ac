// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"github.com/telekom/parrot/pkg/probe"
)

// Outcome is the round-trip completion state of one transmission
type Outcome int

const (
	// OutcomeFailed means the transmission could not be sent or was given
	// up on before an acknowledgment arrived
	OutcomeFailed Outcome = iota
	// OutcomePending means the transmission was sent and awaits its echo
	OutcomePending
	// OutcomeAcknowledged means the matching echo arrived
	OutcomeAcknowledged
)

// String returns the human-readable name of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomePending:
		return "pending"
	case OutcomeAcknowledged:
		return "acknowledged"
	default:
		return "unknown"
	}
}

// Ledger records the completion state of every transmission, keyed by its
// id, and remembers the order in which ids were first recorded for display.
//
// The ledger is not safe for concurrent use; the owning Tracker serializes
// access.
type Ledger struct {
	entries map[probe.ID]Outcome
	order   []probe.ID
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[probe.ID]Outcome),
	}
}

// Record sets the outcome for the given id, overwriting any previous
// outcome. First-time ids are appended to the display order.
func (l *Ledger) Record(id probe.ID, outcome Outcome) {
	if _, ok := l.entries[id]; !ok {
		l.order = append(l.order, id)
	}
	l.entries[id] = outcome
}

// Acknowledge marks the given id as acknowledged. An unknown id is recorded
// anyway, last write wins: the echo may race the local bookkeeping and must
// not be lost.
func (l *Ledger) Acknowledge(id probe.ID) {
	l.Record(id, OutcomeAcknowledged)
}

// Outcome returns the outcome recorded for the given id
func (l *Ledger) Outcome(id probe.ID) (Outcome, bool) {
	o, ok := l.entries[id]
	return o, ok
}

// Count returns the total number of recorded transmissions
func (l *Ledger) Count() int {
	return len(l.entries)
}

// Acknowledged returns the number of acknowledged transmissions
func (l *Ledger) Acknowledged() int {
	return l.countOf(OutcomeAcknowledged)
}

// Pending returns the number of transmissions awaiting their echo
func (l *Ledger) Pending() int {
	return l.countOf(OutcomePending)
}

// Failed returns the number of failed transmissions
func (l *Ledger) Failed() int {
	return l.countOf(OutcomeFailed)
}

func (l *Ledger) countOf(outcome Outcome) int {
	n := 0
	for _, o := range l.entries {
		if o == outcome {
			n++
		}
	}
	return n
}

// Snapshot returns the recorded ids in insertion order
func (l *Ledger) Snapshot() []probe.ID {
	out := make([]probe.ID, len(l.order))
	copy(out, l.order)
	return out
}
