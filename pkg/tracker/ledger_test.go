// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/telekom/parrot/pkg/probe"
)

func TestLedger_RecordAndAcknowledge(t *testing.T) {
	l := NewLedger()

	l.Record("a", OutcomePending)
	l.Record("b", OutcomePending)

	o, ok := l.Outcome("a")
	assert.True(t, ok)
	assert.Equal(t, OutcomePending, o)

	l.Acknowledge("a")
	o, _ = l.Outcome("a")
	assert.Equal(t, OutcomeAcknowledged, o)

	// The other entry must be untouched
	o, _ = l.Outcome("b")
	assert.Equal(t, OutcomePending, o)

	assert.Equal(t, 2, l.Count())
	assert.Equal(t, 1, l.Acknowledged())
	assert.Equal(t, 1, l.Pending())
	assert.Equal(t, 0, l.Failed())
}

func TestLedger_AcknowledgeUnknownID(t *testing.T) {
	l := NewLedger()

	// The echo may race the local bookkeeping; an unknown id is recorded
	// anyway, last write wins.
	l.Acknowledge("ghost")

	o, ok := l.Outcome("ghost")
	assert.True(t, ok)
	assert.Equal(t, OutcomeAcknowledged, o)
	assert.Equal(t, 1, l.Count())
}

func TestLedger_SnapshotOrder(t *testing.T) {
	l := NewLedger()

	ids := []probe.ID{"c", "a", "b"}
	for _, id := range ids {
		l.Record(id, OutcomePending)
	}
	// Overwrites must not change the order
	l.Record("a", OutcomeFailed)
	l.Acknowledge("c")

	if diff := cmp.Diff(ids, l.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	l := NewLedger()
	l.Record("a", OutcomePending)

	snap := l.Snapshot()
	snap[0] = "mutated"

	assert.Equal(t, []probe.ID{"a"}, l.Snapshot())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "pending", OutcomePending.String())
	assert.Equal(t, "acknowledged", OutcomeAcknowledged.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
