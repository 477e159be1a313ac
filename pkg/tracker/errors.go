// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned when an operation needs an active session span
// for a peer and none exists
var ErrNoSession = errors.New("no active session span")

// errSessionClosed closes spans that were still open when their parent
// session went away
var errSessionClosed = errors.New("session closed")

// errReplaced closes spans whose key was reused before they were finished
var errReplaced = errors.New("replaced by a newer span")

// errExpired closes transmission spans whose echo did not arrive within the
// configured pending timeout
var errExpired = errors.New("pending timeout exceeded")

// ErrSpanExists is returned when a span is created for a key that already
// holds an open span. The previous span must be closed or discarded first.
type ErrSpanExists struct {
	Role string
}

func (e ErrSpanExists) Error() string {
	return fmt.Sprintf("an open %s span already exists for this key", e.Role)
}

// ErrInvalidPendingTimeout is returned when the configured pending timeout
// is negative
var ErrInvalidPendingTimeout = errors.New("pending timeout must be equal or above 0")
