// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
)

// ErrInvalidTimeout is returned when the configured timeout is negative
var ErrInvalidTimeout = errors.New("transport timeout must be equal or above 0")

// ErrClosed is returned when the transport was already closed
var ErrClosed = errors.New("transport is closed")

// ErrInvalidPeerURL is returned when a configured peer URL is not valid
type ErrInvalidPeerURL struct {
	Peer PeerID
	URL  string
}

func (e ErrInvalidPeerURL) Error() string {
	return fmt.Sprintf("invalid reflector url %q for peer %q", e.URL, e.Peer)
}
