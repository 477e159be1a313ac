// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"github.com/google/uuid"
)

// ID is the unique identity of a single transmission. It is generated at
// send time, immutable and used as the correlation key between the outbound
// envelope and the echoed response.
type ID string

// NewID returns a new transmission identifier carrying the given
// human-readable label. Uniqueness is provided by a UUIDv7 suffix, so ids
// remain sortable by creation time.
func NewID(label string) ID {
	return ID(label + "-" + uuid.Must(uuid.NewV7()).String())
}

// String returns the identifier as a plain string
func (id ID) String() string {
	return string(id)
}
