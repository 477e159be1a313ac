// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package probe contains the wire payload exchanged with a reflector peer
// and the identifiers used to correlate a transmission with its echo.
package probe

import (
	"fmt"
	"slices"
)

// SizeClass is the label of the payload size of an envelope. The reflector
// echoes the envelope unchanged, so the class is informational and lets the
// receiving side attribute round-trip times to a payload size.
type SizeClass string

const (
	SizeX1K   SizeClass = "x1k"
	SizeX10K  SizeClass = "x10k"
	SizeX100K SizeClass = "x100k"
	SizeX1M   SizeClass = "x1m"
)

// SizeClasses returns all valid size classes
func SizeClasses() []SizeClass {
	return []SizeClass{SizeX1K, SizeX10K, SizeX100K, SizeX1M}
}

// Validate checks that the size class is one of the known labels
func (s SizeClass) Validate() error {
	if !slices.Contains(SizeClasses(), s) {
		return ErrUnknownSizeClass{Class: string(s)}
	}
	return nil
}

// Envelope is the payload sent to the reflector peer. It round-trips
// unchanged: the reflector echoes the exact bytes it received, and the id is
// used to match the echo against the pending transmission.
type Envelope struct {
	ID   ID        `json:"id" cbor:"id"`
	Size SizeClass `json:"size" cbor:"size"`
}

// Encode serializes the envelope with the given codec
func (e Envelope) Encode(c Codec) ([]byte, error) {
	if e.ID == "" {
		return nil, ErrInvalidEnvelope{Reason: "empty transmission id"}
	}
	b, err := c.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return b, nil
}

// DecodeEnvelope deserializes an envelope from the given bytes and checks
// it is structurally valid
func DecodeEnvelope(c Codec, data []byte) (Envelope, error) {
	var e Envelope
	if err := c.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if e.ID == "" {
		return Envelope{}, ErrInvalidEnvelope{Reason: "empty transmission id"}
	}
	return e, nil
}

// ErrUnknownSizeClass is returned when a size class label is not recognized
type ErrUnknownSizeClass struct {
	Class string
}

func (e ErrUnknownSizeClass) Error() string {
	return fmt.Sprintf("unknown size class %q", e.Class)
}

// ErrInvalidEnvelope is returned when an envelope is structurally invalid
type ErrInvalidEnvelope struct {
	Reason string
}

func (e ErrInvalidEnvelope) Error() string {
	return fmt.Sprintf("invalid envelope: %s", e.Reason)
}
