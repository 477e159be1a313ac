// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

// ErrInvalidParrotName is returned when the configured name is not DNS
// compliant
var ErrInvalidParrotName = errors.New("parrot name must be DNS compliant")

// ErrUnknownTargetPeer is returned when the target peer has no configured
// transport endpoint
var ErrUnknownTargetPeer = errors.New("target peer is not a configured transport peer")
