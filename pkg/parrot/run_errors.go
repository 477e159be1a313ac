// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package parrot

import (
	"errors"
	"fmt"
)

// ErrFinalShutdown is returned when the parrot was shut down
var ErrFinalShutdown = errors.New("parrot was shut down")

// ErrShutdown collects the shutdown errors of the parrot components
type ErrShutdown struct {
	errAPI       error
	errTelemetry error
	errTransport error
}

// HasError returns true if any component failed to shut down
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errTelemetry != nil || e.errTransport != nil
}

func (e ErrShutdown) Error() string {
	return fmt.Sprintf("shutdown errors: api=%v telemetry=%v transport=%v", e.errAPI, e.errTelemetry, e.errTransport)
}
