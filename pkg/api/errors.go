// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// ErrInvalidListeningAddress is returned when no listening address is
// configured
var ErrInvalidListeningAddress = errors.New("api listening address cannot be empty")

// ErrApiShutdown is returned when the api server fails to shut down
var ErrApiShutdown = errors.New("failed to shutdown api server")

type ErrCreateOpenapiSchema struct {
	name string
	err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for %s: %v", e.name, e.err)
}
