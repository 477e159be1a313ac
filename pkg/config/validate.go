// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/telekom/parrot/internal/logger"
)

// Validate validates the startup config
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	if !isDNSName(c.ParrotName) {
		log.Error("The name of the parrot must be DNS compliant")
		err = errors.Join(err, ErrInvalidParrotName)
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.Error("The telemetry configuration is invalid")
			err = errors.Join(err, vErr)
		}
	}

	if vErr := c.Tracker.Validate(ctx); vErr != nil {
		log.Error("The tracker configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Transport.Validate(ctx); vErr != nil {
		log.Error("The transport configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Api.Validate(); vErr != nil {
		log.Error("The api configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if c.Tracker.TargetPeer != "" {
		if _, ok := c.Transport.Peers[c.Tracker.TargetPeer]; !ok {
			log.Error("The target peer is not a configured transport peer", "peer", c.Tracker.TargetPeer)
			err = errors.Join(err, ErrUnknownTargetPeer)
		}
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}

// isDNSName checks if the given string is a valid DNS name
func isDNSName(s string) bool {
	re := regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
	return re.MatchString(s)
}
