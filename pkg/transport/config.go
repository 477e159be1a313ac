// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net/url"
	"time"

	"github.com/telekom/parrot/internal/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultQueueSize = 64
)

// Config is the configuration of the http reflector transport
type Config struct {
	// Peers maps a peer name to the base URL of its reflector endpoint
	Peers map[string]string `yaml:"peers" mapstructure:"peers"`
	// Timeout is the timeout for a single send
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// QueueSize is the capacity of the event queue
	QueueSize int `yaml:"queueSize" mapstructure:"queueSize"`
}

// Validate validates the transport configuration
func (c *Config) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)
	for peer, target := range c.Peers {
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			log.ErrorContext(ctx, "Peer URL must start with 'http://' or 'https://'", "peer", peer, "url", target)
			return ErrInvalidPeerURL{Peer: PeerID(peer), URL: target}
		}
	}
	if c.Timeout < 0 {
		log.ErrorContext(ctx, "The transport timeout should be equal or above 0", "timeout", c.Timeout)
		return ErrInvalidTimeout
	}
	return nil
}
