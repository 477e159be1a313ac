// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/telekom/parrot/pkg/api"
	"github.com/telekom/parrot/pkg/telemetry"
	"github.com/telekom/parrot/pkg/tracker"
	"github.com/telekom/parrot/pkg/transport"
)

// Config is the startup configuration of the parrot
type Config struct {
	// ParrotName is the DNS name of the parrot
	ParrotName string `yaml:"name" mapstructure:"name"`
	// Api is the configuration for the api server
	Api api.Config `yaml:"api" mapstructure:"api"`
	// Telemetry is the configuration for the telemetry
	Telemetry telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`
	// Tracker is the configuration for the span correlation core
	Tracker tracker.Config `yaml:"tracker" mapstructure:"tracker"`
	// Transport is the configuration for the reflector transport
	Transport transport.Config `yaml:"transport" mapstructure:"transport"`
}

// NewConfig creates a new config with default values
func NewConfig() *Config {
	return &Config{
		Api: api.Config{
			ListeningAddress: ":8080",
		},
	}
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}
