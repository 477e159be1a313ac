// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

// Config is the configuration of the api server
type Config struct {
	// ListeningAddress is the address the api server listens on
	ListeningAddress string `yaml:"address" mapstructure:"address"`
}

// Validate validates the api configuration
func (c *Config) Validate() error {
	if c.ListeningAddress == "" {
		return ErrInvalidListeningAddress
	}
	return nil
}
