// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/telekom/parrot/internal/logger"
	"github.com/telekom/parrot/pkg/config"
	"github.com/telekom/parrot/pkg/parrot"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run parrot",
		RunE:  run,
	}
}

// run is the entry point to start the parrot
func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.IntoContext(ctx, logger.NewLogger())

	cfg := config.NewConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return fmt.Errorf("error while validating the config: %w", err)
	}

	p, err := parrot.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create parrot: %w", err)
	}
	if err := p.Run(ctx); err != nil && !errors.Is(err, parrot.ErrFinalShutdown) {
		return fmt.Errorf("error while running parrot: %w", err)
	}
	return nil
}
