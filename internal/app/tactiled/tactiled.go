// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package tactiled assembles and runs the daemon.
package tactiled

import (
	"context"

	"go.uber.org/zap"

	"github.com/tactiled/tactiled/internal/pkg/config"
	"github.com/tactiled/tactiled/internal/pkg/kmodule"
	"github.com/tactiled/tactiled/internal/pkg/privileges"
	"github.com/tactiled/tactiled/pkg/logging"
)

// Run starts the daemon: the privilege bootstrap first, before anything else,
// then the remaining subsystems until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	options := []privileges.Option{}

	if cfg.KernelModules {
		installer := kmodule.NewInstaller(logger.With(logging.Component("kmodule")))

		options = append(options, privileges.WithKernelModuleInstaller(installer.InstallAll))
	}

	privileges.New(logger.With(logging.Component("privileges")), options...).Establish(cfg.User)

	// The screen reader, braille display drivers and the API service attach
	// here; they rely on the reduced identity established above.
	logger.Info("daemon ready")

	<-ctx.Done()

	logger.Info("daemon shutting down")

	return nil
}
