// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package kmodule installs the kernel modules the daemon depends on.
package kmodule

import (
	"fmt"

	"github.com/pmorjan/kmod"
	"go.uber.org/zap"

	"github.com/tactiled/tactiled/pkg/constants"
)

// Installer loads kernel modules, logging its own failures. It is handed to
// the privilege bootstrap as a collaborator and is only effective while the
// process still holds module-loading rights.
type Installer struct {
	logger *zap.Logger
	load   func(name, params string, flags int) error
}

// NewInstaller builds an Installer backed by the kernel module loader.
func NewInstaller(logger *zap.Logger) *Installer {
	return &Installer{
		logger: logger,
		load: func(name, params string, flags int) error {
			manager, err := kmod.New()
			if err != nil {
				return fmt.Errorf("error initializing kmod manager: %w", err)
			}

			return manager.Load(name, params, flags)
		},
	}
}

// InstallSpeakerModule loads the PC speaker driver, used for alert tones.
func (i *Installer) InstallSpeakerModule() {
	i.install(constants.SpeakerModuleName)
}

// InstallUinputModule loads the userspace input device driver, used for
// creating virtual devices and injecting typed input.
func (i *Installer) InstallUinputModule() {
	i.install(constants.UinputModuleName)
}

// InstallAll loads every module the daemon depends on.
func (i *Installer) InstallAll() {
	i.InstallSpeakerModule()
	i.InstallUinputModule()
}

func (i *Installer) install(name string) {
	if err := i.load(name, "", 0); err != nil {
		i.logger.Warn("can't install kernel module", zap.String("module", name), zap.Error(err))

		return
	}

	i.logger.Debug("kernel module installed", zap.String("module", name))
}
