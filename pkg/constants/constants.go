// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package constants defines compiled-in defaults shared across tactiled.
package constants

const (
	// AppName is the name of the daemon.
	AppName = "tactiled"

	// DefaultUnprivilegedUser is the account the daemon switches to when no
	// target account is requested explicitly. An empty value disables the
	// default switch and the daemon keeps running as the invoking user.
	DefaultUnprivilegedUser = "tactiled"

	// DefaultConfigPath is where the daemon looks for its configuration file.
	DefaultConfigPath = "/etc/tactiled/config.yaml"

	// SpeakerModuleName is the kernel module driving the PC speaker, used for
	// alert tones.
	SpeakerModuleName = "pcspkr"

	// UinputModuleName is the kernel module providing the userspace input
	// device interface, used for creating virtual devices and injecting
	// typed input.
	UinputModuleName = "uinput"
)
