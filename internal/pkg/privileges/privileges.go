// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"os"

	"go.uber.org/zap"
	"kernel.org/pub/linux/libs/security/libcap/cap"

	"github.com/tactiled/tactiled/pkg/constants"
)

// Program drives the privilege bootstrap of the process. It is the sole
// mutator of the process identity and capability state for the bootstrap
// window; nothing else may run concurrently with Establish.
type Program struct {
	logger *zap.Logger

	sys  system
	caps capabilities

	installModules func()
	defaultUser    string
	exit           func(code int)

	groupNames map[int]groupNameEntry

	established bool
}

// Option configures a Program.
type Option func(*Program)

// WithKernelModuleInstaller wires the kernel-module installer collaborator.
// The installer performs its effect and logs its own internal failures; its
// outcome is not inspected.
func WithKernelModuleInstaller(install func()) Option {
	return func(p *Program) {
		p.installModules = install
	}
}

// WithDefaultUser overrides the compiled-in default unprivileged account.
func WithDefaultUser(name string) Option {
	return func(p *Program) {
		p.defaultUser = name
	}
}

// New builds a Program against the host kernel interfaces.
func New(logger *zap.Logger, options ...Option) *Program {
	p := &Program{
		logger:      logger,
		sys:         hostSystem{},
		caps:        hostCapabilities{},
		defaultUser: constants.DefaultUnprivilegedUser,
		exit:        os.Exit,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// Establish performs the full acquire/drop sequence and returns once the
// process privileges are as reduced as achievable. All outcomes surface via
// the logging channel; the one fatal condition is the failure of an
// explicitly requested account switch, which terminates the process.
//
// Establish must run exactly once, before any other subsystem starts.
func (p *Program) Establish(targetUser string) {
	if p.established {
		panic("program privileges already established")
	}

	p.established = true

	p.logCurrentCapabilities("at start")

	privileged := p.sys.EffectiveUserID() == 0
	canSwitchUser := privileged
	canSwitchGroup := privileged

	if p.caps.Supported() {
		if err := p.sys.KeepCapabilities(); err != nil {
			p.logSystemError("prctl[PR_SET_KEEPCAPS]", err)
		}

		p.wantSwitchCapabilities(&canSwitchUser, &canSwitchGroup)
	}

	if canSwitchUser && canSwitchGroup && p.switchUser(targetUser, privileged) {
		// Trust the switch's own reported outcome rather than re-querying
		// the identity.
		privileged = false
	} else {
		p.logInvokingUser()
	}

	p.acquirePrivileges(privileged)

	p.logCurrentCapabilities("after relinquish")
}

// wantSwitchCapabilities secures the setuid/setgid capabilities needed for
// the account switch, mutating a duplicate of the current set and committing
// only when the duplicate ends up different.
func (p *Program) wantSwitchCapabilities(canSwitchUser, canSwitchGroup *bool) {
	current, err := p.caps.Current()
	if err != nil {
		p.logSystemError("cap_get_proc", err)

		return
	}

	next, err := current.Dup()
	if err != nil {
		p.logSystemError("cap_dup", err)

		return
	}

	p.wantCapability(canSwitchUser, next, cap.SETUID,
		"for switching to the default unprivileged user")
	p.wantCapability(canSwitchGroup, next, cap.SETGID,
		"for switching to the writable group")

	differs, err := next.Differs(current)
	if err != nil {
		p.logSystemError("cap_compare", err)

		return
	}

	if differs {
		p.commitCapabilities(next)
	}
}

// logSystemError records a failing kernel primitive by name, with the OS
// error text. Non-fatal: callers decide whether to skip the dependent action.
func (p *Program) logSystemError(call string, err error) {
	p.logger.Error("system call failed", zap.String("syscall", call), zap.Error(err))
}
