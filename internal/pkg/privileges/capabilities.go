// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"go.uber.org/zap"
	"kernel.org/pub/linux/libs/security/libcap/cap"
)

// capabilitySet is an in-memory snapshot of the permitted, effective and
// inheritable capability sets. Mutations have no kernel effect until Commit.
type capabilitySet interface {
	// Dup returns an independent copy.
	Dup() (capabilitySet, error)

	// Has reports whether val is raised in the given flag vector.
	Has(flag cap.Flag, val cap.Value) (bool, error)

	// Add raises val in the given flag vector, in memory only.
	Add(flag cap.Flag, val cap.Value) error

	// Commit makes the snapshot the real capability state of the process.
	Commit() error

	// Differs reports whether the snapshot differs from ref.
	Differs(ref capabilitySet) (bool, error)

	// String renders the snapshot for audit logging.
	String() string
}

// capabilities abstracts the process capability facility. The host
// implementation is backed by libcap; tests substitute a fake.
type capabilities interface {
	// Supported reports whether the capability facility is usable at all.
	Supported() bool

	// Current returns a snapshot of the process capability state.
	Current() (capabilitySet, error)

	// Empty returns a snapshot with no capability raised anywhere.
	Empty() capabilitySet

	// RaiseAmbient raises val in the ambient set of the process.
	RaiseAmbient(val cap.Value) error

	// ClearAmbient lowers the entire ambient set of the process.
	ClearAmbient() error
}

// requiredCapability declares one capability the daemon needs, tied to its
// justification.
type requiredCapability struct {
	reason     string
	capability cap.Value
}

// requiredCapabilityTable is compiled in; the rows are preserved verbatim
// across releases for deployment compatibility.
var requiredCapabilityTable = []requiredCapability{
	{
		reason:     "for injecting input characters typed on a braille device",
		capability: cap.SYS_ADMIN,
	},
	{
		reason:     "for playing alert tunes via the built-in PC speaker",
		capability: cap.SYS_TTY_CONFIG,
	},
	{
		reason:     "for creating needed but missing special device files",
		capability: cap.MKNOD,
	},
}

func (p *Program) logCurrentCapabilities(label string) {
	set, err := p.caps.Current()
	if err != nil {
		p.logSystemError("cap_get_proc", err)

		return
	}

	p.logger.Debug("capabilities", zap.String("state", label), zap.String("sets", set.String()))
}

func (p *Program) hasCapability(set capabilitySet, flag cap.Flag, val cap.Value) bool {
	has, err := set.Has(flag, val)
	if err != nil {
		p.logSystemError("cap_get_flag", err)

		return false
	}

	return has
}

func (p *Program) addCapability(set capabilitySet, flag cap.Flag, val cap.Value) bool {
	if err := set.Add(flag, val); err != nil {
		p.logSystemError("cap_set_flag", err)

		return false
	}

	return true
}

func (p *Program) commitCapabilities(set capabilitySet) bool {
	if err := set.Commit(); err != nil {
		p.logSystemError("cap_set_proc", err)

		return false
	}

	return true
}

func (p *Program) clearAmbientCapabilities() {
	if err := p.caps.ClearAmbient(); err != nil {
		p.logSystemError("cap_reset_ambient", err)
	}
}

// enableCapability raises val in the effective and inheritable sets and
// commits. The capability must already be permitted. The ambient raise that
// follows is a convenience for descendant processes: its failure is logged
// but never fails the enable.
func (p *Program) enableCapability(set capabilitySet, val cap.Value) bool {
	if !p.hasCapability(set, cap.Permitted, val) {
		return false
	}

	if !p.addCapability(set, cap.Effective, val) {
		return false
	}

	if !p.addCapability(set, cap.Inheritable, val) {
		return false
	}

	if !p.commitCapabilities(set) {
		return false
	}

	if err := p.caps.RaiseAmbient(val); err != nil {
		p.logSystemError("cap_set_ambient", err)
	}

	return true
}

// ensureCapability makes val effective, enabling it first if necessary.
// Idempotent: an already effective capability triggers no commit.
func (p *Program) ensureCapability(set capabilitySet, val cap.Value, reason string) bool {
	if p.hasCapability(set, cap.Effective, val) {
		return true
	}

	if p.enableCapability(set, val) {
		return true
	}

	p.logger.Warn("can't enable capability",
		zap.Stringer("capability", val), zap.String("reason", reason))

	return false
}

// wantCapability tries to secure val unless can is already set, recording the
// outcome in can.
func (p *Program) wantCapability(can *bool, set capabilitySet, val cap.Value, reason string) {
	if *can {
		return
	}

	if p.ensureCapability(set, val, reason) {
		*can = true
	} else {
		p.logUnassignedCapability(val, reason)
	}
}

// setRequiredCapabilities fixes the permanent capability state: exactly the
// required capabilities, and of those only the ones the process is actually
// permitted when not privileged. Runs last; it also relinquishes the ambient
// grants raised while bootstrapping.
func (p *Program) setRequiredCapabilities(privileged bool) {
	var old capabilitySet

	if !privileged {
		var err error

		if old, err = p.caps.Current(); err != nil {
			p.logSystemError("cap_get_proc", err)

			return
		}
	}

	set := p.caps.Empty()

	for _, required := range requiredCapabilityTable {
		if old == nil || p.hasCapability(old, cap.Permitted, required.capability) {
			if !p.addCapability(set, cap.Permitted, required.capability) {
				break
			}

			if !p.addCapability(set, cap.Effective, required.capability) {
				break
			}
		}
	}

	p.commitCapabilities(set)
	p.clearAmbientCapabilities()
}

// logMissingCapabilities diagnoses required capabilities that did not end up
// effective. Side-effect free apart from logging.
func (p *Program) logMissingCapabilities() {
	set, err := p.caps.Current()
	if err != nil {
		p.logSystemError("cap_get_proc", err)

		return
	}

	for _, required := range requiredCapabilityTable {
		if !p.hasCapability(set, cap.Effective, required.capability) {
			p.logUnassignedCapability(required.capability, required.reason)
		}
	}
}

func (p *Program) logUnassignedCapability(val cap.Value, reason string) {
	p.logger.Warn("capability not assigned",
		zap.Stringer("capability", val), zap.String("reason", reason))
}
