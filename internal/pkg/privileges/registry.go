// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"github.com/siderolabs/go-pointer"
	"kernel.org/pub/linux/libs/security/libcap/cap"
)

// acquisitionEntry is one row of the ordered privileged action registry.
type acquisitionEntry struct {
	// reason justifies the action and is surfaced when it cannot be taken.
	reason string

	// acquire performs the action; the argument reports whether the process
	// is still running privileged.
	acquire func(privileged bool)

	// gate is the capability the action needs when not privileged. A nil
	// gate means the action inherently requires full privilege and is
	// skipped on the unprivileged path.
	gate *cap.Value

	// always marks an action that runs on both paths without gating. Only
	// the capability fixer qualifies: it can only shrink privilege.
	always bool

	// logMissing diagnoses anything the action did not fully secure. Runs
	// during the finalizing pass, on both paths, regardless of outcome.
	logMissing func()

	// release frees resources held across the bootstrap steps.
	release func()
}

// acquisitionRegistry builds the ordered registry. The capability fixer, when
// present, must stay last: it relinquishes the temporary ambient grants the
// earlier entries may still depend on.
func (p *Program) acquisitionRegistry() []acquisitionEntry {
	supported := p.caps.Supported()

	gate := func(val cap.Value) *cap.Value {
		if !supported {
			return nil
		}

		return pointer.To(val)
	}

	registry := []acquisitionEntry{
		{
			reason:  "for installing kernel modules",
			acquire: p.installKernelModules,
			gate:    gate(cap.SYS_MODULE),
		},
		{
			reason:     "for joining required groups",
			acquire:    p.joinRequiredGroups,
			logMissing: p.logUnjoinedGroups,
			release:    p.closeGroupsDatabase,
			gate:       gate(cap.SETGID),
		},
	}

	if supported {
		registry = append(registry, acquisitionEntry{
			reason:     "for assigning required capabilities",
			acquire:    p.setRequiredCapabilities,
			logMissing: p.logMissingCapabilities,
			always:     true,
		})
	}

	return registry
}

// acquirePrivileges drives the registry: an acquisition pass whose shape
// depends on whether the process is privileged, then an unconditional
// finalizing pass that diagnoses unmet requirements and releases resources
// without perturbing privilege state.
func (p *Program) acquirePrivileges(privileged bool) {
	registry := p.acquisitionRegistry()
	unmet := make([]bool, len(registry))

	switch {
	case privileged:
		// Full rights are already held; no gating is consulted.
		for _, entry := range registry {
			entry.acquire(privileged)
		}

	case p.caps.Supported():
		set, err := p.caps.Current()
		if err != nil {
			p.logSystemError("cap_get_proc", err)

			break
		}

		for i, entry := range registry {
			switch {
			case entry.always:
				entry.acquire(privileged)
			case entry.gate == nil:
				// Nothing to gain by trying without full privilege.
			case p.ensureCapability(set, *entry.gate, entry.reason):
				entry.acquire(privileged)
			default:
				unmet[i] = true
			}
		}
	}

	for i, entry := range registry {
		if unmet[i] && entry.gate != nil {
			p.logUnassignedCapability(*entry.gate, entry.reason)
		}

		if entry.logMissing != nil {
			entry.logMissing()
		}

		if entry.release != nil {
			entry.release()
		}
	}
}

// installKernelModules invokes the kernel-module installer collaborator, if
// one is configured. The collaborator logs its own failures.
func (p *Program) installKernelModules(bool) {
	if p.installModules != nil {
		p.installModules()
	}
}
