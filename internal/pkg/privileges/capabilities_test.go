// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"kernel.org/pub/linux/libs/security/libcap/cap"
)

func TestEnsureCapabilityIdempotent(t *testing.T) {
	t.Parallel()

	caps := newFakeCapabilities([]cap.Value{cap.SETGID}, nil)
	p, _ := newTestProgram(t, newFakeSystem(), caps)

	set, err := caps.Current()
	require.NoError(t, err)

	require.True(t, p.ensureCapability(set, cap.SETGID, "testing"))
	assert.Equal(t, 1, caps.commits)

	// already effective: no further commit
	require.True(t, p.ensureCapability(set, cap.SETGID, "testing"))
	assert.Equal(t, 1, caps.commits)
}

func TestEnsureCapabilityNotPermitted(t *testing.T) {
	t.Parallel()

	caps := newFakeCapabilities(nil, nil)
	p, logs := newTestProgram(t, newFakeSystem(), caps)

	set, err := caps.Current()
	require.NoError(t, err)

	assert.False(t, p.ensureCapability(set, cap.MKNOD, "for creating device files"))
	assert.Zero(t, caps.commits)

	failed := logs.FilterMessage("can't enable capability").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "for creating device files", failed[0].ContextMap()["reason"])
}

func TestEnableCapabilityAmbientBestEffort(t *testing.T) {
	t.Parallel()

	caps := newFakeCapabilities([]cap.Value{cap.SETUID}, nil)
	caps.ambientErr = unix.EPERM

	p, logs := newTestProgram(t, newFakeSystem(), caps)

	set, err := caps.Current()
	require.NoError(t, err)

	// the ambient raise fails, the enable does not
	assert.True(t, p.ensureCapability(set, cap.SETUID, "testing"))
	assert.Equal(t, 1, caps.commits)

	failed := logs.FilterMessage("system call failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "cap_set_ambient", failed[0].ContextMap()["syscall"])
}

func TestSetRequiredCapabilitiesPrivileged(t *testing.T) {
	t.Parallel()

	caps := newFakeCapabilities(nil, nil)
	p, _ := newTestProgram(t, newFakeSystem(), caps)

	p.setRequiredCapabilities(true)

	assert.Equal(t,
		[]cap.Value{cap.MKNOD, cap.SYS_ADMIN, cap.SYS_TTY_CONFIG},
		caps.effective())
	assert.Equal(t, 1, caps.commits)
	assert.True(t, caps.ambientCleared)
}

func TestSetRequiredCapabilitiesUnprivileged(t *testing.T) {
	t.Parallel()

	// only one of the required capabilities is permitted
	caps := newFakeCapabilities([]cap.Value{cap.SYS_TTY_CONFIG, cap.SETGID}, nil)
	p, _ := newTestProgram(t, newFakeSystem(), caps)

	p.setRequiredCapabilities(false)

	assert.Equal(t, []cap.Value{cap.SYS_TTY_CONFIG}, caps.effective())
	assert.True(t, caps.ambientCleared)
}

func TestLogMissingCapabilities(t *testing.T) {
	t.Parallel()

	caps := newFakeCapabilities(
		[]cap.Value{cap.SYS_ADMIN},
		[]cap.Value{cap.SYS_ADMIN})

	p, logs := newTestProgram(t, newFakeSystem(), caps)

	p.logMissingCapabilities()

	missing := logs.FilterMessage("capability not assigned").All()
	require.Len(t, missing, 2)

	assert.Equal(t, "cap_sys_tty_config", missing[0].ContextMap()["capability"])
	assert.Equal(t, "for playing alert tunes via the built-in PC speaker", missing[0].ContextMap()["reason"])
	assert.Equal(t, "cap_mknod", missing[1].ContextMap()["capability"])
	assert.Equal(t, "for creating needed but missing special device files", missing[1].ContextMap()["reason"])
}
