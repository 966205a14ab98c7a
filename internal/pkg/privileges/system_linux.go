// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// hostSystem is the kernel-backed system implementation.
type hostSystem struct{}

func (hostSystem) EffectiveUserID() int {
	return unix.Geteuid()
}

func (hostSystem) KeepCapabilities() error {
	return unix.Prctl(unix.PR_SET_KEEPCAPS, 1, 0, 0, 0)
}

func (hostSystem) GroupTriple() (rgid, egid, sgid int) {
	return unix.Getresgid()
}

func (hostSystem) SetGroupTriple(rgid, egid, sgid int) error {
	return unix.Setresgid(rgid, egid, sgid)
}

func (hostSystem) SetUserTriple(ruid, euid, suid int) error {
	return unix.Setresuid(ruid, euid, suid)
}

func (hostSystem) SupplementaryGroups() ([]int, error) {
	return unix.Getgroups()
}

func (hostSystem) SetSupplementaryGroups(gids []int) error {
	return unix.Setgroups(gids)
}

func (hostSystem) PathOwningGroup(path string) (int, error) {
	var st unix.Stat_t

	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}

	return int(st.Gid), nil
}

func (hostSystem) LookupAccount(name string) (account, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return account{}, err
	}

	return accountFromUser(u)
}

func (hostSystem) LookupAccountID(uid int) (account, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return account{}, err
	}

	return accountFromUser(u)
}

func (hostSystem) LookupGroup(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("non-numeric gid %q for group %q: %w", g.Gid, name, err)
	}

	return gid, nil
}

func (hostSystem) GroupName(gid int) (string, bool) {
	g, err := user.LookupGroupId(strconv.Itoa(gid))
	if err != nil {
		return "", false
	}

	return g.Name, true
}

func accountFromUser(u *user.User) (account, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return account{}, fmt.Errorf("non-numeric uid %q for user %q: %w", u.Uid, u.Username, err)
	}

	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return account{}, fmt.Errorf("non-numeric gid %q for user %q: %w", u.Gid, u.Username, err)
	}

	return account{Name: u.Username, UID: uid, GID: gid}, nil
}
