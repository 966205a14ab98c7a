// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

// account is the result of an account database lookup.
type account struct {
	Name string
	UID  int
	GID  int
}

// system abstracts the process identity and account database primitives the
// bootstrap mutates. The host implementation talks to the kernel; tests
// substitute a fake so the ordering and rollback guarantees can be verified
// without running as root.
type system interface {
	// EffectiveUserID returns the effective uid of the process.
	EffectiveUserID() int

	// KeepCapabilities asks the kernel to retain permitted capabilities
	// across an upcoming uid change.
	KeepCapabilities() error

	// GroupTriple returns the real, effective and saved gids.
	GroupTriple() (rgid, egid, sgid int)

	// SetGroupTriple sets the real, effective and saved gids.
	SetGroupTriple(rgid, egid, sgid int) error

	// SetUserTriple sets the real, effective and saved uids.
	SetUserTriple(ruid, euid, suid int) error

	// SupplementaryGroups returns the supplementary group ids of the process.
	SupplementaryGroups() ([]int, error)

	// SetSupplementaryGroups replaces the supplementary group ids.
	SetSupplementaryGroups(gids []int) error

	// PathOwningGroup returns the gid owning the file at path.
	PathOwningGroup(path string) (int, error)

	// LookupAccount finds an account by name.
	LookupAccount(name string) (account, error)

	// LookupAccountID finds an account by uid.
	LookupAccountID(uid int) (account, error)

	// LookupGroup finds a group id by group name.
	LookupGroup(name string) (int, error)

	// GroupName finds a group name by id; reports whether it is known.
	GroupName(gid int) (string, bool)
}
