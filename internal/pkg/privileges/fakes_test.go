// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"os/user"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sys/unix"
	"kernel.org/pub/linux/libs/security/libcap/cap"
)

// fakeSystem implements system in memory.
type fakeSystem struct {
	euid int

	gidTriple [3]int
	uidTriple [3]int
	groups    []int

	groupsByName map[string]int
	groupNames   map[int]string
	pathGroups   map[string]int
	accounts     map[string]account

	keepCapsCalled bool

	setGroupTripleErr error
	setUserTripleErr  error
	setGroupsErr      error

	gidTripleHistory [][3]int
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		groupsByName: map[string]int{},
		groupNames:   map[int]string{},
		pathGroups:   map[string]int{},
		accounts:     map[string]account{},
	}
}

func (s *fakeSystem) EffectiveUserID() int { return s.euid }

func (s *fakeSystem) KeepCapabilities() error {
	s.keepCapsCalled = true

	return nil
}

func (s *fakeSystem) GroupTriple() (int, int, int) {
	return s.gidTriple[0], s.gidTriple[1], s.gidTriple[2]
}

func (s *fakeSystem) SetGroupTriple(rgid, egid, sgid int) error {
	if s.setGroupTripleErr != nil {
		return s.setGroupTripleErr
	}

	s.gidTriple = [3]int{rgid, egid, sgid}
	s.gidTripleHistory = append(s.gidTripleHistory, s.gidTriple)

	return nil
}

func (s *fakeSystem) SetUserTriple(ruid, euid, suid int) error {
	if s.setUserTripleErr != nil {
		return s.setUserTripleErr
	}

	s.uidTriple = [3]int{ruid, euid, suid}
	s.euid = euid

	return nil
}

func (s *fakeSystem) SupplementaryGroups() ([]int, error) {
	return slices.Clone(s.groups), nil
}

func (s *fakeSystem) SetSupplementaryGroups(gids []int) error {
	if s.setGroupsErr != nil {
		return s.setGroupsErr
	}

	s.groups = slices.Clone(gids)

	return nil
}

func (s *fakeSystem) PathOwningGroup(path string) (int, error) {
	gid, ok := s.pathGroups[path]
	if !ok {
		return 0, unix.ENOENT
	}

	return gid, nil
}

func (s *fakeSystem) LookupAccount(name string) (account, error) {
	acct, ok := s.accounts[name]
	if !ok {
		return account{}, user.UnknownUserError(name)
	}

	return acct, nil
}

func (s *fakeSystem) LookupAccountID(uid int) (account, error) {
	for _, acct := range s.accounts {
		if acct.UID == uid {
			return acct, nil
		}
	}

	return account{}, user.UnknownUserIdError(uid)
}

func (s *fakeSystem) LookupGroup(name string) (int, error) {
	gid, ok := s.groupsByName[name]
	if !ok {
		return 0, user.UnknownGroupError(name)
	}

	return gid, nil
}

func (s *fakeSystem) GroupName(gid int) (string, bool) {
	name, ok := s.groupNames[gid]

	return name, ok
}

// fakeCapabilities implements capabilities in memory, counting kernel-side
// effects so ordering properties can be asserted.
type fakeCapabilities struct {
	supported bool

	proc    *fakeCapSet
	commits int

	ambient        map[cap.Value]bool
	ambientRaises  int
	ambientCleared bool
	ambientErr     error

	currentErr error
}

func newFakeCapabilities(permitted, effective []cap.Value) *fakeCapabilities {
	c := &fakeCapabilities{
		supported: true,
		ambient:   map[cap.Value]bool{},
	}

	c.proc = newFakeCapSet(c)

	for _, val := range permitted {
		c.proc.flags[cap.Permitted][val] = true
	}

	for _, val := range effective {
		c.proc.flags[cap.Effective][val] = true
	}

	return c
}

func (c *fakeCapabilities) Supported() bool { return c.supported }

func (c *fakeCapabilities) Current() (capabilitySet, error) {
	if c.currentErr != nil {
		return nil, c.currentErr
	}

	return c.proc.clone(), nil
}

func (c *fakeCapabilities) Empty() capabilitySet {
	return newFakeCapSet(c)
}

func (c *fakeCapabilities) RaiseAmbient(val cap.Value) error {
	if c.ambientErr != nil {
		return c.ambientErr
	}

	c.ambient[val] = true
	c.ambientRaises++

	return nil
}

func (c *fakeCapabilities) ClearAmbient() error {
	c.ambient = map[cap.Value]bool{}
	c.ambientCleared = true

	return nil
}

// effective returns the effective set of the committed process state.
func (c *fakeCapabilities) effective() []cap.Value {
	return c.proc.raised(cap.Effective)
}

type fakeCapSet struct {
	owner *fakeCapabilities
	flags map[cap.Flag]map[cap.Value]bool
}

func newFakeCapSet(owner *fakeCapabilities) *fakeCapSet {
	return &fakeCapSet{
		owner: owner,
		flags: map[cap.Flag]map[cap.Value]bool{
			cap.Permitted:   {},
			cap.Effective:   {},
			cap.Inheritable: {},
		},
	}
}

func (s *fakeCapSet) clone() *fakeCapSet {
	dup := newFakeCapSet(s.owner)

	for flag, vals := range s.flags {
		for val, raised := range vals {
			dup.flags[flag][val] = raised
		}
	}

	return dup
}

func (s *fakeCapSet) raised(flag cap.Flag) []cap.Value {
	var vals []cap.Value

	for val, raised := range s.flags[flag] {
		if raised {
			vals = append(vals, val)
		}
	}

	slices.Sort(vals)

	return vals
}

func (s *fakeCapSet) Dup() (capabilitySet, error) {
	return s.clone(), nil
}

func (s *fakeCapSet) Has(flag cap.Flag, val cap.Value) (bool, error) {
	return s.flags[flag][val], nil
}

func (s *fakeCapSet) Add(flag cap.Flag, val cap.Value) error {
	s.flags[flag][val] = true

	return nil
}

func (s *fakeCapSet) Commit() error {
	s.owner.proc = s.clone()
	s.owner.commits++

	return nil
}

func (s *fakeCapSet) Differs(ref capabilitySet) (bool, error) {
	other, ok := ref.(*fakeCapSet)
	if !ok {
		return true, nil
	}

	for _, flag := range []cap.Flag{cap.Permitted, cap.Effective, cap.Inheritable} {
		if !slices.Equal(s.raised(flag), other.raised(flag)) {
			return true, nil
		}
	}

	return false, nil
}

func (s *fakeCapSet) String() string {
	var parts []string

	for _, val := range s.raised(cap.Effective) {
		parts = append(parts, val.String())
	}

	return strings.Join(parts, ",")
}

// newTestProgram builds a Program over fakes with an observed logger.
func newTestProgram(t *testing.T, sys *fakeSystem, caps *fakeCapabilities) (*Program, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)

	return &Program{
		logger: zap.New(core),
		sys:    sys,
		caps:   caps,
		exit:   func(int) {},
	}, logs
}
