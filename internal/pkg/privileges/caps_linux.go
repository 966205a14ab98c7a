// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"kernel.org/pub/linux/libs/security/libcap/cap"
)

// hostCapabilities is the libcap-backed capabilities implementation.
type hostCapabilities struct{}

func (hostCapabilities) Supported() bool {
	return cap.MaxBits() > 0
}

func (hostCapabilities) Current() (capabilitySet, error) {
	set, err := cap.GetPID(0)
	if err != nil {
		return nil, err
	}

	return &hostCapabilitySet{set: set}, nil
}

func (hostCapabilities) Empty() capabilitySet {
	return &hostCapabilitySet{set: cap.NewSet()}
}

func (hostCapabilities) RaiseAmbient(val cap.Value) error {
	return cap.SetAmbient(true, val)
}

func (hostCapabilities) ClearAmbient() error {
	return cap.ResetAmbient()
}

// hostCapabilitySet adapts *cap.Set to the capabilitySet interface.
type hostCapabilitySet struct {
	set *cap.Set
}

func (s *hostCapabilitySet) Dup() (capabilitySet, error) {
	dup, err := s.set.Dup()
	if err != nil {
		return nil, err
	}

	return &hostCapabilitySet{set: dup}, nil
}

func (s *hostCapabilitySet) Has(flag cap.Flag, val cap.Value) (bool, error) {
	return s.set.GetFlag(flag, val)
}

func (s *hostCapabilitySet) Add(flag cap.Flag, val cap.Value) error {
	return s.set.SetFlag(flag, true, val)
}

func (s *hostCapabilitySet) Commit() error {
	return s.set.SetProc()
}

func (s *hostCapabilitySet) Differs(ref capabilitySet) (bool, error) {
	other, ok := ref.(*hostCapabilitySet)
	if !ok {
		return true, nil
	}

	diff, err := s.set.Cf(other.set)
	if err != nil {
		return false, err
	}

	return diff != 0, nil
}

func (s *hostCapabilitySet) String() string {
	return s.set.String()
}
