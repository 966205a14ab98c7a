// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"errors"
	"os/user"
	"slices"
	"strconv"
	"strings"

	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"
)

// requiredGroup declares a group the daemon needs to join, as a group name
// and/or a representative device path whose owning group is taken.
type requiredGroup struct {
	reason string
	name   string
	path   string
}

// requiredGroupTable is compiled in; the rows are preserved verbatim across
// releases for deployment compatibility.
var requiredGroupTable = []requiredGroup{
	{
		reason: "for reading screen content",
		name:   "tty",
		path:   "/dev/vcs1",
	},
	{
		reason: "for virtual console monitoring and control",
		name:   "tty",
		path:   "/dev/tty1",
	},
	{
		reason: "for serial I/O",
		name:   "dialout",
		path:   "/dev/ttyS0",
	},
	{
		reason: "for USB I/O via USBFS",
		path:   "/dev/bus/usb",
	},
	{
		reason: "for playing sound via the ALSA framework",
		name:   "audio",
		path:   "/dev/snd/seq",
	},
	{
		reason: "for playing sound via the Pulse Audio daemon",
		name:   "pulse-access",
	},
	{
		reason: "for monitoring keyboard input",
		name:   "input",
		path:   "/dev/input/mice",
	},
	{
		reason: "for creating virtual devices",
		path:   "/dev/uinput",
	},
}

// resolveRequiredGroups resolves the required group table to gids, ascending
// with duplicates removed. Rows that fail to resolve are logged and skipped.
func (p *Program) resolveRequiredGroups() []int {
	gids := make([]int, 0, len(requiredGroupTable)*2)

	for _, required := range requiredGroupTable {
		if required.name != "" {
			if gid, err := p.sys.LookupGroup(required.name); err == nil {
				gids = append(gids, gid)
			} else {
				var unknown user.UnknownGroupError

				if errors.As(err, &unknown) {
					p.logger.Warn("unknown user group", zap.String("group", required.name))
				} else {
					p.logSystemError("getgrnam", err)
				}
			}
		}

		if required.path != "" {
			gid, err := p.sys.PathOwningGroup(required.path)
			if err != nil {
				p.logger.Warn("path access error", zap.String("path", required.path), zap.Error(err))
			} else {
				gids = append(gids, gid)
			}
		}
	}

	slices.Sort(gids)

	return slices.Compact(gids)
}

// joinRequiredGroups replaces the supplementary groups of the process with
// the resolved required set.
func (p *Program) joinRequiredGroups(bool) {
	gids := p.resolveRequiredGroups()

	p.logger.Debug("setting supplementary groups", zap.String("groups", p.formatGroups(gids)))

	if err := p.sys.SetSupplementaryGroups(gids); err != nil {
		p.logSystemError("setgroups", err)
	}
}

// logUnjoinedGroups diagnoses required groups the process does not hold.
func (p *Program) logUnjoinedGroups() {
	current, err := p.sys.SupplementaryGroups()
	if err != nil {
		p.logSystemError("getgroups", err)

		return
	}

	slices.Sort(current)
	current = slices.Compact(current)

	for _, gid := range missingGroups(current, p.resolveRequiredGroups()) {
		p.logger.Warn("group not joined", zap.String("group", p.formatGroup(gid)))
	}
}

// missingGroups returns the required ids absent from current, in order.
// Both inputs must be sorted ascending and deduplicated; extra ids held
// beyond the requirements are not reported.
func missingGroups(current, required []int) []int {
	var missing []int

	cursor := 0

	for _, gid := range required {
		for cursor < len(current) && current[cursor] < gid {
			cursor++
		}

		if cursor < len(current) && current[cursor] == gid {
			cursor++

			continue
		}

		missing = append(missing, gid)
	}

	return missing
}

func (p *Program) formatGroups(gids []int) string {
	return strings.Join(xslices.Map(gids, p.formatGroup), " ")
}

func (p *Program) formatGroup(gid int) string {
	if name, ok := p.groupName(gid); ok {
		return strconv.Itoa(gid) + "(" + name + ")"
	}

	return strconv.Itoa(gid)
}

// groupName resolves a gid to a name, memoizing lookups until the groups
// database is released.
func (p *Program) groupName(gid int) (string, bool) {
	if cached, ok := p.groupNames[gid]; ok {
		return cached.name, cached.ok
	}

	name, ok := p.sys.GroupName(gid)

	if p.groupNames == nil {
		p.groupNames = map[int]groupNameEntry{}
	}

	p.groupNames[gid] = groupNameEntry{name: name, ok: ok}

	return name, ok
}

type groupNameEntry struct {
	name string
	ok   bool
}

// closeGroupsDatabase releases the group lookup cache held across the
// bootstrap steps.
func (p *Program) closeGroupsDatabase() {
	p.groupNames = nil
}
