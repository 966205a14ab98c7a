// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package privileges implements the least-privilege bootstrap for the daemon.
//
// The daemon needs access to hardware normally reserved for privileged
// processes: virtual consoles, serial lines, USB, sound, raw input and device
// node creation. Run once at startup, before anything else, the bootstrap
// acquires exactly the rights a compiled-in table declares, drops everything
// else, switches to an unprivileged account when possible, and logs anything
// it could not obtain. The sequence degrades gracefully whether the process
// was started as root or as a regular user holding a few file capabilities.
package privileges
