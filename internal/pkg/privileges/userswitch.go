// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package privileges

import (
	"errors"
	"os/user"
	"strconv"

	"go.uber.org/zap"
)

// switchToUser drops the process identity to the named account. The gid
// triple is set before the uid triple: once the uids drop, the process may no
// longer have the right to change its gids. If the uid change fails, the
// prior gid triple is restored.
func (p *Program) switchToUser(name string) bool {
	acct, err := p.sys.LookupAccount(name)
	if err != nil {
		var unknown user.UnknownUserError

		if errors.As(err, &unknown) {
			p.logger.Warn("user not found", zap.String("user", name))
		} else {
			p.logSystemError("getpwnam", err)
		}

		return false
	}

	if acct.UID == 0 {
		p.logger.Warn("user is privileged", zap.String("user", name))

		return false
	}

	rgid, egid, sgid := p.sys.GroupTriple()

	if err := p.sys.SetGroupTriple(acct.GID, acct.GID, acct.GID); err != nil {
		p.logSystemError("setresgid", err)

		return false
	}

	if err := p.sys.SetUserTriple(acct.UID, acct.UID, acct.UID); err != nil {
		p.logSystemError("setresuid", err)

		if err := p.sys.SetGroupTriple(rgid, egid, sgid); err != nil {
			p.logSystemError("setresgid", err)
		}

		return false
	}

	p.logger.Info("switched to user", zap.String("user", name))

	return true
}

// switchUser handles the account switch policy: an explicitly requested
// account must be switched to or the process terminates; the compiled-in
// default account is best effort.
func (p *Program) switchUser(name string, privileged bool) bool {
	if name != "" {
		if !privileged {
			p.logger.Warn("not executing as a privileged user")
		} else if p.switchToUser(name) {
			return true
		}

		// Continuing as an unintended privileged identity is worse than
		// refusing to start.
		p.logger.Error("can't switch to explicitly specified user", zap.String("user", name))
		p.exit(1)

		return false
	}

	if name = p.defaultUser; name != "" {
		if p.switchToUser(name) {
			return true
		}

		p.logger.Warn("couldn't switch to default unprivileged user", zap.String("user", name))
	}

	return false
}

// logInvokingUser records the identity the process keeps running as when no
// switch happened.
func (p *Program) logInvokingUser() {
	uid := p.sys.EffectiveUserID()

	name := strconv.Itoa(uid)
	if acct, err := p.sys.LookupAccountID(uid); err == nil {
		name = acct.Name
	}

	p.logger.Info("continuing to execute as invoking user", zap.String("user", name))
}
