// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package simulation

import log "gopkg.in/inconshreveable/log15.v2"

// logger is this package's scoped logger, grounded on the teacher's
// server/http.go package-logger pattern. It defaults to a discard
// handler so tests and library callers who never call InitializeLogger
// don't see log15's default terminal output.
var logger = log.New("module", "simulation")

func init() {
	logger.SetHandler(log.DiscardHandler())
}

// InitializeLogger attaches this package's logger as a child of parent,
// so a caller (typically cmd/ts2trainsim) can route simulation-package
// log records through its own handler chain.
func InitializeLogger(parent log.Logger) {
	logger = parent.New("module", "simulation")
}
