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

import (
	"math"

	"github.com/ts2/ts2trainsim/engine"
)

// Turn commands the switch towards target, aborting any turn already in
// flight (I3). It returns the handle of the TurnSwitch process driving
// the motion (or of a no-op process, already finished, if the switch is
// already at target). Grounded on original_source/trainsim/objects/
// switch.h's Switch::turn.
func (s *Switch) Turn(w *World, target SwitchState) *engine.Process {
	if s.Turning != nil {
		s.Turning.Abort()
		s.Turning = nil
	}
	if s.State.Get() == target {
		return w.Scheduler.StartProcess(func(p *engine.Process) {})
	}
	s.State.Set(Unknown)
	start := s.Position
	end := 0.0
	if target == Right {
		end = 1.0
	}

	proc := w.Scheduler.StartProcess(func(p *engine.Process) {
		startTime := p.Scheduler().Now()
		dur := TurningTime * math.Abs(end-start)
		defer func() {
			if p.Aborted() {
				// In-flight reversal: freeze at the position reached so
				// far, computed from elapsed virtual time (§4.4).
				elapsed := p.Scheduler().Now() - startTime
				frac := 0.0
				if dur > 0 {
					frac = elapsed / dur
				}
				sign := 1.0
				if end < start {
					sign = -1.0
				}
				newPos := start + sign*math.Abs(end-start)*frac
				s.setPosition(w, newPos)
			}
			s.Turning = nil
		}()
		if dur > Epsilon {
			p.Sleep(dur)
		}
		if !p.Aborted() {
			s.setPosition(w, end)
		}
	})
	s.Turning = proc
	return proc
}

// setPosition updates the continuous position, emits MovablePosition to
// the sink, and derives state from position: exactly 0.0 -> Left, exactly
// 1.0 -> Right, anything else -> Unknown. This is the spec's resolution
// of the source's ambiguous state/position reconciliation (see
// DESIGN.md's Open Question decisions) — state is always position-
// derived, never set independently.
func (s *Switch) setPosition(w *World, pos float64) {
	s.Position = pos
	var st SwitchState
	switch {
	case math.Abs(pos) < Epsilon:
		st = Left
	case math.Abs(pos-1) < Epsilon:
		st = Right
	default:
		st = Unknown
	}
	w.emit(HistoryItem{Kind: KindMovablePosition, Name: s.name, State: st})
	s.State.Set(st)
}
