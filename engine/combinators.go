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

package engine

// AnyOf suspends the calling process until the first of events fires,
// and returns that event's value. The remaining events are left exactly
// as they were: callers that care about the other events (e.g. to abort
// a losing wait) must do so themselves. Grounded on simcpp.h's AnyOf
// process class.
func AnyOf(p *Process, events ...*Event) interface{} {
	for _, e := range events {
		if e.state == Processed || e.state == Aborted {
			return e.Value()
		}
	}
	result := NewEvent()
	done := false
	for _, e := range events {
		e.AddHandler(func(fired *Event) {
			if done {
				return
			}
			done = true
			result.markTriggered(fired.Value())
			result.fire()
		})
	}
	return p.WaitFor(result)
}

// AllOf suspends the calling process until every one of events has
// fired, and returns their values in the same order. Each event is
// tracked independently as it fires (re-evaluated per item), matching
// simcpp.h's AllOf process class.
func AllOf(p *Process, events ...*Event) []interface{} {
	n := len(events)
	values := make([]interface{}, n)
	remaining := n
	result := NewEvent()
	for i, e := range events {
		i, e := i, e
		if e.state == Processed || e.state == Aborted {
			values[i] = e.Value()
			remaining--
			continue
		}
		e.AddHandler(func(fired *Event) {
			values[i] = fired.Value()
			remaining--
			if remaining == 0 {
				result.markTriggered(values)
				result.fire()
			}
		})
	}
	if remaining == 0 {
		return values
	}
	p.WaitFor(result)
	return values
}
