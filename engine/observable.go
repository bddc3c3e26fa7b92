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

// Observable is a value cell with a self-rearming event: every Set fires
// whoever was waiting on the current event, then swaps in a fresh Pending
// event so a subsequent WaitFor call only sees future changes. Grounded
// on simobj.h's OBSERVABLE_PROPERTY(TYP, NAM, VAL) macro — the macro's
// private value + NAM_event + get_NAM/set_NAM trio translates directly
// into this generic type, since Go has no macros to reach for instead.
type Observable[T any] struct {
	value T
	event *Event
}

// NewObservable returns an Observable holding initial, with a fresh
// Pending event.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial, event: NewEvent()}
}

// Get returns the current value.
func (o *Observable[T]) Get() T { return o.value }

// Event returns the event that fires the next time Set is called. Each
// call to Set replaces this with a new event, so holding a reference from
// before a Set only ever observes that one transition.
func (o *Observable[T]) Event() *Event { return o.event }

// Set stores value, fires the current event with the previous value (so
// a waiter can tell what changed from), and rearms a fresh Pending event.
func (o *Observable[T]) Set(value T) {
	prev := o.value
	o.value = value
	old := o.event
	o.event = NewEvent()
	old.markTriggered(prev)
	old.fire()
}
