// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.

package engine

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSchedulerOrdering(t *testing.T) {
	Convey("Given a scheduler with actions at different times", t, func() {
		s := NewScheduler()
		var order []string
		s.Schedule(10, func() { order = append(order, "b") })
		s.Schedule(5, func() { order = append(order, "a") })
		s.Schedule(10, func() { order = append(order, "c") })

		Convey("Run executes them in (time, insertion) order", func() {
			s.Run()
			So(order, ShouldResemble, []string{"a", "b", "c"})
			So(s.Now(), ShouldEqual, 10.0)
		})

		Convey("AdvanceToTime stops time exactly where asked, even past the last action", func() {
			s.AdvanceToTime(20)
			So(order, ShouldResemble, []string{"a", "b", "c"})
			So(s.Now(), ShouldEqual, 20.0)
			So(s.Pending(), ShouldBeFalse)
		})

		Convey("AdvanceBy only runs actions within the window", func() {
			s.AdvanceBy(6)
			So(order, ShouldResemble, []string{"a"})
			So(s.Now(), ShouldEqual, 6.0)
			So(s.Pending(), ShouldBeTrue)
		})
	})
}

func TestSchedulerAdvanceToEvent(t *testing.T) {
	Convey("Given a scheduler with a process finishing partway through the queue", t, func() {
		s := NewScheduler()
		proc := s.StartProcess(func(p *Process) { p.Sleep(10) })
		s.Schedule(20, func() {})

		Convey("AdvanceTo steps only until the event is no longer pending", func() {
			ok := s.AdvanceTo(proc.Event())
			So(ok, ShouldBeTrue)
			So(proc.Event().IsProcessed(), ShouldBeTrue)
			So(s.Now(), ShouldEqual, 10.0)
			So(s.Pending(), ShouldBeTrue)
		})

		Convey("AdvanceTo reports false if the queue empties before the event fires", func() {
			never := NewEvent()
			ok := s.AdvanceTo(never)
			So(ok, ShouldBeFalse)
			So(s.Pending(), ShouldBeFalse)
		})
	})
}

func TestTimeout(t *testing.T) {
	Convey("Given a scheduler and a process waiting on a timeout", t, func() {
		s := NewScheduler()
		var woke bool
		var wokeAt float64
		s.StartProcess(func(p *Process) {
			p.Sleep(5)
			woke = true
			wokeAt = p.Scheduler().Now()
		})

		Convey("the process resumes once time reaches the delay", func() {
			So(woke, ShouldBeFalse)
			s.Run()
			So(woke, ShouldBeTrue)
			So(wokeAt, ShouldEqual, 5.0)
		})
	})
}

func TestProcessWaitChain(t *testing.T) {
	Convey("Given two processes, one waiting on the other's completion event", t, func() {
		s := NewScheduler()
		var log []string

		var first *Process
		first = s.StartProcess(func(p *Process) {
			p.Sleep(1)
			log = append(log, "first-done")
		})
		s.StartProcess(func(p *Process) {
			p.WaitFor(first.Event())
			log = append(log, "second-done")
		})

		Convey("the second process resumes only after the first finishes", func() {
			s.Run()
			So(log, ShouldResemble, []string{"first-done", "second-done"})
		})
	})
}

func TestProcessAbort(t *testing.T) {
	Convey("Given a process parked waiting on a long timeout", t, func() {
		s := NewScheduler()
		var cleaned bool
		proc := s.StartProcess(func(p *Process) {
			defer func() {
				if p.Aborted() {
					cleaned = true
				}
			}()
			p.Sleep(100)
		})

		Convey("Abort resumes it immediately as Aborted", func() {
			proc.Abort()
			So(proc.Event().IsAborted(), ShouldBeTrue)
			So(cleaned, ShouldBeTrue)
		})

		Convey("a later firing of the timeout it was waiting on is harmless", func() {
			proc.Abort()
			s.Run()
			So(proc.Event().IsAborted(), ShouldBeTrue)
		})
	})
}

func TestAnyOfAllOf(t *testing.T) {
	Convey("Given a scheduler with two timeouts", t, func() {
		s := NewScheduler()

		Convey("AnyOf resumes on the first one to fire", func() {
			var resumedAt float64
			s.StartProcess(func(p *Process) {
				AnyOf(p, s.Timeout(3), s.Timeout(9))
				resumedAt = p.Scheduler().Now()
			})
			s.Run()
			So(resumedAt, ShouldEqual, 3.0)
		})

		Convey("AllOf resumes only once every event has fired", func() {
			var resumedAt float64
			s.StartProcess(func(p *Process) {
				AllOf(p, s.Timeout(3), s.Timeout(9))
				resumedAt = p.Scheduler().Now()
			})
			s.Run()
			So(resumedAt, ShouldEqual, 9.0)
		})
	})
}

func TestObservable(t *testing.T) {
	Convey("Given an observable bool", t, func() {
		s := NewScheduler()
		obs := NewObservable(false)

		Convey("a waiter resumes with the value at the moment it changed", func() {
			var seen interface{}
			s.StartProcess(func(p *Process) {
				seen = p.WaitFor(obs.Event())
			})
			obs.Set(true)
			So(seen, ShouldEqual, false)
			So(obs.Get(), ShouldEqual, true)
		})

		Convey("each Set rearms a fresh event so stale references don't refire", func() {
			e1 := obs.Event()
			obs.Set(true)
			So(e1.IsProcessed(), ShouldBeTrue)
			So(obs.Event(), ShouldNotEqual, e1)
		})
	})
}
