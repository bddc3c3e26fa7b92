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

import "container/heap"

// queuedEvent pairs a scheduled firing time with an insertion sequence so
// that events scheduled for the same instant fire in the order they were
// queued (simcpp's QueuedEvent{time, id, event}, FIFO tie-break).
type queuedEvent struct {
	time float64
	seq  uint64
	run  func()
}

// eventHeap is a min-heap on (time, seq), the Go container/heap idiom
// replacing simcpp's std::priority_queue with a reversed comparator.
type eventHeap []*queuedEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*queuedEvent)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler is the virtual-time discrete-event engine: a time-ordered
// queue of pending actions, advanced one event at a time. It never reads
// the wall clock; time only moves forward when Step/AdvanceBy/AdvanceTo/
// Run are called. Grounded on simcpp.h's Simulation class.
type Scheduler struct {
	now   float64
	queue eventHeap
	seq   uint64
}

// NewScheduler returns a Scheduler with virtual time at zero.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.queue)
	return s
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 { return s.now }

// Schedule queues run to execute after delay virtual-time units from now.
// delay must be >= 0.
func (s *Scheduler) Schedule(delay float64, run func()) {
	s.seq++
	heap.Push(&s.queue, &queuedEvent{time: s.now + delay, seq: s.seq, run: run})
}

// Timeout returns an event that fires after delay virtual-time units,
// with no value. Grounded on simcpp.h's Simulation::timeout.
func (s *Scheduler) Timeout(delay float64) *Event {
	e := NewEvent()
	e.markTriggered(nil)
	s.Schedule(delay, e.fire)
	return e
}

// Step pops and runs the single earliest-scheduled action, advancing Now
// to its time. It reports false if the queue was empty.
func (s *Scheduler) Step() bool {
	if s.queue.Len() == 0 {
		return false
	}
	qe := heap.Pop(&s.queue).(*queuedEvent)
	s.now = qe.time
	qe.run()
	return true
}

// AdvanceBy runs every action scheduled within dt virtual-time units of
// Now, then advances Now by exactly dt (even past the last action, so a
// silent interval still moves time forward).
func (s *Scheduler) AdvanceBy(dt float64) {
	s.AdvanceToTime(s.now + dt)
}

// AdvanceToTime runs every action scheduled at or before t, then sets Now
// to t (never backwards: if Now is already past t, this is a no-op on
// time, but still drains nothing since the queue only holds future
// actions). This is a clock-jump helper, distinct from AdvanceTo's
// event-based wait.
func (s *Scheduler) AdvanceToTime(t float64) {
	for s.queue.Len() > 0 && s.queue[0].time <= t {
		qe := heap.Pop(&s.queue).(*queuedEvent)
		s.now = qe.time
		qe.run()
	}
	if t > s.now {
		s.now = t
	}
}

// AdvanceTo steps the scheduler until event is no longer Pending (i.e. it
// has been triggered, processed or aborted) or the queue empties, whichever
// comes first. Grounded on simcpp.h's bool advance_to(EventPtr event) and
// its use in il.cpp to block a driver loop on a route's activation event.
func (s *Scheduler) AdvanceTo(event *Event) bool {
	for event.State() == Pending {
		if !s.Step() {
			return false
		}
	}
	return true
}

// Run drains the queue entirely, i.e. runs the simulation to completion.
func (s *Scheduler) Run() {
	for s.Step() {
	}
}

// Pending reports whether any action remains queued.
func (s *Scheduler) Pending() bool { return s.queue.Len() > 0 }
