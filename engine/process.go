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

// Process is a sequence of steps suspended between events and resumed by
// the scheduler at the exact point it last waited. simcpp expresses this
// with a C++ protothread macro that resumes a function at its last
// suspension point; Go has no such macro, so each Process here is backed
// by its own goroutine, parked on a channel receive at every WaitFor call
// and handed the baton back one synchronous send at a time. Exactly one
// goroutine is ever doing simulation work: whoever holds the baton runs
// until it either finishes or calls WaitFor, at which point the baton
// passes to whoever (the scheduler, or another process) caused the event
// it was waiting on to fire. The goroutines are a translation device for
// "resume at last suspension point", not a source of real parallelism, so
// no locking is needed anywhere in this package or in package simulation.
type Process struct {
	sched    *Scheduler
	yield    chan struct{}
	resume   chan *Event
	event    *Event
	abort    bool
	finished bool
	gen      uint64
}

// ProcessFunc is the body of a process. It receives a handle used to wait
// on events; it returns when the process is finished. A process must not
// retain p.resume/p.yield itself — all interaction goes through p's
// exported methods.
type ProcessFunc func(p *Process)

// abortSignal unwinds a process's goroutine stack via panic/recover when
// Abort resumes it while parked in WaitFor. It is always recovered inside
// StartProcess and never escapes a Process.
type abortSignal struct{}

// StartProcess spawns fn as a new process and runs it until it either
// finishes or reaches its first WaitFor, then returns a handle to it
// (this mirrors simcpp's start_process, which resumes the new process
// once, synchronously, as part of starting it). The handle's Event fires
// (Processed) when fn returns normally, or is Aborted if fn unwinds
// because Abort was called.
func (s *Scheduler) StartProcess(fn ProcessFunc) *Process {
	p := &Process{
		sched:  s,
		yield:  make(chan struct{}),
		resume: make(chan *Event),
		event:  NewEvent(),
	}
	go func() {
		defer func() {
			r := recover()
			if r != nil {
				if _, ok := r.(abortSignal); !ok {
					panic(r)
				}
			}
			p.finished = true
			p.event.markTriggered(nil)
			if p.abort {
				p.event.abort()
			} else {
				p.event.fire()
			}
			p.yield <- struct{}{}
		}()
		fn(p)
	}()
	<-p.yield
	return p
}

// Event returns the process's own completion event.
func (p *Process) Event() *Event { return p.event }

// Aborted reports whether this process was aborted rather than finishing
// normally. Only meaningful once Event() has fired.
func (p *Process) Aborted() bool { return p.abort }

// Scheduler returns the scheduler this process runs under, so domain code
// can schedule further events/processes from within a running process.
func (p *Process) Scheduler() *Scheduler { return p.sched }

// WaitFor suspends the calling process until e fires or is aborted, and
// returns e's value. Grounded on simcpp.h's PROC_WAIT_FOR macro.
func (p *Process) WaitFor(e *Event) interface{} {
	if p.abort {
		panic(abortSignal{})
	}
	if e.state == Processed || e.state == Aborted {
		return e.Value()
	}
	myGen := p.gen
	e.AddHandler(func(fired *Event) {
		if p.gen != myGen {
			// Stale: this process was already resumed some other way
			// (Abort) before e got around to firing.
			return
		}
		p.gen++
		p.resume <- fired
		<-p.yield
	})
	p.yield <- struct{}{}
	fired := <-p.resume
	if p.abort {
		panic(abortSignal{})
	}
	return fired.Value()
}

// Sleep suspends the calling process for delay virtual-time units.
func (p *Process) Sleep(delay float64) {
	p.WaitFor(p.sched.Timeout(delay))
}

// Abort cancels the process. It must only be called while the target
// process is parked in WaitFor (true of any process reachable from
// domain code, since the cooperative scheduling discipline guarantees a
// process is either currently holding the baton — impossible to call
// into — or parked waiting). If the process has already finished, Abort
// is a no-op. Grounded on simcpp.h's Process::abort() / its Aborted()
// hook, which here is ordinary Go defer/recover in the process body
// rather than a virtual method, since Go has no inheritance to override.
func (p *Process) Abort() {
	if p.finished || p.abort {
		return
	}
	p.abort = true
	p.gen++
	p.resume <- nil
	<-p.yield
}
