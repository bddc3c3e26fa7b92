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

import "github.com/ts2/ts2trainsim/engine"

// SwitchReq is one (Switch, required SwitchState) pair in a Route.
type SwitchReq struct {
	Switch   ObjRef
	Required SwitchState
}

// ReleaseSpec pairs a trigger TVD with the resources its enter-then-leave
// transition releases.
type ReleaseSpec struct {
	Trigger   ObjRef
	Resources []ObjRef
}

// Route is a named bundle of resources, switch positions and a movement-
// authority length, whose Activate method runs the reservation/setup/
// release protocol of §4.3.
type Route struct {
	name        string
	EntrySignal ObjRef
	Switches    []SwitchReq
	TVDs        []ObjRef
	Releases    []ReleaseSpec
	Length      float64
}

func (r *Route) Name() string { return r.name }

// resources returns every TVD and Switch this route reserves, as the
// Resource interface.
func (r *Route) resources(w *World) []Resource {
	res := make([]Resource, 0, len(r.TVDs)+len(r.Switches))
	for _, ref := range r.TVDs {
		res = append(res, w.Resource(ref))
	}
	for _, sw := range r.Switches {
		res = append(res, w.Resource(sw.Switch))
	}
	return res
}

// Activate starts the route activation process and returns its handle.
// Grounded line-for-line on original_source/trainsim/objects/route.h's
// nested RouteActivation process (§4.3, steps 1-7).
func (r *Route) Activate(w *World) *engine.Process {
	return w.Scheduler.StartProcess(func(p *engine.Process) {
		w.emit(HistoryItem{Kind: KindRouteActivation, Marker: Start, Name: r.name})

		res := r.resources(w)
		for {
			var busy []*engine.Event
			for _, rs := range res {
				if rs.Allocated().Get() {
					busy = append(busy, rs.Allocated().Event())
				}
			}
			if len(busy) == 0 {
				break
			}
			engine.AllOf(p, busy...)
		}

		for _, rs := range res {
			rs.Allocated().Set(true)
			w.emit(HistoryItem{Kind: KindAllocation, Marker: Start, Name: rs.Name()})
		}

		if len(r.Switches) > 0 {
			for {
				var pending []*engine.Event
				for _, req := range r.Switches {
					sw := w.Switch(req.Switch)
					if sw.State.Get() != req.Required {
						pending = append(pending, sw.Turn(w, req.Required).Event())
					}
				}
				if len(pending) == 0 {
					break
				}
				engine.AllOf(p, pending...)
			}
		}

		for _, rel := range r.Releases {
			spec := rel
			w.Scheduler.StartProcess(releaseTrigger(w, spec))
		}

		if r.EntrySignal != NoRef {
			sig := w.Signal(r.EntrySignal)
			w.emit(HistoryItem{Kind: KindSignalAspect, Green: true, Name: sig.Name()})
			sig.Green.Set(true)
			sig.Authority.Set(r.Length)
			w.Scheduler.StartProcess(catchSignal(w, r.EntrySignal))
		}

		w.emit(HistoryItem{Kind: KindRouteActivation, Marker: End, Name: r.name})
	})
}

// releaseTrigger implements §4.5: wait for the trigger TVD to be entered,
// then for it to be vacated, then free every listed resource.
func releaseTrigger(w *World, spec ReleaseSpec) engine.ProcessFunc {
	return func(p *engine.Process) {
		tvd := w.TVD(spec.Trigger)
		p.WaitFor(tvd.Occupied.Event())
		p.WaitFor(tvd.Occupied.Event())
		for _, ref := range spec.Resources {
			res := w.Resource(ref)
			w.emit(HistoryItem{Kind: KindAllocation, Marker: End, Name: res.Name()})
			res.Allocated().Set(false)
		}
	}
}

// catchSignal implements §4.6: close the signal on the first touch of its
// paired detector.
func catchSignal(w *World, sigRef ObjRef) engine.ProcessFunc {
	return func(p *engine.Process) {
		sig := w.Signal(sigRef)
		det := w.Detector(sig.Detector)
		p.WaitFor(det.Touched.Event())
		w.emit(HistoryItem{Kind: KindSignalAspect, Green: false, Name: sig.Name()})
		sig.Green.Set(false)
		sig.Authority.Set(0)
	}
}
