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
	"sort"

	"github.com/ts2/ts2trainsim/engine"
)

// sightedSignal is one entry of Train.signalsInSight: a signal and the
// forward distance (from the train's front) at which it was sighted,
// updated every continuous-motion step.
type sightedSignal struct {
	Signal ObjRef
	Dist   float64
}

// trainNode is one entry of Train.nodesUnderTrain: an infrastructure
// object currently overlapped by the train's body, and the remaining
// distance until the train's rear clears it.
type trainNode struct {
	Obj      ObjRef
	RearDist float64
}

type location struct {
	Obj    ObjRef
	Offset float64
}

// TrainSpec is the per-train data carried by a Plan's Train item,
// grounded on original_source/il_inputspec.h's TrainRunSpec.
type TrainSpec struct {
	Name      string
	Params    LinearTrainParams
	StartDir  Direction
	StartObj  ObjRef
	Authority float64
	// Stops is carried for input round-trip fidelity but not consumed by
	// the control loop; see SPEC_FULL.md §4.13 and DESIGN.md's Open
	// Question decisions.
	Stops []string
}

// Train is the per-running-train state described by spec.md §3 "Train
// state". Grounded on original_source/trainsim/objects/train.cpp.
type Train struct {
	name   string
	params LinearTrainParams
	dir    Direction

	loc       location
	velocity  float64
	action    TrainAction
	lastT     float64
	authority float64

	signalsInSight  []sightedSignal
	nodesUnderTrain []trainNode
	hasExited       bool
}

// targetReason classifies which kind of discrete event node_dist found
// nearest: a plain distance-governed restriction target, a node the
// train's front is about to reach, a node its rear is about to clear, a
// dangling (non-boundary) end of track, or the reachable world's
// boundary. Grounded on original_source/trainsim/objects/train.cpp's
// TargetReason.
type targetReason int

const (
	reasonTarget targetReason = iota
	reasonReachNode
	reasonClearNode
	reasonNoTrack
	reasonExiting
)

// SpawnTrain constructs a Train from spec and starts its control-loop
// process (§4.8). The process's own Event fires when the train exits via
// a Boundary (or halts on a program error).
func (w *World) SpawnTrain(spec TrainSpec) *engine.Process {
	t := &Train{
		name:      spec.Name,
		params:    spec.Params,
		dir:       spec.StartDir,
		loc:       location{Obj: spec.StartObj, Offset: 0},
		authority: spec.Authority,
		action:    Coast,
	}
	t.nodesUnderTrain = append(t.nodesUnderTrain, trainNode{Obj: spec.StartObj, RearDist: spec.Params.Length})
	w.trains = append(w.trains, t)

	return w.Scheduler.StartProcess(func(p *engine.Process) {
		t.lastT = p.Scheduler().Now()
		t.arriveFront(w, w.Object(t.loc.Obj))

		for !t.hasExited {
			t.updateAuthority(w)

			maxX, reason := t.nodeDist(w)
			if reason == reasonNoTrack {
				logger.Error("train ran off dangling track", "train", t.name)
				return
			}

			profile := t.speedProfile()
			action, dt := trainStep(t.params, maxX, t.velocity, profile)
			t.action = action

			var waits []*engine.Event
			if dt > Epsilon {
				waits = append(waits, p.Scheduler().Timeout(dt))
			}
			for _, s := range t.signalsInSight {
				waits = append(waits, w.Signal(s.Signal).Authority.Event())
			}
			if len(waits) > 0 {
				engine.AnyOf(p, waits...)
			} else if maxX > Epsilon {
				// Nothing can wake the train and no transition is due:
				// it stays parked here for the rest of the run.
				p.WaitFor(engine.NewEvent())
			}

			now := p.Scheduler().Now()
			elapsed := now - t.lastT
			t.lastT = now
			dx, newV := trainUpdate(t.params, t.velocity, action, elapsed)
			t.velocity = newV
			t.loc.Offset += dx
			t.authority -= dx
			for i := range t.signalsInSight {
				t.signalsInSight[i].Dist -= dx
			}
			t.signalsInSight = dropPassedSignals(t.signalsInSight)
			for i := range t.nodesUnderTrain {
				t.nodesUnderTrain[i].RearDist -= dx
			}
			w.emit(HistoryItem{Kind: KindTrainStatus, Action: action, Dx: dx, Velocity: newV, Name: t.name})

			for !t.hasExited {
				dist, r := t.nodeDist(w)
				if dist > Epsilon {
					break
				}
				switch r {
				case reasonReachNode:
					t.reachNode(w)
				case reasonClearNode:
					t.clearNode(w)
				case reasonExiting:
					t.hasExited = true
				case reasonNoTrack:
					logger.Error("train ran off dangling track", "train", t.name)
					return
				}
			}
		}
	})
}

func dropPassedSignals(sig []sightedSignal) []sightedSignal {
	out := sig[:0]
	for _, s := range sig {
		if s.Dist > 0 {
			out = append(out, s)
		}
	}
	return out
}

// updateAuthority folds the distance-sorted sighted signals into a single
// scalar movement authority, per §4.9's sorted-scan formulation.
func (t *Train) updateAuthority(w *World) {
	a := t.authority
	for _, s := range t.signalsInSight {
		sig := w.Signal(s.Signal)
		a = s.Dist + sig.Authority.Get()
		if !sig.Green.Get() {
			a -= RedSafetyOffset
			break
		}
	}
	t.authority = a
}

// speedProfile builds the forward view for trainStep: the train's top
// speed, plus a restriction that it must be stopped by the time it has
// used up its current movement authority.
func (t *Train) speedProfile() SpeedProfile {
	return SpeedProfile{
		VmaxNow:      t.params.MaxVel,
		Restrictions: []SpeedRestriction{{DistAhead: t.authority, VTarget: 0}},
	}
}

// nodeDist returns the distance to, and classification of, the nearest
// discrete transition: either the train's front reaching the next node
// (or running off dangling/boundary track) or its rear clearing the
// nearest node still under it. Ties favour clearing the rear first.
// Grounded on original_source/trainsim/objects/train.cpp's node_dist.
func (t *Train) nodeDist(w *World) (float64, targetReason) {
	link := w.Object(t.loc.Obj).Next(t.dir)
	reachDist := 0.0
	reachReason := reasonReachNode
	switch link.Kind {
	case LinkNone:
		reachReason = reasonNoTrack
	case LinkBoundary:
		reachReason = reasonExiting
	case LinkNormal:
		reachDist = link.Length - t.loc.Offset
	}

	if len(t.nodesUnderTrain) > 0 {
		clearDist := t.nodesUnderTrain[0].RearDist
		if clearDist <= reachDist {
			return clearDist, reasonClearNode
		}
	}
	return reachDist, reachReason
}

// reachNode follows the current object's outgoing link, either exiting
// the train (boundary), halting it (dangling track, a program error), or
// moving its location onto the next object and running that object's
// arrival semantics.
func (t *Train) reachNode(w *World) {
	obj := w.Object(t.loc.Obj)
	link := obj.Next(t.dir)
	switch link.Kind {
	case LinkBoundary:
		t.hasExited = true
		return
	case LinkNone:
		logger.Error("train reached dangling track", "train", t.name)
		t.hasExited = true
		return
	}
	t.loc = location{Obj: link.Target, Offset: t.loc.Offset - link.Length}
	t.nodesUnderTrain = append(t.nodesUnderTrain, trainNode{Obj: link.Target, RearDist: t.params.Length})
	t.arriveFront(w, w.Object(link.Target))
}

// clearNode pops the rear-most node under the train and runs its back-
// arrival semantics.
func (t *Train) clearNode(w *World) {
	n := t.nodesUnderTrain[0]
	t.arriveBack(w, w.Object(n.Obj))
	t.nodesUnderTrain = t.nodesUnderTrain[1:]
}

// arriveFront dispatches an object's front-arrival semantics by type
// switch — the idiomatic Go replacement for the source's virtual
// arrive_front dispatch (Design Note §9).
func (t *Train) arriveFront(w *World, obj InfrastructureObject) {
	switch o := obj.(type) {
	case *Detector:
		o.arriveFront(w, t.dir)
	case *Sight:
		sig := w.Signal(o.Signal)
		if t.dir == sig.Dir {
			t.canSee(o.Signal, o.Distance)
		}
	}
}

// arriveBack dispatches an object's back-arrival semantics.
func (t *Train) arriveBack(w *World, obj InfrastructureObject) {
	switch o := obj.(type) {
	case *Detector:
		o.arriveBack(w, t.dir)
	case *Boundary:
		_ = o
		t.clearedBoundary()
	}
}

// clearedBoundary is invoked when the train's rear finally clears a
// Boundary object it already exited from the front. Reserved for future
// bookkeeping (e.g. removing the train from World.trains); currently a
// no-op since hasExited is already set by reachNode.
func (t *Train) clearedBoundary() {}

// canSee inserts (sig, dist) into signalsInSight keeping it sorted by
// ascending distance (I7).
func (t *Train) canSee(sig ObjRef, dist float64) {
	idx := sort.Search(len(t.signalsInSight), func(i int) bool {
		return t.signalsInSight[i].Dist >= dist
	})
	t.signalsInSight = append(t.signalsInSight, sightedSignal{})
	copy(t.signalsInSight[idx+1:], t.signalsInSight[idx:])
	t.signalsInSight[idx] = sightedSignal{Signal: sig, Dist: dist}
}

// cannotSee removes every sighting of sig. Reserved for future
// cancellation, per §4.8.
func (t *Train) cannotSee(sig ObjRef) {
	out := t.signalsInSight[:0]
	for _, s := range t.signalsInSight {
		if s.Signal != sig {
			out = append(out, s)
		}
	}
	t.signalsInSight = out
}

// HasExited reports whether the train has left the world via a Boundary.
func (t *Train) HasExited() bool { return t.hasExited }

// Name returns the train's name.
func (t *Train) Name() string { return t.name }
