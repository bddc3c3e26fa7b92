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

// InfrastructureObject is the tagged-variant IO node: every concrete type
// in this file (Signal, Detector, Sight, Switch, Boundary, Stop, TVD)
// implements it. Dispatch that the source expresses with virtual methods
// on a deep class hierarchy is a type switch here (see Train.arriveFront/
// arriveBack in train.go) — there is deliberately no ArriveFront/ArriveBack
// method on this interface.
type InfrastructureObject interface {
	Ref() ObjRef
	Name() string
	Kind() ObjKind
	// Next returns the outgoing link in the given direction.
	Next(dir Direction) Link
}

type node struct {
	ref  ObjRef
	name string
}

func (n node) Ref() ObjRef  { return n.ref }
func (n node) Name() string { return n.name }

// singleTrack is embedded by every IO variant that has at most one link
// per direction (i.e. everything except Switch).
type singleTrack struct {
	up   Link
	down Link
}

func (s singleTrack) Next(dir Direction) Link {
	if dir == Up {
		return s.up
	}
	return s.down
}

// Resource is the aspect shared by TVD and Switch: an observable
// allocation flag, written only by Route activation (true) and
// ReleaseTrigger (false). Grounded on Design Note §9's "factor the shared
// aspect into a side table" guidance — both TVD and Switch satisfy this
// interface directly, and World additionally keeps a Resource-indexed
// side table (World.resources) for code that only cares about the
// aspect, not the full variant.
type Resource interface {
	InfrastructureObject
	Allocated() *engine.Observable[bool]
}

// Signal is a point device granting or denying movement authority in a
// single direction, closed automatically by its paired downstream
// Detector.
type Signal struct {
	node
	singleTrack
	Dir       Direction
	Detector  ObjRef
	Green     *engine.Observable[bool]
	Authority *engine.Observable[float64]
}

func (s *Signal) Kind() ObjKind { return KindSignal }

func newSignal(ref ObjRef, name string, dir Direction, detector ObjRef) *Signal {
	return &Signal{
		node:      node{ref: ref, name: name},
		Dir:       dir,
		Detector:  detector,
		Green:     engine.NewObservable(false),
		Authority: engine.NewObservable(0.0),
	}
}

// Detector is a point on the track that reports a TVD transition when
// crossed, and re-fires a "touched" event on every front/back arrival.
type Detector struct {
	node
	singleTrack
	UpTVD   ObjRef
	DownTVD ObjRef
	Touched *engine.Observable[int]
}

func (d *Detector) Kind() ObjKind { return KindDetector }

func newDetector(ref ObjRef, name string, upTVD, downTVD ObjRef) *Detector {
	return &Detector{
		node:    node{ref: ref, name: name},
		UpTVD:   upTVD,
		DownTVD: downTVD,
		Touched: engine.NewObservable(0),
	}
}

func (d *Detector) touch() { d.Touched.Set(d.Touched.Get() + 1) }

// arriveFront implements §4.7's arrive_front: set the TVD the train is
// entering (the one ahead in its direction of travel) occupied, then fire
// touched.
func (d *Detector) arriveFront(w *World, dir Direction) {
	switch dir {
	case Up:
		if d.UpTVD != NoRef {
			w.TVD(d.UpTVD).Occupied.Set(true)
		}
	case Down:
		if d.DownTVD != NoRef {
			w.TVD(d.DownTVD).Occupied.Set(true)
		}
	}
	d.touch()
}

// arriveBack implements §4.7's arrive_back: clear the TVD on the side the
// train is leaving from, then fire touched.
func (d *Detector) arriveBack(w *World, dir Direction) {
	switch dir {
	case Up:
		if d.DownTVD != NoRef {
			w.TVD(d.DownTVD).Occupied.Set(false)
		}
	case Down:
		if d.UpTVD != NoRef {
			w.TVD(d.UpTVD).Occupied.Set(false)
		}
	}
	d.touch()
}

// Sight is a virtual point where an approaching train becomes aware of a
// signal at a given forward distance.
type Sight struct {
	node
	singleTrack
	Signal   ObjRef
	Distance float64
}

func (s *Sight) Kind() ObjKind { return KindSight }

func newSight(ref ObjRef, name string, signal ObjRef, distance float64) *Sight {
	return &Sight{node: node{ref: ref, name: name}, Signal: signal, Distance: distance}
}

// Switch is a three-way junction: an entry link, and a left/right pair on
// the "split" side (the direction in which the switch actually diverges).
// Its discrete state is derived from its continuous position (§4.4),
// never set independently — this is the spec's resolution of the source's
// "leaves state stuck at Unknown" ambiguity (see DESIGN.md).
type Switch struct {
	node
	Entry, Left, Right Link
	SplitDir           Direction
	Position           float64
	State              *engine.Observable[SwitchState]
	Alloc              *engine.Observable[bool]
	Turning            *engine.Process
}

func (s *Switch) Kind() ObjKind                       { return KindSwitch }
func (s *Switch) Allocated() *engine.Observable[bool] { return s.Alloc }

func newSwitch(ref ObjRef, name string, entry, left, right Link, splitDir Direction, initial SwitchState) *Switch {
	pos := 0.0
	if initial == Right {
		pos = 1.0
	}
	return &Switch{
		node:     node{ref: ref, name: name},
		Entry:    entry,
		Left:     left,
		Right:    right,
		SplitDir: splitDir,
		Position: pos,
		State:    engine.NewObservable(initial),
		Alloc:    engine.NewObservable(false),
	}
}

// Next implements the switch's direction-dependent routing: travelling in
// SplitDir, the train is routed to Left or Right depending on which side
// of the midpoint the continuous position currently sits; travelling the
// other way, every path converges on Entry.
func (s *Switch) Next(dir Direction) Link {
	if dir == s.SplitDir {
		if s.Position >= 0.5 {
			return s.Right
		}
		return s.Left
	}
	return s.Entry
}

// Boundary marks the edge of the reachable world: its link on the outward
// side is BoundaryLink. Arrival at its front is a no-op; a train exits
// when its front finds that BoundaryLink ahead. Arrival at its back (the
// train's rear clearing it) calls Train.clearedBoundary, which does
// nothing.
type Boundary struct {
	node
	singleTrack
}

func (b *Boundary) Kind() ObjKind { return KindBoundary }

func newBoundary(ref ObjRef, name string, up, down Link) *Boundary {
	return &Boundary{node: node{ref: ref, name: name}, singleTrack: singleTrack{up: up, down: down}}
}

// Stop is an inert geographic marker with no behaviour of its own.
type Stop struct {
	node
	singleTrack
}

func (s *Stop) Kind() ObjKind { return KindStop }

func newStop(ref ObjRef, name string, up, down Link) *Stop {
	return &Stop{node: node{ref: ref, name: name}, singleTrack: singleTrack{up: up, down: down}}
}

// TVD (Track-Vacancy Detection section) is a shared resource whose
// occupancy is reported by its bounding Detectors and whose allocation is
// owned by Route activation/release.
type TVD struct {
	node
	singleTrack
	Occupied *engine.Observable[bool]
	Alloc    *engine.Observable[bool]
}

func (t *TVD) Kind() ObjKind                       { return KindTVD }
func (t *TVD) Allocated() *engine.Observable[bool] { return t.Alloc }

func newTVD(ref ObjRef, name string) *TVD {
	return &TVD{
		node:     node{ref: ref, name: name},
		Occupied: engine.NewObservable(false),
		Alloc:    engine.NewObservable(false),
	}
}
