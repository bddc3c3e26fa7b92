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
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/ts2/ts2trainsim/engine"
)

// twoBlockInput builds a minimal Up-direction line:
//
//	boundary(0) -- tvdA(1) -- detA(2) -- sig(3) -- tvdB(4) -- detB(5) -- boundary(6)
//
// with a single route "R1" spanning tvdA+tvdB, entry signal sig.
func twoBlockInput() *SimulatorInput {
	return &SimulatorInput{
		Infrastructure: Infrastructure{
			DriveGraph: []ObjSpec{
				{Kind: KindBoundary, Name: "w0", Up: 1, UpLength: 0, Down: linkBoundary},
				{Kind: KindTVD, Name: "tvdA", Up: 2, UpLength: 100, Down: 0, DownLength: 0},
				{Kind: KindDetector, Name: "detA", Up: 3, UpLength: 0, Down: 1, DownLength: 0, UpTVD: 4, DownTVD: 1},
				{Kind: KindSignal, Name: "sig", Up: 4, UpLength: 0, Down: 2, DownLength: 0, Dir: Up, Detector: 5},
				{Kind: KindTVD, Name: "tvdB", Up: 5, UpLength: 100, Down: 3, DownLength: 0},
				{Kind: KindDetector, Name: "detB", Up: 6, UpLength: 0, Down: 4, DownLength: 0, UpTVD: linkNone, DownTVD: 4},
				{Kind: KindBoundary, Name: "w1", Up: linkBoundary, Down: 5, DownLength: 0},
			},
		},
		Routes: map[string]RouteSpec{
			"R1": {EntrySignal: 3, TVDs: []int{1, 4}, Length: 200},
		},
	}
}

func TestRouteActivationLifecycle(t *testing.T) {
	Convey("Given a two-block line with route R1", t, func() {
		sink := NewSliceSink()
		w, err := Build(twoBlockInput(), sink)
		So(err, ShouldBeNil)

		Convey("activating the route reserves its TVDs and opens its entry signal", func() {
			route := w.Routes["R1"]
			route.Activate(w)
			w.Scheduler.Run()

			sig := w.Signal(ObjRef(3))
			So(sig.Green.Get(), ShouldBeTrue)
			So(sig.Authority.Get(), ShouldEqual, 200.0)
			So(w.TVD(ObjRef(1)).Allocated().Get(), ShouldBeTrue)
			So(w.TVD(ObjRef(4)).Allocated().Get(), ShouldBeTrue)

			var starts, ends int
			for _, ti := range sink.Items {
				if ti.Item.Kind == KindRouteActivation {
					if ti.Item.Marker == Start {
						starts++
					} else {
						ends++
					}
				}
			}
			So(starts, ShouldEqual, 1)
			So(ends, ShouldEqual, 1)
		})

		Convey("catchSignal closes the signal once its paired detector is touched", func() {
			route := w.Routes["R1"]
			route.Activate(w)
			w.Scheduler.Run()

			det := w.Detector(ObjRef(5))
			det.arriveFront(w, Up)
			w.Scheduler.Run()

			sig := w.Signal(ObjRef(3))
			So(sig.Green.Get(), ShouldBeFalse)
			So(sig.Authority.Get(), ShouldEqual, 0.0)
		})

		Convey("a second route sharing a TVD waits until the first releases it", func() {
			route := w.Routes["R1"]
			route.Activate(w)
			w.Scheduler.Run()

			activatedSecond := false
			second := &Route{name: "R2", EntrySignal: NoRef, TVDs: []ObjRef{1}}
			w.Routes["R2"] = second
			proc := second.Activate(w)
			proc.Event().AddHandler(func(*engine.Event) { activatedSecond = true })
			w.Scheduler.Run()
			So(activatedSecond, ShouldBeFalse)

			w.TVD(ObjRef(1)).Allocated().Set(false)
			w.Scheduler.Run()
			So(activatedSecond, ShouldBeTrue)
		})
	})
}

func TestSwitchTurnAndAbort(t *testing.T) {
	Convey("Given a standalone switch", t, func() {
		sink := NewSliceSink()
		w := NewWorld(sink)
		sw := newSwitch(ObjRef(0), "sw1", NewLink(ObjRef(1), 10), NewLink(ObjRef(2), 10), NewLink(ObjRef(3), 10), Up, Left)
		w.Objects = []InfrastructureObject{sw}
		w.resources[ObjRef(0)] = sw

		Convey("turning completes and derives state from position", func() {
			sw.Turn(w, Right)
			w.Scheduler.Run()
			So(sw.Position, ShouldEqual, 1.0)
			So(sw.State.Get(), ShouldEqual, Right)
		})

		Convey("reversing an in-flight turn freezes it part-way, then the reversal completes at Left", func() {
			sw.Turn(w, Right)
			w.Scheduler.AdvanceBy(TurningTime / 2)
			sw.Turn(w, Left)
			w.Scheduler.Run()
			So(sw.State.Get(), ShouldEqual, Left)
			So(sw.Position, ShouldEqual, 0.0)
		})
	})
}

func TestSimulateEndToEnd(t *testing.T) {
	Convey("Given a plan that activates R1 then spawns a train", t, func() {
		input := twoBlockInput()
		input.Plan = []PlanItem{
			{Dt: 0, Route: "R1"},
			{Dt: 1, Train: &TrainInput{
				Name:      "T1",
				Params:    LinearTrainParams{MaxAcc: 1, MaxBrk: 1, MaxVel: 20, Length: 20},
				StartDir:  Up,
				StartObj:  0,
				Authority: 0,
			}},
		}
		sink := NewSliceSink()
		w, err := Simulate(input, sink)
		So(err, ShouldBeNil)
		So(len(w.trains), ShouldEqual, 1)
	})
}
