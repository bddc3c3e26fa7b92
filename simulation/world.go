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
	"fmt"

	"github.com/ts2/ts2trainsim/engine"
)

// World owns every infrastructure object, every route, the scheduler, and
// the active output sink — the single aggregate the orchestrator
// constructs, drives, and discards (Design Note §9: "the simulation core
// has no global state; a World aggregate owns everything").
type World struct {
	Objects   []InfrastructureObject
	Routes    map[string]*Route
	resources map[ObjRef]Resource
	Scheduler *engine.Scheduler
	Sink      OutputSink

	trains   []*Train
	lastEmit float64
}

// NewWorld returns an empty World ready for Build.
func NewWorld(sink OutputSink) *World {
	return &World{
		Routes:    make(map[string]*Route),
		resources: make(map[ObjRef]Resource),
		Scheduler: engine.NewScheduler(),
		Sink:      sink,
	}
}

// Object resolves ref against the arena. Callers are expected to only
// pass refs obtained from Build, so an out-of-range ref is a programming
// error, not a recoverable one.
func (w *World) Object(ref ObjRef) InfrastructureObject {
	return w.Objects[int(ref)]
}

func (w *World) Signal(ref ObjRef) *Signal     { return w.Object(ref).(*Signal) }
func (w *World) Detector(ref ObjRef) *Detector { return w.Object(ref).(*Detector) }
func (w *World) Sight(ref ObjRef) *Sight       { return w.Object(ref).(*Sight) }
func (w *World) Switch(ref ObjRef) *Switch     { return w.Object(ref).(*Switch) }
func (w *World) TVD(ref ObjRef) *TVD           { return w.Object(ref).(*TVD) }

// Resource resolves ref against the resource side table.
func (w *World) Resource(ref ObjRef) Resource { return w.resources[ref] }

// Name resolves ref to its object's name, for diagnostics and history.
func (w *World) Name(ref ObjRef) string {
	if ref == NoRef {
		return ""
	}
	return w.Object(ref).Name()
}

// emit writes item to the sink, computing dt since the previous emission
// (or since t=0 for the first one). Grounded on original_source/trainsim/
// simulate.cpp's FuncWriter, which tracks elapsed time since its last
// write the same way.
func (w *World) emit(item HistoryItem) {
	now := w.Scheduler.Now()
	dt := now - w.lastEmit
	w.lastEmit = now
	if w.Sink != nil {
		w.Sink.Write(dt, item)
	}
}

// Build constructs a World's infrastructure graph and routes from a
// SimulatorInput, resolving every index-based cross-reference as it goes.
// Grounded on original_source/trainsim/world.cpp's mk_infrastructure/
// mk_routes/World::Create.
func Build(input *SimulatorInput, sink OutputSink) (*World, error) {
	w := NewWorld(sink)
	w.Objects = make([]InfrastructureObject, len(input.Infrastructure.DriveGraph))

	for i, spec := range input.Infrastructure.DriveGraph {
		ref := ObjRef(i)
		up := resolveLink(spec.Up, spec.UpLength)
		down := resolveLink(spec.Down, spec.DownLength)
		switch spec.Kind {
		case KindSignal:
			w.Objects[i] = newSignal(ref, spec.Name, spec.Dir, ObjRef(spec.Detector))
		case KindDetector:
			w.Objects[i] = newDetector(ref, spec.Name, ObjRef(spec.UpTVD), ObjRef(spec.DownTVD))
		case KindSight:
			w.Objects[i] = newSight(ref, spec.Name, ObjRef(spec.Signal), spec.Distance)
		case KindSwitch:
			entry := resolveLink(spec.Entry, spec.EntryLength)
			left := resolveLink(spec.Left, spec.LeftLength)
			right := resolveLink(spec.Right, spec.RightLength)
			w.Objects[i] = newSwitch(ref, spec.Name, entry, left, right, spec.SplitDir, spec.InitialState)
		case KindBoundary:
			w.Objects[i] = newBoundary(ref, spec.Name, up, down)
		case KindStop:
			w.Objects[i] = newStop(ref, spec.Name, up, down)
		case KindTVD:
			w.Objects[i] = newTVD(ref, spec.Name)
		default:
			return nil, fmt.Errorf("infrastructure object %q: unknown kind %v", spec.Name, spec.Kind)
		}
		if spec.Kind != KindSwitch {
			if st, ok := w.Objects[i].(interface{ setLinks(up, down Link) }); ok {
				st.setLinks(up, down)
			}
		}
	}
	for ref, obj := range w.Objects {
		if r, ok := obj.(Resource); ok {
			w.resources[ObjRef(ref)] = r
		}
	}

	for name, rs := range input.Routes {
		route := &Route{
			name:        name,
			EntrySignal: ObjRef(rs.EntrySignal),
			Length:      rs.Length,
		}
		for _, tvd := range rs.TVDs {
			route.TVDs = append(route.TVDs, ObjRef(tvd))
		}
		for _, sw := range rs.Switches {
			route.Switches = append(route.Switches, SwitchReq{Switch: ObjRef(sw.Switch), Required: sw.Required})
		}
		for _, rel := range rs.Releases {
			spec := ReleaseSpec{Trigger: ObjRef(rel.Trigger)}
			for _, r := range rel.Resources {
				spec.Resources = append(spec.Resources, ObjRef(r))
			}
			route.Releases = append(route.Releases, spec)
		}
		w.Routes[name] = route
		logger.Debug("constructed route", "submodule", "world", "route", name)
	}
	return w, nil
}

func resolveLink(target int, length float64) Link {
	switch target {
	case linkNone:
		return NoLink
	case linkBoundary:
		return BoundaryLink
	default:
		return NewLink(ObjRef(target), length)
	}
}

// setLinks lets Build assign singleTrack's fields without exporting them;
// every non-Switch IO variant embeds singleTrack and so satisfies Build's
// anonymous setLinks interface through this method.
func (s *singleTrack) setLinks(up, down Link) {
	s.up = up
	s.down = down
}
