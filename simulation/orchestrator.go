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

import "fmt"

// Simulate builds a World from input, drives its plan to completion, and
// returns the finished World for inspection. Grounded on
// original_source/trainsim/simulate.cpp's top-level run loop: advance
// virtual time by each plan item's relative dt gap (sim->advance_by(
// planitem.dt)), trigger it, then run the scheduler dry before returning.
func Simulate(input *SimulatorInput, sink OutputSink) (*World, error) {
	w, err := Build(input, sink)
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}

	for _, item := range input.Plan {
		w.Scheduler.AdvanceBy(item.Dt)
		switch {
		case item.Route != "":
			route, ok := w.Routes[item.Route]
			if !ok {
				logger.Error("plan item names an unknown route, skipping it", "t", w.Scheduler.Now(), "route", item.Route)
				continue
			}
			route.Activate(w)
		case item.Train != nil:
			w.SpawnTrain(trainSpecFromInput(item.Train))
		default:
			logger.Warn("plan item with neither route nor train", "t", w.Scheduler.Now())
		}
	}

	w.Scheduler.Run()

	for _, t := range w.trains {
		if !t.HasExited() {
			logger.Warn("train did not reach a boundary by end of plan", "train", t.Name())
		}
	}

	return w, nil
}

func trainSpecFromInput(in *TrainInput) TrainSpec {
	return TrainSpec{
		Name:      in.Name,
		Params:    in.Params,
		StartDir:  in.StartDir,
		StartObj:  ObjRef(in.StartObj),
		Authority: in.Authority,
		Stops:     in.Stops,
	}
}
