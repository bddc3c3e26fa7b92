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

package server

import (
	"encoding/json"
	"fmt"
)

// simulationObject answers requests controlling the paced replay of an
// already-run World's recorded history — the live equivalent of the
// teacher's start/pause/restart on a wall-clock simulation, but backed by
// Replay's deterministic, pre-recorded item list instead of a live
// scheduler.
type simulationObject struct{}

func (s *simulationObject) dispatch(h *Hub, req Request, conn *connection) {
	ch := conn.pushChan
	logger.Debug("request for simulation received", "submodule", "hub", "object", req.Object, "action", req.Action)
	switch req.Action {
	case "start":
		replay.Start()
		ch <- NewOkResponse(req.ID, "replay started")
	case "pause":
		replay.Pause()
		ch <- NewOkResponse(req.ID, "replay paused")
	case "restart":
		replay.Restart()
		ch <- NewOkResponse(req.ID, "replay restarted")
	case "isRunning":
		j, err := json.Marshal(replay.IsRunning())
		if err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("internal error: %s", err))
			return
		}
		ch <- NewResponse(req.ID, RawJSON(j))
	case "status":
		data, err := json.Marshal(struct {
			Objects int  `json:"objects"`
			Routes  int  `json:"routes"`
			Items   int  `json:"items"`
			Running bool `json:"running"`
		}{len(world.Objects), len(world.Routes), len(replay.sink.Items), replay.IsRunning()})
		if err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("internal error: %s", err))
			return
		}
		ch <- NewResponse(req.ID, data)
	default:
		ch <- NewErrorResponse(req.ID, fmt.Errorf("unknown action %s/%s", req.Object, req.Action))
		logger.Debug("request for unknown action received", "submodule", "hub", "object", req.Object, "action", req.Action)
	}
}

var _ hubObject = new(simulationObject)

func init() {
	hub.objects["simulation"] = new(simulationObject)
}
