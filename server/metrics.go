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
	"sync"
	"time"

	"github.com/ts2/ts2trainsim/simulation"
)

// occupancySnapshot is one periodic reading of the infrastructure's usage,
// replacing the teacher's timetable-adherence KPIs (punctuality, RTP,
// headway-vs-schedule) with running counts of replayed route activations,
// resource allocations, switch position reports and signal openings:
// there is no timetable to be on time against. TVD occupancy is not
// counted.
type occupancySnapshot struct {
	ts               time.Time
	routeActivations int
	allocations      int
	switchTurns      int
	signalOpenings   int
}

type metricsState struct {
	mu sync.RWMutex

	routeActivations int
	allocations      int
	switchTurns      int
	signalOpenings   int

	snapshots []occupancySnapshot
}

var metrics = &metricsState{}

// updateMetrics tallies one emitted HistoryItem into the running counters
// takeSnapshot periodically captures.
func updateMetrics(item simulation.HistoryItem) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	switch item.Kind {
	case simulation.KindRouteActivation:
		if item.Marker == simulation.Start {
			metrics.routeActivations++
		}
	case simulation.KindAllocation:
		if item.Marker == simulation.Start {
			metrics.allocations++
		}
	case simulation.KindMovablePosition:
		metrics.switchTurns++
	case simulation.KindSignalAspect:
		if item.Green {
			metrics.signalOpenings++
		}
	}
}

func takeSnapshot() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	snap := occupancySnapshot{
		ts:               time.Now().UTC(),
		routeActivations: metrics.routeActivations,
		allocations:      metrics.allocations,
		switchTurns:      metrics.switchTurns,
		signalOpenings:   metrics.signalOpenings,
	}
	metrics.snapshots = append(metrics.snapshots, snap)
	if len(metrics.snapshots) > 1440 {
		metrics.snapshots = metrics.snapshots[len(metrics.snapshots)-1440:]
	}
}

func currentSnapshot() occupancySnapshot {
	metrics.mu.RLock()
	defer metrics.mu.RUnlock()
	return occupancySnapshot{
		ts:               time.Now().UTC(),
		routeActivations: metrics.routeActivations,
		allocations:      metrics.allocations,
		switchTurns:      metrics.switchTurns,
		signalOpenings:   metrics.signalOpenings,
	}
}

func startMetricsTicker() {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		for range ticker.C {
			takeSnapshot()
		}
	}()
}
