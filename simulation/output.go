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
	"encoding/json"
	"io"
)

// OutputSink consumes the simulation's chronological history. Write is
// called once per HistoryItem, with dt the virtual time elapsed since the
// previous call (or since t=0 for the very first one).
type OutputSink interface {
	Write(dt float64, item HistoryItem)
}

// SliceSink accumulates every (dt, HistoryItem) pair in memory. Used by
// tests and to feed server.Hub's paced-replay mode.
type SliceSink struct {
	Items []TimedItem
}

// TimedItem pairs a HistoryItem with the dt it was emitted after.
type TimedItem struct {
	Dt   float64
	Item HistoryItem
}

func NewSliceSink() *SliceSink { return &SliceSink{} }

func (s *SliceSink) Write(dt float64, item HistoryItem) {
	s.Items = append(s.Items, TimedItem{Dt: dt, Item: item})
}

// jsonHistoryItem is the wire shape for JSONLinesSink: one compact object
// per line, not the bespoke "<dt> <kind> <args>" textual grammar the
// original reference tooling emits (that grammar is explicitly out of
// scope; see SPEC_FULL.md §6).
type jsonHistoryItem struct {
	Dt       float64 `json:"dt"`
	Kind     string  `json:"kind"`
	Marker   string  `json:"marker,omitempty"`
	Name     string  `json:"name,omitempty"`
	Green    *bool   `json:"green,omitempty"`
	State    string  `json:"state,omitempty"`
	Action   string  `json:"action,omitempty"`
	Dx       float64 `json:"dx,omitempty"`
	Velocity float64 `json:"velocity,omitempty"`
}

// JSONLinesSink writes one JSON object per history item to an io.Writer,
// newline-delimited.
type JSONLinesSink struct {
	w   io.Writer
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w, enc: json.NewEncoder(w)}
}

func (s *JSONLinesSink) Write(dt float64, item HistoryItem) {
	out := jsonHistoryItem{Dt: dt}
	switch item.Kind {
	case KindRouteActivation:
		out.Kind = "routeActivation"
		out.Marker = item.Marker.String()
		out.Name = item.Name
	case KindAllocation:
		out.Kind = "allocation"
		out.Marker = item.Marker.String()
		out.Name = item.Name
	case KindSignalAspect:
		out.Kind = "signalAspect"
		out.Name = item.Name
		green := item.Green
		out.Green = &green
	case KindMovablePosition:
		out.Kind = "movablePosition"
		out.Name = item.Name
		out.State = item.State.String()
	case KindTrainStatus:
		out.Kind = "trainStatus"
		out.Name = item.Name
		out.Action = item.Action.String()
		out.Dx = item.Dx
		out.Velocity = item.Velocity
	}
	// Write has no error result, so an encoding or write error is dropped
	// here: it is neither returned to the caller nor logged.
	_ = s.enc.Encode(out)
}

// MultiSink fans a single history stream out to several sinks, e.g. a
// SliceSink for later replay plus a JSONLinesSink for a live log.
type MultiSink struct {
	Sinks []OutputSink
}

func (m MultiSink) Write(dt float64, item HistoryItem) {
	for _, s := range m.Sinks {
		s.Write(dt, item)
	}
}
