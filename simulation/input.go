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
	"fmt"
	"io"
)

// linkNone/linkBoundary are the sentinel target indices an ObjSpec uses in
// place of a real DriveGraph index, mirroring NoLink/BoundaryLink.
// Grounded on original_source/trainsim/il_inputspec.h's use of -1/-2 as
// link sentinels.
const (
	linkNone     = -1
	linkBoundary = -2
)

// SimulatorInput is the root of the JSON document a Provider reads: the
// infrastructure graph, the named interlocking routes, and the timed
// operational plan. Grounded on original_source/trainsim/il_inputspec.h's
// top-level input structures.
type SimulatorInput struct {
	Infrastructure Infrastructure       `json:"infrastructure"`
	Routes         map[string]RouteSpec `json:"routes"`
	Plan           []PlanItem           `json:"plan"`
}

// Infrastructure wraps the flat, index-addressed infrastructure object
// list.
type Infrastructure struct {
	DriveGraph []ObjSpec `json:"driveGraph"`
}

// ObjSpec is the wire form of one infrastructure object: a discriminated
// union keyed by Kind, carrying only the fields relevant to that kind.
// Grounded on original_source/trainsim/il_inputspec.h's ISObjSpec.
type ObjSpec struct {
	Kind ObjKind `json:"kind"`
	Name string  `json:"name"`

	Up         int     `json:"up"`
	UpLength   float64 `json:"upLength"`
	Down       int     `json:"down"`
	DownLength float64 `json:"downLength"`

	// Detector
	Detector int `json:"detector,omitempty"`
	UpTVD    int `json:"upTVD,omitempty"`
	DownTVD  int `json:"downTVD,omitempty"`

	// Signal
	Dir Direction `json:"dir,omitempty"`

	// Sight
	Signal   int     `json:"signal,omitempty"`
	Distance float64 `json:"distance,omitempty"`

	// Switch
	Entry        int         `json:"entry,omitempty"`
	EntryLength  float64     `json:"entryLength,omitempty"`
	Left         int         `json:"left,omitempty"`
	LeftLength   float64     `json:"leftLength,omitempty"`
	Right        int         `json:"right,omitempty"`
	RightLength  float64     `json:"rightLength,omitempty"`
	SplitDir     Direction   `json:"splitDir,omitempty"`
	InitialState SwitchState `json:"initialState,omitempty"`
}

// SwitchReqSpec is the wire form of SwitchReq, addressing the switch by
// raw DriveGraph index.
type SwitchReqSpec struct {
	Switch   int         `json:"switch"`
	Required SwitchState `json:"required"`
}

// ReleaseSpecInput is the wire form of ReleaseSpec.
type ReleaseSpecInput struct {
	Trigger   int   `json:"trigger"`
	Resources []int `json:"resources"`
}

// RouteSpec is the wire form of Route.
type RouteSpec struct {
	EntrySignal int                `json:"entrySignal"`
	TVDs        []int              `json:"tvds"`
	Switches    []SwitchReqSpec    `json:"switches"`
	Releases    []ReleaseSpecInput `json:"releases"`
	Length      float64            `json:"length"`
}

// PlanItem is one timed entry of the operational plan: after waiting Dt
// virtual seconds since the previous item, either activate a named Route or
// spawn a Train. Grounded on original_source/trainsim/il_inputspec.h's
// TrainRunSpec and simulate.cpp's advance_by(planitem.dt)-driven plan loop.
type PlanItem struct {
	Dt    float64     `json:"dt"`
	Route string      `json:"route,omitempty"`
	Train *TrainInput `json:"train,omitempty"`
}

// TrainInput is the wire form of TrainSpec, addressing its start object by
// raw DriveGraph index.
type TrainInput struct {
	Name      string             `json:"name"`
	Params    LinearTrainParams  `json:"params"`
	StartDir  Direction          `json:"startDir"`
	StartObj  int                `json:"startObj"`
	Authority float64            `json:"authority"`
	// Stops is carried for input round-trip fidelity but not consumed by
	// the control loop; see SPEC_FULL.md §4.13.
	Stops []string `json:"stops,omitempty"`
}

// InputProvider supplies a SimulatorInput to the orchestrator. The
// interface (rather than a single JSONInputProvider function) exists so
// tests and alternate front-ends can supply input without going through
// encoding/json, per Design Note §9's provider/sink seam.
type InputProvider interface {
	Provide() (*SimulatorInput, error)
}

// JSONInputProvider reads a SimulatorInput as JSON from an io.Reader.
// Grounded on the teacher's encoding/json usage throughout server/http.go.
type JSONInputProvider struct {
	R io.Reader
}

func NewJSONInputProvider(r io.Reader) *JSONInputProvider {
	return &JSONInputProvider{R: r}
}

func (p *JSONInputProvider) Provide() (*SimulatorInput, error) {
	var input SimulatorInput
	dec := json.NewDecoder(p.R)
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("decoding simulator input: %w", err)
	}
	return &input, nil
}
