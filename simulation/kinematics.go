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

import "math"

// LinearTrainParams are the fixed kinematic characteristics of a train.
// Grounded on original_source/trainsim/traindynamics.h's
// LinearTrainParams.
type LinearTrainParams struct {
	MaxAcc float64
	MaxBrk float64
	MaxVel float64
	Length float64
}

// SpeedRestriction is one upcoming speed constraint: the train must be at
// or below VTarget by the time its front has advanced DistAhead.
type SpeedRestriction struct {
	DistAhead float64
	VTarget   float64
}

// SpeedProfile is the forward view a train plans its next step against.
type SpeedProfile struct {
	VmaxNow      float64
	Restrictions []SpeedRestriction
}

// trainUpdate integrates one piecewise-constant phase of motion, returning
// the distance advanced and the resulting velocity. Grounded on
// traindynamics.cpp's trainUpdate.
func trainUpdate(params LinearTrainParams, v float64, action TrainAction, dt float64) (dx, vNew float64) {
	if dt < 0 {
		dt = 0
	}
	switch action {
	case Accel:
		dx = v*dt + 0.5*params.MaxAcc*dt*dt
		vNew = v + params.MaxAcc*dt
	case Brake:
		dx = v*dt - 0.5*params.MaxBrk*dt*dt
		vNew = v - params.MaxBrk*dt
	default:
		dx = v * dt
		vNew = v
	}
	if vNew < 0 {
		vNew = 0
	}
	if dx < 0 {
		dx = 0
	}
	return dx, vNew
}

// trainStep decides the next piecewise-constant action and its duration,
// given the hard ceiling maxX on how far the train may advance before the
// next discrete transition, the current velocity v, and a forward speed
// profile. Grounded on traindynamics.cpp's trainStep; tolerance Epsilon
// (1e-4) throughout, matching §4.10.
func trainStep(params LinearTrainParams, maxX, v float64, profile SpeedProfile) (TrainAction, float64) {
	if v < 0 {
		v = 0
	}
	if maxX < 0 {
		maxX = 0
	}
	vmaxNow := profile.VmaxNow

	if v+Epsilon < vmaxNow {
		return trainStepAccelBranch(params, maxX, v, vmaxNow, profile.Restrictions)
	}
	return trainStepCoastBranch(params, maxX, v, profile.Restrictions)
}

// trainStepAccelBranch is branch A of §4.10: the train is below its
// current speed ceiling and so could accelerate, if track and upcoming
// restrictions allow it.
func trainStepAccelBranch(params LinearTrainParams, maxX, v, vmaxNow float64, restrictions []SpeedRestriction) (TrainAction, float64) {
	aDt := (vmaxNow - v) / params.MaxAcc
	aDx := v*aDt + 0.5*params.MaxAcc*aDt*aDt
	targetMax := vmaxNow
	if aDx > maxX {
		targetMax = math.Sqrt(v*v + 2*params.MaxAcc*maxX)
		aDt = (targetMax - v) / params.MaxAcc
		aDx = maxX
	}

	bestADt := aDt
	bestBDt := 0.0
	for _, r := range restrictions {
		bDx := (targetMax*targetMax - r.VTarget*r.VTarget) / (2 * params.MaxBrk)
		if r.DistAhead < aDx+bDx {
			iDx := (2*params.MaxBrk*r.DistAhead + r.VTarget*r.VTarget - v*v) / (2 * (params.MaxAcc + params.MaxBrk))
			if iDx < 0 {
				iDx = 0
			}
			iV := math.Sqrt(v*v + 2*params.MaxAcc*iDx)
			iDt := (iV - v) / params.MaxAcc
			bDt := (v - r.VTarget) / params.MaxBrk
			if bDt < 0 {
				bDt = 0
			}
			if iDt < bestADt {
				bestADt = iDt
				bestBDt = bDt
			}
		}
	}

	if bestADt < Epsilon {
		if bestBDt < Epsilon {
			return Coast, 0
		}
		return Brake, bestBDt
	}
	return Accel, bestADt
}

// trainStepCoastBranch is branch B of §4.10: the train is already at or
// above its current speed ceiling, so it can only coast or brake.
func trainStepCoastBranch(params LinearTrainParams, maxX, v float64, restrictions []SpeedRestriction) (TrainAction, float64) {
	coastTime := 0.0
	if v > 0 {
		coastTime = maxX / v
	}
	bestBDt := 0.0
	if v > 0 {
		for _, r := range restrictions {
			bDx := (v*v - r.VTarget*r.VTarget) / (2 * params.MaxBrk)
			bDt := (v - r.VTarget) / params.MaxBrk
			if bDt < 0 {
				bDt = 0
			}
			dDt := (r.DistAhead - bDx) / v
			rDt := r.DistAhead / v
			cand := dDt
			if rDt < cand {
				cand = rDt
			}
			if cand < 0 {
				cand = 0
			}
			if cand < coastTime {
				coastTime = cand
				bestBDt = bDt
			}
		}
	}
	if coastTime <= Epsilon {
		if bestBDt <= Epsilon {
			return Coast, 0
		}
		return Brake, bestBDt
	}
	return Coast, coastTime
}
