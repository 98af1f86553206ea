/*
Copyright © 2026 the SOSRT authors.
This file is part of SOSRT.

SOSRT is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SOSRT is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SOSRT.  If not, see <http://www.gnu.org/licenses/>.
*/

package sosrt

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Named output levels corresponding to the standard reporting planes of
// coupled atmosphere-ocean simulations.
const (
	// LevelTOA is the top of the atmosphere.
	LevelTOA = 0
)

// SurfaceLevel returns the level index of the interface as seen from
// medium m: the deepest atmospheric level (0+) or the shallowest oceanic
// level (0−).
func (r *Result) SurfaceLevel(m Medium) int {
	if m == Atmosphere {
		return r.vertical.NLevels(Atmosphere) - 1
	}
	return 0
}

// BottomLevel returns the deepest level index of medium m.
func (r *Result) BottomLevel(m Medium) int {
	return r.vertical.NLevels(m) - 1
}

// Grid returns the angular grid of medium m (nil for an absent ocean).
func (r *Result) Grid(m Medium) *AngularGrid {
	if m == Atmosphere {
		return r.air
	}
	return r.water
}

// Tau returns the cumulative optical depth from the top of medium m to
// level k within that medium.
func (r *Result) Tau(m Medium, k int) float64 { return r.vertical.Tau(m, k) }

// Irradiance returns the downwelling and upwelling plane irradiances of
// the diffuse (on-grid) field at one level, integrated over azimuth and
// hemisphere:
//
//	Ed = 2π Σ_{μ_j<0} w_j |μ_j| I⁰(μ_j),   Eu likewise over μ_j > 0.
//
// Only Fourier mode 0 survives the azimuth integral. The unscattered
// collimated beam is a Dirac delta off the grid and is not included; the
// refracted beam below an interface is deposited on the grid and is.
func (r *Result) Irradiance(medium Medium, level int) (ed, eu float64, err error) {
	field, grid, err := r.modeData(medium)
	if err != nil {
		return 0, 0, err
	}
	if level < 0 || level >= r.vertical.NLevels(medium) {
		return 0, 0, fmt.Errorf("sosrt: level %d out of range for %s (have %d levels)", level, medium, r.vertical.NLevels(medium))
	}
	data := field(r.Modes[0])
	if data == nil {
		return 0, 0, nil
	}
	nAng := grid.N()
	for _, j := range grid.Down() {
		ed += grid.Weight[j] * -grid.Mu[j] * data.Elements[(level*nAng+j)*4]
	}
	for _, j := range grid.Up() {
		eu += grid.Weight[j] * grid.Mu[j] * data.Elements[(level*nAng+j)*4]
	}
	return 2 * math.Pi * ed, 2 * math.Pi * eu, nil
}

// Assemble reconstructs the full azimuthal radiance field at one level of
// one medium by Fourier re-synthesis: for relative azimuth Δφ (degrees
// from the solar plane),
//
//	I,Q(Δφ) = Σ_m (2-δ_m0)·I^m,Q^m·cos(m·Δφ)
//	U,V(Δφ) = Σ_m (2-δ_m0)·U^m,V^m·sin(m·Δφ)
//
// The returned array has shape [len(azimuthDeg)][directions][4] on the
// medium's angular grid. Assembly is a pure transformation: it does not
// mutate the result, and its only failure modes are out-of-range level
// requests or an absent medium.
func (r *Result) Assemble(medium Medium, level int, azimuthDeg []float64) (*sparse.DenseArray, error) {
	field, grid, err := r.modeData(medium)
	if err != nil {
		return nil, err
	}
	if level < 0 || level >= r.vertical.NLevels(medium) {
		return nil, fmt.Errorf("sosrt: level %d out of range for %s (have %d levels)", level, medium, r.vertical.NLevels(medium))
	}
	nAng := grid.N()
	out := sparse.ZerosDense(len(azimuthDeg), nAng, 4)
	for a, az := range azimuthDeg {
		phi := az * math.Pi / 180
		for _, mf := range r.Modes {
			data := field(mf)
			if data == nil {
				continue
			}
			factor := 2.0
			if mf.M == 0 {
				factor = 1
			}
			c := factor * math.Cos(float64(mf.M)*phi)
			s := factor * math.Sin(float64(mf.M)*phi)
			for i := 0; i < nAng; i++ {
				base := (level*nAng + i) * 4
				out.AddVal(c*data.Elements[base+0], a, i, 0)
				out.AddVal(c*data.Elements[base+1], a, i, 1)
				out.AddVal(s*data.Elements[base+2], a, i, 2)
				out.AddVal(s*data.Elements[base+3], a, i, 3)
			}
		}
	}
	return out, nil
}

// StokesAt reconstructs the Stokes vector for a single direction cosine
// and azimuth at the given level. The direction must lie on the medium's
// angular grid (quadrature node or merged user angle); arbitrary off-grid
// directions are not interpolated.
func (r *Result) StokesAt(medium Medium, level int, mu, azimuthDeg float64) ([4]float64, error) {
	_, grid, err := r.modeData(medium)
	if err != nil {
		return [4]float64{}, err
	}
	i := grid.Find(mu)
	if i < 0 {
		return [4]float64{}, fmt.Errorf("sosrt: direction cosine %g is not on the %s grid; request it as an output angle at setup", mu, medium)
	}
	f, err := r.Assemble(medium, level, []float64{azimuthDeg})
	if err != nil {
		return [4]float64{}, err
	}
	var s [4]float64
	for c := 0; c < 4; c++ {
		s[c] = f.Get(0, i, c)
	}
	return s, nil
}

func (r *Result) modeData(medium Medium) (func(*ModeField) *sparse.DenseArray, *AngularGrid, error) {
	switch medium {
	case Atmosphere:
		return func(mf *ModeField) *sparse.DenseArray { return mf.Atm }, r.air, nil
	case Ocean:
		if r.water == nil {
			return nil, nil, fmt.Errorf("sosrt: no ocean in this solve")
		}
		return func(mf *ModeField) *sparse.DenseArray { return mf.Ocn }, r.water, nil
	}
	return nil, nil, fmt.Errorf("sosrt: unknown medium %v", medium)
}

// DoLP returns the degree of linear polarization √(Q²+U²)/I of a Stokes
// vector, or 0 for zero intensity.
func DoLP(s [4]float64) float64 {
	if s[0] == 0 {
		return 0
	}
	return math.Hypot(s[1], s[2]) / s[0]
}

// AoLP returns the angle of linear polarization ½·atan2(U, Q) in radians.
func AoLP(s [4]float64) float64 {
	return math.Atan2(s[2], s[1]) / 2
}
