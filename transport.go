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

// orderField holds one scattering order's radiance for one azimuthal mode
// across both media. The ocean field is nil when no ocean is modeled.
type orderField struct {
	atm *stokesField
	ocn *stokesField
}

func (o *orderField) norm() float64 {
	return o.atm.norm() + o.ocn.norm()
}

// stackHemisphere gathers the Stokes vectors of the given hemisphere
// directions at one level into a flat slice (direction-major), the layout
// the surface matrices act on.
func stackHemisphere(f *stokesField, lev int, hemi []int) []float64 {
	out := make([]float64, 4*len(hemi))
	if f == nil {
		return out
	}
	for p, i := range hemi {
		copy(out[4*p:4*p+4], f.at(lev, i))
	}
	return out
}

// setHemisphere writes a stacked hemisphere slice into the field at one
// level, adding to whatever is already there.
func setHemisphere(f *stokesField, lev int, hemi []int, vals []float64) {
	if f == nil {
		return
	}
	for p, i := range hemi {
		dst := f.at(lev, i)
		for c := 0; c < 4; c++ {
			dst[c] += vals[4*p+c]
		}
	}
}

// sweepDown integrates the transport equation downward through a medium:
// starting from the field already present at level 0 (the upper boundary
// condition must be written into cur beforehand), each layer attenuates
// the incoming radiance and adds the layer-averaged source term,
//
//	I(k+1) = I(k)·e^(−Δτ/|μ|) + J̄·(1 − e^(−Δτ/|μ|)).
//
// src may be nil for a source-free sweep (pure boundary propagation).
func (s *Solver) sweepDown(cur, src *stokesField, grid *AngularGrid, tau []float64) {
	if cur == nil {
		return
	}
	for _, i := range grid.Down() {
		mu := -grid.Mu[i]
		for k := 0; k < cur.nLev-1; k++ {
			t := attenuation(tau[k+1]-tau[k], mu, s.Config.AttenuationCutoff)
			from := cur.at(k, i)
			to := cur.at(k+1, i)
			for c := 0; c < 4; c++ {
				v := from[c] * t
				if src != nil {
					v += (src.at(k, i)[c] + src.at(k+1, i)[c]) / 2 * (1 - t)
				}
				to[c] += v
			}
		}
	}
}

// sweepUp is the mirror image of sweepDown: the lower boundary condition
// must already be present at the deepest level.
func (s *Solver) sweepUp(cur, src *stokesField, grid *AngularGrid, tau []float64) {
	if cur == nil {
		return
	}
	for _, i := range grid.Up() {
		mu := grid.Mu[i]
		for k := cur.nLev - 2; k >= 0; k-- {
			t := attenuation(tau[k+1]-tau[k], mu, s.Config.AttenuationCutoff)
			from := cur.at(k+1, i)
			to := cur.at(k, i)
			for c := 0; c < 4; c++ {
				v := from[c] * t
				if src != nil {
					v += (src.at(k, i)[c] + src.at(k+1, i)[c]) / 2 * (1 - t)
				}
				to[c] += v
			}
		}
	}
}

// bottomReflection returns the upward Stokes field at the ocean floor
// produced by Lambertian reflection of the downward field at the deepest
// level. A Lambertian reflector is azimuthally uniform and fully
// depolarizing, so only Fourier mode 0 and the intensity component are
// populated: I_up = 2·A·Σ_j w_j |μ_j| I_dn(μ_j).
func (s *Solver) bottomReflection(dn *stokesField, mode int) []float64 {
	up := s.water.Up()
	out := make([]float64, 4*len(up))
	if dn == nil || mode != 0 || s.Config.BottomAlbedo == 0 {
		return out
	}
	bottom := dn.nLev - 1
	var flux float64
	for _, j := range s.water.Down() {
		flux += s.water.Weight[j] * -s.water.Mu[j] * dn.at(bottom, j)[0]
	}
	r := 2 * s.Config.BottomAlbedo * flux
	for p := range up {
		out[4*p] = r
	}
	return out
}

// step computes the order-n radiance field for one azimuthal mode from
// the previous order's field. The interface is applied in a fixed
// sequence: the downward atmospheric field is computed first; its
// surface-transmitted part seeds the downward oceanic sweep (together
// with the carried-over below-surface reflection from the previous
// order); the upward oceanic field then reflects off the bottom and
// transmits through the interface to seed the upward atmospheric sweep.
// The below-surface reflection Rww of the new upward oceanic field has
// undergone one more interface interaction and is therefore carried into
// the next order's lower boundary rather than folded into this one.
func (s *Solver) step(w *modeWork, order int) *orderField {
	var beam []float64
	if order == 1 {
		beam = s.beamAtm
	}
	srcAtm := sourceField(w.prev.atm, w.atmOp, s.air, layerAlbedo(s.Vertical.Atmosphere), beam)
	var srcOcn *stokesField
	if w.prev.ocn != nil {
		srcOcn = sourceField(w.prev.ocn, w.ocnOp, s.water, layerAlbedo(s.Vertical.Ocean), nil)
	}

	cur := &orderField{
		atm: newStokesField(s.Vertical.NLevels(Atmosphere), s.air.N()),
	}
	if s.hasOcean() {
		cur.ocn = newStokesField(s.Vertical.NLevels(Ocean), s.water.N())
	}

	// Downward through the atmosphere; the top-of-atmosphere diffuse
	// boundary is zero.
	s.sweepDown(cur.atm, srcAtm, s.air, s.Vertical.tauAtm)
	surfLev := cur.atm.nLev - 1
	downAir := stackHemisphere(cur.atm, surfLev, s.air.Down())

	var upOcean []float64
	if s.hasOcean() {
		// Downward oceanic boundary: transmission of the new downward
		// atmospheric field plus the previous order's below-surface
		// reflection.
		bc := applySurface(w.surf.Taw, downAir, 4*len(s.water.Down()))
		if w.carry != nil {
			for i := range bc {
				bc[i] += w.carry[i]
			}
		}
		setHemisphere(cur.ocn, 0, s.water.Down(), bc)
		s.sweepDown(cur.ocn, srcOcn, s.water, s.Vertical.tauOcn)

		bottomBC := s.bottomReflection(cur.ocn, w.m)
		setHemisphere(cur.ocn, cur.ocn.nLev-1, s.water.Up(), bottomBC)
		s.sweepUp(cur.ocn, srcOcn, s.water, s.Vertical.tauOcn)

		upOcean = stackHemisphere(cur.ocn, 0, s.water.Up())
		w.carry = applySurface(w.surf.Rww, upOcean, 4*len(s.water.Down()))
	} else {
		w.carry = nil
	}

	// Upward atmospheric boundary at the surface: reflection of the
	// downward atmospheric field plus transmission of the upward
	// oceanic field.
	upBC := applySurface(w.surf.Raa, downAir, 4*len(s.air.Up()))
	if upOcean != nil {
		twa := applySurface(w.surf.Twa, upOcean, 4*len(s.air.Up()))
		for i := range upBC {
			upBC[i] += twa[i]
		}
	}
	setHemisphere(cur.atm, surfLev, s.air.Up(), upBC)
	s.sweepUp(cur.atm, srcAtm, s.air, s.Vertical.tauAtm)

	return cur
}

// directBeam computes the order-0 field for one mode: the collimated
// solar beam attenuated through the atmosphere, its specular glint from
// the interface, and its transmission into the ocean through the
// zero-order (beam) columns of the surface matrices. The beam itself is a
// Dirac delta in angle and lives off the grid; only its
// interface-scattered distributions appear on grid directions.
func (s *Solver) directBeam(w *modeWork) *orderField {
	cur := &orderField{
		atm: newStokesField(s.Vertical.NLevels(Atmosphere), s.air.N()),
	}
	if s.hasOcean() {
		cur.ocn = newStokesField(s.Vertical.NLevels(Ocean), s.water.N())
	}
	eSurf := s.beamAtm[len(s.beamAtm)-1]

	var upOcean []float64
	if s.hasOcean() {
		if w.surf.TawSun != nil {
			bc := make([]float64, len(w.surf.TawSun))
			for i, v := range w.surf.TawSun {
				bc[i] = v * eSurf
			}
			setHemisphere(cur.ocn, 0, s.water.Down(), bc)
			s.sweepDown(cur.ocn, nil, s.water, s.Vertical.tauOcn)
		}
		bottomBC := s.bottomReflection(cur.ocn, w.m)
		setHemisphere(cur.ocn, cur.ocn.nLev-1, s.water.Up(), bottomBC)
		s.sweepUp(cur.ocn, nil, s.water, s.Vertical.tauOcn)
		upOcean = stackHemisphere(cur.ocn, 0, s.water.Up())
		w.carry = applySurface(w.surf.Rww, upOcean, 4*len(s.water.Down()))
	}

	upBC := make([]float64, 4*len(s.air.Up()))
	if w.surf.RaaSun != nil {
		for i, v := range w.surf.RaaSun {
			upBC[i] = v * eSurf
		}
	}
	if upOcean != nil {
		twa := applySurface(w.surf.Twa, upOcean, 4*len(s.air.Up()))
		for i := range upBC {
			upBC[i] += twa[i]
		}
	}
	surfLev := cur.atm.nLev - 1
	setHemisphere(cur.atm, surfLev, s.air.Up(), upBC)
	s.sweepUp(cur.atm, nil, s.air, s.Vertical.tauAtm)

	return cur
}
