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

	"gonum.org/v1/gonum/mat"
)

// SurfaceModeMatrix holds the air-water interface operators for one
// azimuthal Fourier mode. Each matrix maps a stacked Stokes field over one
// hemisphere of incoming grid directions to a stacked field over one
// hemisphere of outgoing directions: for hemispheres of na air-side and nw
// water-side directions, Raa is (4·na × 4·na), Taw is (4·nw × 4·na), and
// so on, with direction index varying slower than Stokes component. A nil
// matrix means zero (no coupling of that kind).
//
// RaaSun and TawSun are the interface response to the collimated solar
// beam: the upward air-side (sun glint) and downward water-side
// (refracted beam) Stokes distributions per unit incident beam, stacked
// the same way. They are nil when the provider supplies none.
type SurfaceModeMatrix struct {
	M int

	Raa *mat.Dense // air in, air out (reflection above)
	Rww *mat.Dense // water in, water out (reflection below)
	Taw *mat.Dense // air in, water out (downward transmission)
	Twa *mat.Dense // water in, air out (upward transmission)

	RaaSun []float64
	TawSun []float64
}

// Surface is the per-mode family of interface matrices for a solve,
// supplied by an external rough-surface builder or by one of the
// idealized constructors below. Immutable once built.
type Surface struct {
	Modes []*SurfaceModeMatrix
}

// Mode returns the matrices for mode m. Requesting a mode the provider
// did not supply is a configuration error: the solver cannot invent
// interface physics for a retained radiance mode.
func (s *Surface) Mode(m int) (*SurfaceModeMatrix, error) {
	if m >= len(s.Modes) || s.Modes[m] == nil {
		return nil, fmt.Errorf("sosrt: no surface matrices supplied for Fourier mode %d", m)
	}
	if s.Modes[m].M != m {
		return nil, fmt.Errorf("sosrt: surface matrices at position %d are labeled mode %d", m, s.Modes[m].M)
	}
	return s.Modes[m], nil
}

// check verifies matrix dimensions against the two angular grids for all
// modes up to nModes. The four hemisphere stacks can have different sizes
// once user output angles are merged in, so each matrix is checked against
// its own incoming/outgoing pair: Raa maps down-air → up-air, Rww maps
// up-water → down-water, Taw maps down-air → down-water, and Twa maps
// up-water → up-air.
func (s *Surface) check(air, water *AngularGrid, nModes int) error {
	if s == nil {
		return fmt.Errorf("sosrt: no surface supplied")
	}
	da, ua := 4*len(air.Down()), 4*len(air.Up())
	var dw, uw int
	if water != nil {
		dw, uw = 4*len(water.Down()), 4*len(water.Up())
	}
	for m := 0; m < nModes; m++ {
		sm, err := s.Mode(m)
		if err != nil {
			return err
		}
		for _, d := range []struct {
			op         *mat.Dense
			rows, cols int
			name       string
		}{
			{sm.Raa, ua, da, "Raa"},
			{sm.Rww, dw, uw, "Rww"},
			{sm.Taw, dw, da, "Taw"},
			{sm.Twa, ua, uw, "Twa"},
		} {
			if d.op == nil {
				continue
			}
			r, c := d.op.Dims()
			if r != d.rows || c != d.cols {
				return fmt.Errorf("sosrt: surface mode %d %s is %d×%d, want %d×%d", m, d.name, r, c, d.rows, d.cols)
			}
		}
		if sm.RaaSun != nil && len(sm.RaaSun) != ua {
			return fmt.Errorf("sosrt: surface mode %d RaaSun has length %d, want %d", m, len(sm.RaaSun), ua)
		}
		if sm.TawSun != nil && len(sm.TawSun) != dw {
			return fmt.Errorf("sosrt: surface mode %d TawSun has length %d, want %d", m, len(sm.TawSun), dw)
		}
	}
	return nil
}

// BlackSurface returns a fully absorbing interface (no reflection, no
// transmission) for nModes modes. Useful for atmosphere-only runs over a
// dark lower boundary.
func BlackSurface(nModes int) *Surface {
	s := &Surface{Modes: make([]*SurfaceModeMatrix, nModes)}
	for m := range s.Modes {
		s.Modes[m] = &SurfaceModeMatrix{M: m}
	}
	return s
}

// FlatSurface returns an idealized flat, lossless interface: transmission
// is the identity between matching air-side and water-side hemispheres and
// reflection is zero, so the surface neither mixes angles nor couples
// azimuthal modes. The collimated beam is transmitted onto the water-side
// quadrature node nearest the solar direction, weighted so that quadrature
// over the deposited distribution reproduces the beam exactly. The two
// grids must have the same hemisphere size.
func FlatSurface(air, water *AngularGrid, mu0 float64, nModes int) (*Surface, error) {
	da, ua := len(air.Down()), len(air.Up())
	dw, uw := len(water.Down()), len(water.Up())
	if da != dw || ua != uw {
		return nil, fmt.Errorf("sosrt: FlatSurface needs matching hemispheres; air %d↓/%d↑, water %d↓/%d↑", da, ua, dw, uw)
	}
	s := &Surface{Modes: make([]*SurfaceModeMatrix, nModes)}
	for m := range s.Modes {
		sm := &SurfaceModeMatrix{M: m}
		sm.Taw = identityBlock(dw)
		sm.Twa = identityBlock(ua)
		// The transmitted beam stays collimated through a flat
		// interface; an azimuthal delta has the same amplitude in
		// every cosine mode, so the beam column repeats across modes.
		// The deposit must land on a quadrature node: a zero-weight
		// output angle drops out of every quadrature sum and would
		// swallow the beam.
		sm.TawSun = make([]float64, 4*dw)
		j := water.NearestQuad(-mu0)
		if j >= 0 {
			pos := hemispherePos(water.Down(), j)
			w := water.Weight[j]
			if pos >= 0 && w > 0 {
				sm.TawSun[4*pos] = 1 / (2 * w)
			}
		}
		s.Modes[m] = sm
	}
	return s, nil
}

func identityBlock(n int) *mat.Dense {
	d := mat.NewDense(4*n, 4*n, nil)
	for i := 0; i < 4*n; i++ {
		d.Set(i, i, 1)
	}
	return d
}

// hemispherePos returns the position of grid index j within the given
// hemisphere index slice, or -1.
func hemispherePos(hemi []int, j int) int {
	for p, idx := range hemi {
		if idx == j {
			return p
		}
	}
	return -1
}

// applySurface multiplies a stacked interface matrix by an incoming
// hemisphere field (length 4·nIn), returning the outgoing hemisphere
// field (length rows of m). A nil matrix returns a zero field of length
// nOut.
func applySurface(op *mat.Dense, in []float64, nOut int) []float64 {
	out := make([]float64, nOut)
	if op == nil || len(in) == 0 || nOut == 0 {
		return out
	}
	v := mat.NewVecDense(len(in), in)
	res := mat.NewVecDense(nOut, out)
	res.MulVec(op, v)
	return out
}
