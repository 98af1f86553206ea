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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// stokesField is a per-mode Stokes table over the levels of one medium:
// shape [nLevels][nDirections][4]. Levels are layer boundaries ordered
// from the top of the medium downward.
type stokesField struct {
	data *sparse.DenseArray
	nAng int
	nLev int
}

func newStokesField(nLev, nAng int) *stokesField {
	if nLev == 0 || nAng == 0 {
		return nil
	}
	return &stokesField{
		data: sparse.ZerosDense(nLev, nAng, 4),
		nAng: nAng,
		nLev: nLev,
	}
}

// at returns the 4-component Stokes vector at (level, direction) as a
// slice aliasing the underlying storage.
func (f *stokesField) at(lev, ang int) []float64 {
	base := (lev*f.nAng + ang) * 4
	return f.data.Elements[base : base+4]
}

// addScaled accumulates a·src into f.
func (f *stokesField) addScaled(src *stokesField, a float64) {
	if f == nil || src == nil {
		return
	}
	floats.AddScaled(f.data.Elements, a, src.data.Elements)
}

// add accumulates src into f.
func (f *stokesField) add(src *stokesField) { f.addScaled(src, 1) }

// norm returns the L1 norm of the field, the magnitude used for
// convergence bookkeeping. A nil field has norm 0.
func (f *stokesField) norm() float64 {
	if f == nil {
		return 0
	}
	return floats.Norm(f.data.Elements, 1)
}

func (f *stokesField) clone() *stokesField {
	if f == nil {
		return nil
	}
	return &stokesField{data: f.data.Copy(), nAng: f.nAng, nLev: f.nLev}
}

// sourceField computes the order-(n+1) scattering source for one medium
// and one azimuthal mode from the order-n radiance field: for every level
// and outgoing direction,
//
//	J(μ_i) = (ω/2) Σ_j w_j Z^m(μ_i, μ_j) I(μ_j),
//
// where the quadrature runs over the incident grid (user-supplied angles
// carry zero weight and drop out automatically) and ω is the
// single-scattering albedo of the layer adjacent to the level. If beam is
// non-nil, the first-order source from the unscattered collimated beam is
// added: J += (ω/4) Z^m(μ_i, -μ0) S_beam with S_beam the attenuated beam
// profile at the level.
func sourceField(prev *stokesField, op *ModeOperator, grid *AngularGrid, albedo func(lev int) float64, beam []float64) *stokesField {
	if prev == nil || op == nil {
		return nil
	}
	src := newStokesField(prev.nLev, prev.nAng)
	n := grid.N()
	for lev := 0; lev < prev.nLev; lev++ {
		w := albedo(lev)
		if w == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			dst := src.at(lev, i)
			for j := 0; j < n; j++ {
				wt := grid.Weight[j]
				if wt == 0 {
					continue
				}
				in := prev.at(lev, j)
				for ii := 0; ii < 4; ii++ {
					var sum float64
					for jj := 0; jj < 4; jj++ {
						sum += op.Z.Get(i, j, ii, jj) * in[jj]
					}
					dst[ii] += w / 2 * wt * sum
				}
			}
			if beam != nil && beam[lev] != 0 {
				e := beam[lev]
				for ii := 0; ii < 4; ii++ {
					dst[ii] += w / 4 * op.ZSun.Get(i, ii, 0) * e
				}
			}
		}
	}
	return src
}

// layerAlbedo returns a level→albedo lookup for a layer stack: the albedo
// at a level is the mean of the adjacent layers' albedos (one-sided at
// the medium boundaries). Sources are evaluated at layer boundaries, and
// this keeps the source continuous across homogeneous sub-layers.
func layerAlbedo(layers []Layer) func(lev int) float64 {
	return func(lev int) float64 {
		switch {
		case len(layers) == 0:
			return 0
		case lev == 0:
			return layers[0].Albedo
		case lev >= len(layers):
			return layers[len(layers)-1].Albedo
		default:
			return (layers[lev-1].Albedo + layers[lev].Albedo) / 2
		}
	}
}
