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

// ModeOperator is the azimuthal Fourier mode m of a phase-matrix family,
// discretized on an angular grid: Z[i][j] is the 4×4 scattering operator
// mapping incident direction j to scattered direction i, and ZSun[i] is
// the same operator evaluated for the (off-grid) incident solar direction
// -μ0.
type ModeOperator struct {
	M int

	// Z has shape [n][n][4][4] for an n-direction grid.
	Z *sparse.DenseArray

	// ZSun has shape [n][4][4].
	ZSun *sparse.DenseArray

	// Norm is the L1 magnitude of Z, used for truncation bookkeeping.
	Norm float64
}

// FourierExpansion is a truncated family of azimuthal mode operators for
// one medium, built once per solve and read-only thereafter.
type FourierExpansion struct {
	modes []*ModeOperator

	// Truncated reports whether the series was cut by the relative
	// tolerance (as opposed to running into the mode ceiling).
	Truncated bool
}

// NModes returns the number of retained modes (modes 0..NModes-1).
func (f *FourierExpansion) NModes() int { return len(f.modes) }

// Mode returns mode m's operator, or nil for modes beyond the truncation
// point (their contribution is below tolerance and treated as zero).
func (f *FourierExpansion) Mode(m int) *ModeOperator {
	if f == nil || m >= len(f.modes) {
		return nil
	}
	return f.modes[m]
}

// ExpandPhase builds the azimuthal mode operators of a phase-matrix
// expansion on the given grid, for incident solar direction cosine μ0.
// Legendre orders beyond 2·NQuad-1 are dropped: the quadrature cannot
// integrate them accurately, and carrying them would corrupt rather than
// refine the angular integrals. The mode series stops at the first mode
// whose operator norm falls below tol relative to mode 0, assuming the
// magnitude decay typical of physical phase functions, or at maxModes.
func ExpandPhase(p *PhaseMatrixExpansion, grid *AngularGrid, mu0 float64, tol float64, maxModes int) (*FourierExpansion, error) {
	if p == nil {
		return nil, fmt.Errorf("sosrt: nil phase-matrix expansion")
	}
	if maxModes < 1 {
		return nil, fmt.Errorf("sosrt: mode ceiling must be positive; got %d", maxModes)
	}
	lmax := p.MaxOrder
	if lcap := 2*grid.NQuad - 1; lmax > lcap {
		lmax = lcap
	}

	f := new(FourierExpansion)
	var norm0 float64
	for m := 0; m <= lmax && m < maxModes; m++ {
		op := buildMode(p, grid, mu0, m, lmax)
		if m == 0 {
			norm0 = op.Norm
			if norm0 == 0 {
				return nil, fmt.Errorf("sosrt: phase-matrix mode 0 operator is identically zero")
			}
		} else if op.Norm/norm0 < tol {
			f.Truncated = true
			break
		}
		f.modes = append(f.modes, op)
	}
	return f, nil
}

func buildMode(p *PhaseMatrixExpansion, grid *AngularGrid, mu0 float64, m, lmax int) *ModeOperator {
	n := grid.N()
	op := &ModeOperator{
		M:    m,
		Z:    sparse.ZerosDense(n, n, 4, 4),
		ZSun: sparse.ZerosDense(n, 4, 4),
	}
	tab := legendreTable(m, lmax, grid.Mu)
	sun := assocLegendre(m, lmax, -mu0)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for ii := 0; ii < 4; ii++ {
				for jj := 0; jj < 4; jj++ {
					var sum float64
					for l := m; l <= lmax && l <= p.MaxOrder; l++ {
						c := p.Coeff.Get(l, ii, jj)
						if c == 0 {
							continue
						}
						sum += c * tab[i][l] * tab[j][l]
					}
					if sum != 0 {
						op.Z.Set(sum, i, j, ii, jj)
						op.Norm += math.Abs(sum)
					}
				}
			}
		}
		for ii := 0; ii < 4; ii++ {
			for jj := 0; jj < 4; jj++ {
				var sum float64
				for l := m; l <= lmax && l <= p.MaxOrder; l++ {
					c := p.Coeff.Get(l, ii, jj)
					if c == 0 {
						continue
					}
					sum += c * tab[i][l] * sun[l]
				}
				if sum != 0 {
					op.ZSun.Set(sum, i, ii, jj)
				}
			}
		}
	}
	return op
}

// Apply multiplies the mode operator's 4×4 block for directions (out,in)
// by the Stokes vector s, accumulating into dst (a 4-element slice).
func (op *ModeOperator) Apply(dst []float64, out, in int, s []float64) {
	for ii := 0; ii < 4; ii++ {
		var sum float64
		for jj := 0; jj < 4; jj++ {
			sum += op.Z.Get(out, in, ii, jj) * s[jj]
		}
		dst[ii] += sum
	}
}
