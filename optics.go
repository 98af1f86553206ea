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

// Tolerance on the l=0 normalization of the (1,1) phase-matrix element.
const phaseNormTolerance = 1e-9

// PhaseMatrixExpansion is a 4×4 phase (Mueller) matrix expanded in
// Legendre series: the scattering matrix for cosine of scattering angle x
// is Σ_l B_l·P_l(x), where B_l is the 4×4 coefficient block of order l.
// The l=0 coefficient of the (1,1) element must be exactly 1, which
// normalizes the phase function to integrate to 4π steradians.
// Expansions are immutable once constructed.
type PhaseMatrixExpansion struct {
	// Coeff has shape [MaxOrder+1][4][4].
	Coeff *sparse.DenseArray

	// MaxOrder is the highest Legendre order carried.
	MaxOrder int
}

// NewPhaseMatrixExpansion validates and wraps a coefficient table. coeff[l]
// is the 4×4 block for Legendre order l, in row-major [4][4] layout. It is
// a configuration error for coeff to be empty or for coeff[0][0][0] to
// differ from 1 beyond a small tolerance.
func NewPhaseMatrixExpansion(coeff [][4][4]float64) (*PhaseMatrixExpansion, error) {
	if len(coeff) == 0 {
		return nil, fmt.Errorf("sosrt: phase-matrix expansion has no coefficients")
	}
	if math.Abs(coeff[0][0][0]-1) > phaseNormTolerance {
		return nil, fmt.Errorf("sosrt: phase-matrix normalization violated: l=0 coefficient of the (1,1) element is %g, want 1", coeff[0][0][0])
	}
	a := sparse.ZerosDense(len(coeff), 4, 4)
	for l, b := range coeff {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				a.Set(b[i][j], l, i, j)
			}
		}
	}
	return &PhaseMatrixExpansion{Coeff: a, MaxOrder: len(coeff) - 1}, nil
}

// IsotropicPhase returns the expansion of an isotropic, fully
// depolarizing scatterer: only the l=0 (1,1) coefficient is non-zero.
func IsotropicPhase() *PhaseMatrixExpansion {
	p, err := NewPhaseMatrixExpansion([][4][4]float64{{{1}}})
	if err != nil {
		panic(err) // cannot happen: the coefficient table is fixed
	}
	return p
}

// RayleighPhase returns the scalar Rayleigh scattering expansion with the
// given depolarization factor (0 for pure Rayleigh). The polarization
// structure beyond the (1,1), (2,2) and (1,2)/(2,1) elements follows the
// standard degenerate Rayleigh coefficients.
func RayleighPhase(depol float64) (*PhaseMatrixExpansion, error) {
	if depol < 0 || depol >= 1 {
		return nil, fmt.Errorf("sosrt: depolarization factor %g outside [0,1)", depol)
	}
	// Chandrasekhar's depolarization correction to the l=2 coefficient.
	d := (1 - depol) / (1 + depol/2)
	coeff := make([][4][4]float64, 3)
	coeff[0][0][0] = 1
	coeff[2][0][0] = d / 2
	coeff[2][0][1] = -d * math.Sqrt(1.5) / 2
	coeff[2][1][0] = coeff[2][0][1]
	coeff[2][1][1] = d * 3
	coeff[1][3][3] = d * 3. / 2.
	coeff[2][2][2] = d / 2
	return NewPhaseMatrixExpansion(coeff)
}

// HenyeyGreensteinPhase returns the expansion of the scalar
// Henyey-Greenstein phase function with asymmetry parameter g, carried to
// maxOrder, as a fully depolarizing matrix (only the (1,1) row of
// coefficients is populated). The Legendre coefficients are
// β_l = (2l+1)·g^l.
func HenyeyGreensteinPhase(g float64, maxOrder int) (*PhaseMatrixExpansion, error) {
	if g <= -1 || g >= 1 {
		return nil, fmt.Errorf("sosrt: Henyey-Greenstein asymmetry %g outside (-1,1)", g)
	}
	if maxOrder < 0 {
		return nil, fmt.Errorf("sosrt: negative Legendre order %d", maxOrder)
	}
	coeff := make([][4][4]float64, maxOrder+1)
	gl := 1.0
	for l := 0; l <= maxOrder; l++ {
		coeff[l][0][0] = float64(2*l+1) * gl
		gl *= g
	}
	return NewPhaseMatrixExpansion(coeff)
}

// DeltaTruncate applies delta-M style forward-peak truncation: orders
// above maxOrder are folded into a forward Dirac peak of fractional
// strength f, the retained coefficients are renormalized so the l=0 (1,1)
// coefficient stays exactly 1, and f is returned so the caller can rescale
// layer optical properties (τ' = (1-ωf)τ, ω' = (1-f)ω/(1-ωf)).
// Truncating at or above the expansion's own order is a no-op with f = 0.
func (p *PhaseMatrixExpansion) DeltaTruncate(maxOrder int) (*PhaseMatrixExpansion, float64, error) {
	if maxOrder < 0 {
		return nil, 0, fmt.Errorf("sosrt: negative truncation order %d", maxOrder)
	}
	if maxOrder >= p.MaxOrder {
		return p, 0, nil
	}
	// The peak fraction is taken from the first discarded (1,1)
	// coefficient, the conventional delta-M choice.
	f := p.Coeff.Get(maxOrder+1, 0, 0) / float64(2*(maxOrder+1)+1)
	if f <= 0 || f >= 1 {
		// Nothing meaningful to fold; plain truncation.
		f = 0
	}
	coeff := make([][4][4]float64, maxOrder+1)
	for l := 0; l <= maxOrder; l++ {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				c := p.Coeff.Get(l, i, j)
				if i == 0 && j == 0 {
					c = (c - float64(2*l+1)*f) / (1 - f)
				} else {
					c = c / (1 - f)
				}
				coeff[l][i][j] = c
			}
		}
	}
	out, err := NewPhaseMatrixExpansion(coeff)
	if err != nil {
		return nil, 0, err
	}
	return out, f, nil
}

// DeltaScale applies the delta-M optical property rescaling implied by a
// forward-peak fraction f to a set of layers, returning the adjusted
// copies. With f = 0 the input is returned unchanged.
func DeltaScale(layers []Layer, f float64) []Layer {
	if f == 0 {
		return layers
	}
	out := make([]Layer, len(layers))
	for k, l := range layers {
		scale := 1 - l.Albedo*f
		out[k] = l
		out[k].Extinction = l.Extinction * scale
		out[k].Albedo = (1 - f) * l.Albedo / scale
	}
	return out
}

// Optics bundles the phase-matrix expansions for the two media. A nil
// Ocean expansion is allowed when the vertical grid has no ocean layers.
type Optics struct {
	Atmosphere *PhaseMatrixExpansion
	Ocean      *PhaseMatrixExpansion
}

// check validates that each medium with layers has a phase expansion.
// Legendre orders beyond what the quadrature can integrate are capped when
// the azimuthal mode operators are built, not here.
func (o *Optics) check(v *VerticalGrid) error {
	if o == nil || o.Atmosphere == nil {
		return fmt.Errorf("sosrt: missing atmospheric phase-matrix expansion")
	}
	if len(v.Ocean) > 0 && o.Ocean == nil {
		return fmt.Errorf("sosrt: ocean layers present but no ocean phase-matrix expansion")
	}
	return nil
}
