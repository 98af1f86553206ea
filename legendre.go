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

import "math"

// Terms whose normalized Legendre prefactor has decayed below this level
// contribute nothing at float64 precision and are skipped to avoid
// spurious underflow in the recurrences.
const legendreUnderflow = 1e-280

// assocLegendre evaluates the normalized associated Legendre functions
//
//	R_l^m(x) = sqrt((l-m)!/(l+m)!) · P_l^m(x)
//
// for l = 0..lmax at the point x, returning a slice indexed by l (entries
// below l = m are zero). The normalization makes the addition theorem for
// azimuthal Fourier decomposition read Z^m(μ,μ') = Σ_l β_l R_l^m(μ)R_l^m(μ'),
// and keeps the recurrence well conditioned at high m where the raw P_l^m
// overflow. The Condon-Shortley phase is omitted, following the radiative
// transfer convention.
func assocLegendre(m, lmax int, x float64) []float64 {
	r := make([]float64, lmax+1)
	if m > lmax {
		return r
	}
	// Seed: R_m^m = sqrt((2m-1)!!/(2m)!!) · (1-x²)^{m/2}.
	seed := 1.0
	s := math.Sqrt(1 - x*x)
	for k := 1; k <= m; k++ {
		seed *= s * math.Sqrt(float64(2*k-1)/float64(2*k))
		if math.Abs(seed) < legendreUnderflow {
			// The entire l ≥ m family is negligible at this x.
			return r
		}
	}
	r[m] = seed
	if m == lmax {
		return r
	}
	// First step of the upward recurrence.
	r[m+1] = x * math.Sqrt(float64(2*m+1)) * r[m]
	for l := m + 1; l < lmax; l++ {
		a := math.Sqrt(float64(l*l - m*m))
		b := math.Sqrt(float64((l+1)*(l+1) - m*m))
		r[l+1] = (float64(2*l+1)*x*r[l] - a*r[l-1]) / b
	}
	return r
}

// legendreTable evaluates R_l^m for l=0..lmax at every point in xs,
// returning tab[i][l] for point index i.
func legendreTable(m, lmax int, xs []float64) [][]float64 {
	tab := make([][]float64, len(xs))
	for i, x := range xs {
		tab[i] = assocLegendre(m, lmax, x)
	}
	return tab
}
