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
	"math"
	"testing"
)

// Test m=0 against the first few ordinary Legendre polynomials.
func TestLegendreM0(t *testing.T) {
	const testTolerance = 1e-13
	for _, x := range []float64{-0.9, -0.3, 0, 0.42, 0.99} {
		r := assocLegendre(0, 3, x)
		want := []float64{
			1,
			x,
			(3*x*x - 1) / 2,
			(5*x*x*x - 3*x) / 2,
		}
		for l := range want {
			if absDifferent(r[l], want[l], testTolerance) {
				t.Errorf("x=%g l=%d: got %g, want %g", x, l, r[l], want[l])
			}
		}
	}
}

// Test m=2 against the closed form of the normalized function:
// R_2^2 = 3(1-x²)/(2√6).
func TestLegendreM2(t *testing.T) {
	const testTolerance = 1e-13
	for _, x := range []float64{-0.7, 0, 0.5, 0.95} {
		r := assocLegendre(2, 2, x)
		if r[0] != 0 || r[1] != 0 {
			t.Errorf("x=%g: entries below l=m are %g, %g; want 0", x, r[0], r[1])
		}
		want := 3 * (1 - x*x) / (2 * math.Sqrt(6))
		if absDifferent(r[2], want, testTolerance) {
			t.Errorf("x=%g: R_2^2 = %g, want %g", x, r[2], want)
		}
	}
}

// The normalized functions are orthogonal with weight 1:
// ∫ R_l^m R_k^m dx = 2δ_lk/(2l+1). The angular grid's quadrature must
// reproduce this, since the mode operators rely on it.
func TestLegendreOrthogonality(t *testing.T) {
	const testTolerance = 1e-10
	g, err := NewAngularGrid(16, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []int{0, 1, 2, 5} {
		const lmax = 8
		tab := legendreTable(m, lmax, g.Mu)
		for l := m; l <= lmax; l++ {
			for k := m; k <= lmax; k++ {
				var sum float64
				for i := 0; i < g.N(); i++ {
					sum += g.Weight[i] * tab[i][l] * tab[i][k]
				}
				want := 0.0
				if l == k {
					want = 2 / float64(2*l+1)
				}
				if absDifferent(sum, want, testTolerance) {
					t.Errorf("m=%d l=%d k=%d: quadrature gives %g, want %g", m, l, k, sum, want)
				}
			}
		}
	}
}

// Requesting lmax below m yields all zeros rather than an out-of-range
// access.
func TestLegendreDegenerate(t *testing.T) {
	r := assocLegendre(5, 3, 0.5)
	for l, v := range r {
		if v != 0 {
			t.Errorf("l=%d: got %g, want 0", l, v)
		}
	}
	// |x| = 1 kills every m > 0 family.
	r = assocLegendre(1, 4, 1)
	for l, v := range r {
		if v != 0 {
			t.Errorf("x=1 l=%d: got %g, want 0", l, v)
		}
	}
}
