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

	"github.com/ctessum/sparse"
)

// testResult builds a two-mode, one-level result with constant fields for
// exercising Fourier re-synthesis in isolation.
func testResult(t *testing.T, mode0, mode1 [4]float64) (*Result, *AngularGrid) {
	t.Helper()
	grid, err := NewAngularGrid(2, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, err := NewVerticalGrid([]Layer{{Top: 100, Bottom: 0, Extinction: 1e-3, Albedo: 0.5}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	fill := func(s [4]float64) *sparse.DenseArray {
		d := sparse.ZerosDense(v.NLevels(Atmosphere), grid.N(), 4)
		for lev := 0; lev < v.NLevels(Atmosphere); lev++ {
			for i := 0; i < grid.N(); i++ {
				for c := 0; c < 4; c++ {
					d.Set(s[c], lev, i, c)
				}
			}
		}
		return d
	}
	r := &Result{
		Modes: []*ModeField{
			{M: 0, Atm: fill(mode0)},
			{M: 1, Atm: fill(mode1)},
		},
		Orders:    1,
		Converged: true,
		air:       grid,
		vertical:  v,
	}
	return r, grid
}

func TestAssembleResynthesis(t *testing.T) {
	mode0 := [4]float64{1, 0.2, 0.1, 0.05}
	mode1 := [4]float64{0.4, 0.08, 0.03, 0.01}
	r, grid := testResult(t, mode0, mode1)

	for _, az := range []float64{0, 30, 90, 145, 180} {
		f, err := r.Assemble(Atmosphere, 0, []float64{az})
		if err != nil {
			t.Fatal(err)
		}
		phi := az * math.Pi / 180
		c, s := math.Cos(phi), math.Sin(phi)
		want := [4]float64{
			mode0[0] + 2*mode1[0]*c,
			mode0[1] + 2*mode1[1]*c,
			0 + 2*mode1[2]*s, // sine series: mode 0 contributes nothing
			0 + 2*mode1[3]*s,
		}
		for i := 0; i < grid.N(); i++ {
			for comp := 0; comp < 4; comp++ {
				if absDifferent(f.Get(0, i, comp), want[comp], 1e-14) {
					t.Errorf("Δφ=%g° direction %d component %d: got %g, want %g",
						az, i, comp, f.Get(0, i, comp), want[comp])
				}
			}
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	r, _ := testResult(t, [4]float64{1}, [4]float64{0.1})
	if _, err := r.Assemble(Atmosphere, 5, []float64{0}); err == nil {
		t.Error("expected error for out-of-range level")
	}
	if _, err := r.Assemble(Ocean, 0, []float64{0}); err == nil {
		t.Error("expected error for an absent ocean")
	}
	if _, err := r.StokesAt(Atmosphere, 0, 0.31415, 0); err == nil {
		t.Error("expected error for an off-grid direction")
	}
}

func TestSurfaceAndBottomLevels(t *testing.T) {
	r, _ := testResult(t, [4]float64{1}, [4]float64{0.1})
	if r.SurfaceLevel(Atmosphere) != 1 {
		t.Errorf("atmospheric surface level %d, want 1", r.SurfaceLevel(Atmosphere))
	}
	if r.BottomLevel(Atmosphere) != 1 {
		t.Errorf("atmospheric bottom level %d, want 1", r.BottomLevel(Atmosphere))
	}
	if r.SurfaceLevel(Ocean) != 0 {
		t.Errorf("oceanic surface level %d, want 0", r.SurfaceLevel(Ocean))
	}
}

func TestIrradianceConstantField(t *testing.T) {
	r, _ := testResult(t, [4]float64{2, 0.1, 0, 0}, [4]float64{0.5, 0, 0, 0})
	ed, eu, err := r.Irradiance(Atmosphere, 0)
	if err != nil {
		t.Fatal(err)
	}
	// For a constant mode-0 intensity c, Ed = 2π·c·∫₀¹μdμ = π·c, and
	// the quadrature integrates μ exactly. Mode 1 must not contribute.
	if different(ed, 2*math.Pi, 1e-12) || different(eu, 2*math.Pi, 1e-12) {
		t.Errorf("Ed = %g, Eu = %g, want %g", ed, eu, 2*math.Pi)
	}
	if _, _, err := r.Irradiance(Ocean, 0); err == nil {
		t.Error("expected error for an absent ocean")
	}
	if _, _, err := r.Irradiance(Atmosphere, 7); err == nil {
		t.Error("expected error for an out-of-range level")
	}
}

func TestDoLPAoLP(t *testing.T) {
	s := [4]float64{2, 0.6, 0.8, 0}
	if different(DoLP(s), 0.5, 1e-14) {
		t.Errorf("DoLP = %g, want 0.5", DoLP(s))
	}
	if DoLP([4]float64{}) != 0 {
		t.Error("DoLP of a zero vector should be 0")
	}
	if different(AoLP(s), math.Atan2(0.8, 0.6)/2, 1e-14) {
		t.Errorf("AoLP = %g, want %g", AoLP(s), math.Atan2(0.8, 0.6)/2)
	}
}
