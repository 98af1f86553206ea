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

func TestPhaseNormalization(t *testing.T) {
	if _, err := NewPhaseMatrixExpansion(nil); err == nil {
		t.Error("expected error for empty coefficient table")
	}
	bad := [][4][4]float64{{{0.5}}}
	if _, err := NewPhaseMatrixExpansion(bad); err == nil {
		t.Error("expected error for unnormalized l=0 coefficient")
	}
	good := [][4][4]float64{{{1}}}
	p, err := NewPhaseMatrixExpansion(good)
	if err != nil {
		t.Fatal(err)
	}
	if p.MaxOrder != 0 {
		t.Errorf("MaxOrder = %d, want 0", p.MaxOrder)
	}
}

func TestRayleighPhase(t *testing.T) {
	p, err := RayleighPhase(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.MaxOrder != 2 {
		t.Fatalf("MaxOrder = %d, want 2", p.MaxOrder)
	}
	if p.Coeff.Get(0, 0, 0) != 1 {
		t.Errorf("l=0 (1,1) coefficient = %g, want 1", p.Coeff.Get(0, 0, 0))
	}
	if different(p.Coeff.Get(2, 0, 0), 0.5, 1e-12) {
		t.Errorf("l=2 (1,1) coefficient = %g, want 0.5", p.Coeff.Get(2, 0, 0))
	}
	// Depolarization weakens the l=2 structure.
	pd, err := RayleighPhase(0.1)
	if err != nil {
		t.Fatal(err)
	}
	if pd.Coeff.Get(2, 0, 0) >= p.Coeff.Get(2, 0, 0) {
		t.Error("depolarization did not reduce the l=2 coefficient")
	}
	if _, err := RayleighPhase(1); err == nil {
		t.Error("expected error for depolarization factor 1")
	}
}

func TestHenyeyGreenstein(t *testing.T) {
	const g = 0.7
	p, err := HenyeyGreensteinPhase(g, 10)
	if err != nil {
		t.Fatal(err)
	}
	for l := 0; l <= 10; l++ {
		want := float64(2*l+1) * math.Pow(g, float64(l))
		if different(p.Coeff.Get(l, 0, 0), want, 1e-12) {
			t.Errorf("β_%d = %g, want %g", l, p.Coeff.Get(l, 0, 0), want)
		}
	}
	if _, err := HenyeyGreensteinPhase(1, 10); err == nil {
		t.Error("expected error for g=1")
	}
}

func TestDeltaTruncate(t *testing.T) {
	const g = 0.8
	p, err := HenyeyGreensteinPhase(g, 32)
	if err != nil {
		t.Fatal(err)
	}
	const M = 8
	trunc, f, err := p.DeltaTruncate(M)
	if err != nil {
		t.Fatal(err)
	}
	// For Henyey-Greenstein the peak fraction is g^(M+1).
	if different(f, math.Pow(g, M+1), 1e-12) {
		t.Errorf("peak fraction %g, want %g", f, math.Pow(g, M+1))
	}
	if trunc.MaxOrder != M {
		t.Errorf("truncated MaxOrder = %d, want %d", trunc.MaxOrder, M)
	}
	if different(trunc.Coeff.Get(0, 0, 0), 1, 1e-12) {
		t.Errorf("truncation broke normalization: l=0 coefficient = %g", trunc.Coeff.Get(0, 0, 0))
	}
	for l := 1; l <= M; l++ {
		want := (float64(2*l+1)*math.Pow(g, float64(l)) - float64(2*l+1)*f) / (1 - f)
		if different(trunc.Coeff.Get(l, 0, 0), want, 1e-12) {
			t.Errorf("β'_%d = %g, want %g", l, trunc.Coeff.Get(l, 0, 0), want)
		}
	}

	// Truncating at or above the carried order is a no-op.
	same, f2, err := p.DeltaTruncate(32)
	if err != nil {
		t.Fatal(err)
	}
	if f2 != 0 || same != p {
		t.Error("truncation at the full order should be a no-op")
	}
}

func TestDeltaScale(t *testing.T) {
	layers := []Layer{{Top: 100, Bottom: 0, Extinction: 0.01, Albedo: 0.9}}
	const f = 0.2
	out := DeltaScale(layers, f)
	scale := 1 - 0.9*f
	if different(out[0].Extinction, 0.01*scale, 1e-12) {
		t.Errorf("scaled extinction %g, want %g", out[0].Extinction, 0.01*scale)
	}
	if different(out[0].Albedo, (1-f)*0.9/scale, 1e-12) {
		t.Errorf("scaled albedo %g, want %g", out[0].Albedo, (1-f)*0.9/scale)
	}
	if got := DeltaScale(layers, 0); &got[0] != &layers[0] {
		t.Error("f=0 should return the input unchanged")
	}
}

func TestOpticsCheck(t *testing.T) {
	v, err := NewVerticalGrid(
		[]Layer{{Top: 100, Bottom: 0, Extinction: 1e-3, Albedo: 0.5}},
		[]Layer{{Top: 0, Bottom: 10, Extinction: 0.1, Albedo: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	o := &Optics{Atmosphere: IsotropicPhase()}
	if err := o.check(v); err == nil {
		t.Error("expected error for missing ocean expansion")
	}
	o.Ocean = IsotropicPhase()
	if err := o.check(v); err != nil {
		t.Error(err)
	}
	var empty *Optics
	if err := empty.check(v); err == nil {
		t.Error("expected error for nil optics")
	}
}
