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

package sosrtutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/oceanmodel/sosrt"
)

func TestNewOutputterErrors(t *testing.T) {
	if _, err := NewOutputter("", nil, nil); err == nil {
		t.Error("expected error for an empty file name")
	}
	bad := map[string]string{"broken": "I +* Q"}
	if _, err := NewOutputter("out.nc", bad, nil); err == nil {
		t.Error("expected error for a malformed expression")
	}
	if _, err := NewOutputter("out.nc", map[string]string{"Ed": "I"}, nil); err == nil {
		t.Error("expected error for a reserved variable name")
	}
	if _, err := NewOutputter("out.nc", map[string]string{"ok": "sqrt(Q*Q)/I"}, nil); err != nil {
		t.Error(err)
	}
}

func TestOutputterWrite(t *testing.T) {
	cfg := sosrt.DefaultConfig()
	cfg.NQuad = 4
	v, err := sosrt.NewVerticalGrid([]sosrt.Layer{
		{Top: 10000, Bottom: 0, Extinction: 2e-5, Albedo: 0.9},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	phase, err := sosrt.RayleighPhase(0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := sosrt.NewSolver(cfg, v, &sosrt.Optics{Atmosphere: phase}, sosrt.BlackSurface(8))
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}

	dir, err := ioutil.TempDir("", "sosrt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "radiance.nc")

	o, err := NewOutputter(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	azimuths := []float64{0, 90, 180}
	if err := o.Write(r, sosrt.Atmosphere, sosrt.LevelTOA, azimuths); err != nil {
		t.Fatal(err)
	}

	// Read the file back and verify shape and coordinates.
	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}
	grid := r.Grid(sosrt.Atmosphere)

	for _, name := range []string{"azimuth", "mu", "tau", "Ed", "Eu", "I", "Q", "U", "V", "DoLP"} {
		found := false
		for _, v := range f.Header.Variables() {
			if v == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("variable %q missing from output file", name)
		}
	}

	rd := f.Reader("mu", nil, nil)
	buf := rd.Zero(grid.N())
	if _, err := rd.Read(buf); err != nil {
		t.Fatal(err)
	}
	mu := buf.([]float64)
	for i := range mu {
		if mu[i] != grid.Mu[i] {
			t.Errorf("mu[%d] = %g, want %g", i, mu[i], grid.Mu[i])
		}
	}

	// The irradiance profile spans every level of the medium; the
	// optical-depth coordinate is nondecreasing and upwelling is present
	// for a scattering slab.
	nl := r.BottomLevel(sosrt.Atmosphere) + 1
	rd = f.Reader("tau", nil, nil)
	buf = rd.Zero(nl)
	if _, err := rd.Read(buf); err != nil {
		t.Fatal(err)
	}
	taus := buf.([]float64)
	for k := 1; k < nl; k++ {
		if taus[k] < taus[k-1] {
			t.Errorf("tau[%d] = %g below tau[%d] = %g", k, taus[k], k-1, taus[k-1])
		}
	}
	rd = f.Reader("Eu", nil, nil)
	buf = rd.Zero(nl)
	if _, err := rd.Read(buf); err != nil {
		t.Fatal(err)
	}
	if eu := buf.([]float64); eu[0] <= 0 {
		t.Errorf("Eu at the top of the atmosphere is %g, want positive", eu[0])
	}

	rd = f.Reader("I", nil, nil)
	buf = rd.Zero(len(azimuths) * grid.N())
	if _, err := rd.Read(buf); err != nil {
		t.Fatal(err)
	}
	intens := buf.([]float64)
	var sum float64
	for _, x := range intens {
		if x < 0 {
			t.Error("negative intensity in output")
		}
		sum += x
	}
	if sum == 0 {
		t.Error("output intensity is identically zero")
	}
}
