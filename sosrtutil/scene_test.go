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

	"github.com/oceanmodel/sosrt"
)

const testScene = `
[atmosphere]
profile = "rayleigh"
tau = 0.1
scaleheight = 8000
ztop = 50000
nlayers = 20
albedo = 1.0

[atmosphere.phase]
kind = "rayleigh"
depol = 0.03

[ocean]
profile = "uniform"
extinction = 0.06
depth = 100
step = 10
taucutoff = 30
albedo = 0.8

[ocean.phase]
kind = "henyey-greenstein"
g = 0.8
maxorder = 64
truncateorder = 24

[surface]
kind = "flat"
bottomalbedo = 0.1
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "sosrt")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scene.toml")
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSceneAndBuild(t *testing.T) {
	path := writeTemp(t, testScene)
	defer os.RemoveAll(filepath.Dir(path))

	scene, err := LoadScene(path)
	if err != nil {
		t.Fatal(err)
	}
	if scene.Surface.BottomAlbedo != 0.1 {
		t.Errorf("bottom albedo %g, want 0.1", scene.Surface.BottomAlbedo)
	}

	cfg := sosrt.DefaultConfig()
	cfg.NQuad = 8
	vertical, optics, surface, err := scene.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(vertical.Atmosphere); got != 20 {
		t.Errorf("got %d atmospheric layers, want 20", got)
	}
	if vertical.NLevels(sosrt.Ocean) == 0 {
		t.Error("ocean missing from built vertical grid")
	}
	if optics.Ocean == nil {
		t.Fatal("ocean phase expansion missing")
	}
	if optics.Ocean.MaxOrder != 24 {
		t.Errorf("truncated ocean expansion carries order %d, want 24", optics.Ocean.MaxOrder)
	}
	// Delta-M truncation reduces the oceanic optical depth.
	tau := vertical.TotalTau(sosrt.Ocean)
	if tau >= 6 {
		t.Errorf("oceanic τ = %g; delta-M rescaling should have reduced it below the unscaled 6", tau)
	}

	// The whole scene feeds a working solver.
	if _, err := sosrt.NewSolver(cfg, vertical, optics, surface); err != nil {
		t.Fatal(err)
	}
}

func TestSceneExplicitLayers(t *testing.T) {
	const scene = `
[atmosphere]
layers = [
  {top = 20000, bottom = 10000, extinction = 1e-5, albedo = 0.9},
  {top = 10000, bottom = 0, extinction = 2e-5, albedo = 0.9},
]
[atmosphere.phase]
kind = "isotropic"
[surface]
kind = "black"
`
	path := writeTemp(t, scene)
	defer os.RemoveAll(filepath.Dir(path))
	s, err := LoadScene(path)
	if err != nil {
		t.Fatal(err)
	}
	v, _, _, err := s.Build(sosrt.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Atmosphere) != 2 {
		t.Errorf("got %d layers, want 2", len(v.Atmosphere))
	}
}

func TestSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		m    MediumSpec
	}{
		{"profile and layers", MediumSpec{
			Profile: "rayleigh", Tau: 0.1, ScaleHeight: 8000, ZTop: 50000, NLayers: 5,
			Layers: []LayerSpec{{Top: 1, Bottom: 0, Extinction: 1}},
		}},
		{"unknown profile", MediumSpec{Profile: "polynomial"}},
		{"nothing given", MediumSpec{}},
	}
	for _, test := range tests {
		if _, err := test.m.buildLayers(sosrt.Atmosphere); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}

	bad := PhaseSpec{Kind: "coefficients", Coefficients: [][]float64{{1, 2, 3}}}
	if _, _, err := bad.buildPhase(); err == nil {
		t.Error("expected error for a short coefficient block")
	}
	if _, _, err := (&PhaseSpec{Kind: "mie"}).buildPhase(); err == nil {
		t.Error("expected error for an unknown phase kind")
	}

	sp := SurfaceSpec{Kind: "file"}
	if _, err := sp.build(sosrt.DefaultConfig(), nil); err == nil {
		t.Error("expected error for a file surface without a file")
	}
}

func TestLoadSurfaceFile(t *testing.T) {
	const surf = `
[[modes]]
m = 0
raa = [[0.1, 0, 0, 0], [0, 0.1, 0, 0], [0, 0, 0.1, 0], [0, 0, 0, 0.1]]

[[modes]]
m = 1
`
	dir, err := ioutil.TempDir("", "sosrt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "surface.toml")
	if err := ioutil.WriteFile(path, []byte(surf), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSurface(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Modes) != 2 {
		t.Fatalf("got %d modes, want 2", len(s.Modes))
	}
	sm, err := s.Mode(0)
	if err != nil {
		t.Fatal(err)
	}
	if sm.Raa == nil {
		t.Fatal("mode 0 Raa missing")
	}
	if got := sm.Raa.At(1, 1); got != 0.1 {
		t.Errorf("Raa(1,1) = %g, want 0.1", got)
	}
	if sm.Rww != nil {
		t.Error("absent matrix should load as nil")
	}

	const gap = `
[[modes]]
m = 1
`
	path2 := filepath.Join(dir, "gap.toml")
	if err := ioutil.WriteFile(path2, []byte(gap), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSurface(path2); err == nil {
		t.Error("expected error for modes not starting at 0")
	}
}
