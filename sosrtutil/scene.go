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

// Package sosrtutil holds configuration, input-file, and output glue for
// the sosrt solver: TOML scene descriptions, viper/cobra command
// handling, and NetCDF output.
package sosrtutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/oceanmodel/sosrt"
)

// Scene is the TOML description of one solve: the vertical structure and
// optical properties of the two media and the interface between them.
// The solver's numerical settings come separately, from the command
// configuration.
type Scene struct {
	Atmosphere MediumSpec  `toml:"atmosphere"`
	Ocean      *MediumSpec `toml:"ocean"`
	Surface    SurfaceSpec `toml:"surface"`
}

// MediumSpec describes one medium. Either Profile parameters or explicit
// Layers must be given, not both.
type MediumSpec struct {
	// Profile selects a built-in vertical profile: "rayleigh" (an
	// exponential molecular atmosphere), "uniform" (uniform ocean
	// layers to a depth or optical-depth cutoff), or "" when explicit
	// layers are listed.
	Profile string `toml:"profile"`

	// Exponential-profile parameters (atmosphere).
	Tau         float64 `toml:"tau"`
	ScaleHeight float64 `toml:"scaleheight"` // m
	ZTop        float64 `toml:"ztop"`        // m
	NLayers     int     `toml:"nlayers"`

	// Aerosol overlay on a Rayleigh profile; zero AerosolTau disables
	// it.
	AerosolTau         float64 `toml:"aerosoltau"`
	AerosolScaleHeight float64 `toml:"aerosolscaleheight"` // m
	AerosolAlbedo      float64 `toml:"aerosolalbedo"`

	// Uniform-profile parameters (ocean).
	Extinction float64 `toml:"extinction"` // m⁻¹
	Depth      float64 `toml:"depth"`      // m
	Step       float64 `toml:"step"`       // m
	TauCutoff  float64 `toml:"taucutoff"`

	Albedo float64 `toml:"albedo"` // single-scattering albedo

	// Layers lists explicit layers instead of a profile.
	Layers []LayerSpec `toml:"layers"`

	Phase PhaseSpec `toml:"phase"`
}

// LayerSpec is one explicit layer.
type LayerSpec struct {
	Top        float64 `toml:"top"`
	Bottom     float64 `toml:"bottom"`
	Extinction float64 `toml:"extinction"`
	Albedo     float64 `toml:"albedo"`
}

// PhaseSpec selects a phase-matrix expansion: one of the built-in
// analytic kinds, or explicit Legendre coefficient blocks as produced by
// an upstream Mie/IOP tool.
type PhaseSpec struct {
	// Kind is "isotropic", "rayleigh", "henyey-greenstein", or
	// "coefficients".
	Kind string `toml:"kind"`

	Depol    float64 `toml:"depol"` // rayleigh
	G        float64 `toml:"g"`     // henyey-greenstein
	MaxOrder int     `toml:"maxorder"`

	// Coefficients holds the 4×4 blocks, one row-major 16-element slice
	// per Legendre order.
	Coefficients [][]float64 `toml:"coefficients"`

	// TruncateOrder applies delta-M forward-peak truncation at the
	// given order (0 disables). The implied optical-property rescaling
	// is applied to the medium's layers.
	TruncateOrder int `toml:"truncateorder"`
}

// SurfaceSpec selects the air-water interface description.
type SurfaceSpec struct {
	// Kind is "flat", "black", or "file".
	Kind string `toml:"kind"`

	// File points to a TOML per-mode surface-matrix file produced by a
	// rough-surface builder; required when Kind is "file".
	File string `toml:"file"`

	// BottomAlbedo is the Lambertian ocean-floor albedo.
	BottomAlbedo float64 `toml:"bottomalbedo"`
}

// LoadScene reads and decodes a TOML scene file.
func LoadScene(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sosrtutil: opening scene file: %v", err)
	}
	defer f.Close()
	var s Scene
	if _, err := toml.DecodeReader(f, &s); err != nil {
		return nil, fmt.Errorf("sosrtutil: decoding scene file %s: %v", path, err)
	}
	return &s, nil
}

// buildLayers converts a MediumSpec into a layer stack.
func (m *MediumSpec) buildLayers(medium sosrt.Medium) ([]sosrt.Layer, error) {
	if len(m.Layers) > 0 {
		if m.Profile != "" {
			return nil, fmt.Errorf("sosrtutil: both a profile (%q) and explicit layers given", m.Profile)
		}
		layers := make([]sosrt.Layer, len(m.Layers))
		for i, l := range m.Layers {
			layers[i] = sosrt.Layer{Top: l.Top, Bottom: l.Bottom, Extinction: l.Extinction, Albedo: l.Albedo}
		}
		return layers, nil
	}
	switch m.Profile {
	case "rayleigh":
		layers, err := sosrt.RayleighProfile(m.Tau, m.ScaleHeight, m.ZTop, m.NLayers, m.Albedo)
		if err != nil {
			return nil, err
		}
		if m.AerosolTau > 0 {
			layers, err = sosrt.MixedProfile(layers, m.AerosolTau, m.AerosolScaleHeight, m.AerosolAlbedo)
			if err != nil {
				return nil, err
			}
		}
		return layers, nil
	case "uniform":
		return sosrt.OceanProfile(m.Extinction, m.Albedo, m.Depth, m.Step, m.TauCutoff)
	case "":
		return nil, fmt.Errorf("sosrtutil: %s has neither a profile nor explicit layers", medium)
	}
	return nil, fmt.Errorf("sosrtutil: unknown vertical profile %q", m.Profile)
}

// buildPhase converts a PhaseSpec into an expansion, applying forward-peak
// truncation when requested, and returns the delta-M peak fraction to be
// applied to the medium's layers.
func (p *PhaseSpec) buildPhase() (*sosrt.PhaseMatrixExpansion, float64, error) {
	var exp *sosrt.PhaseMatrixExpansion
	var err error
	switch p.Kind {
	case "isotropic":
		exp = sosrt.IsotropicPhase()
	case "rayleigh":
		exp, err = sosrt.RayleighPhase(p.Depol)
	case "henyey-greenstein":
		order := p.MaxOrder
		if order == 0 {
			order = 64
		}
		exp, err = sosrt.HenyeyGreensteinPhase(p.G, order)
	case "coefficients":
		coeff := make([][4][4]float64, len(p.Coefficients))
		for l, row := range p.Coefficients {
			if len(row) != 16 {
				return nil, 0, fmt.Errorf("sosrtutil: phase coefficient block %d has %d elements, want 16", l, len(row))
			}
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					coeff[l][i][j] = row[4*i+j]
				}
			}
		}
		exp, err = sosrt.NewPhaseMatrixExpansion(coeff)
	default:
		return nil, 0, fmt.Errorf("sosrtutil: unknown phase kind %q", p.Kind)
	}
	if err != nil {
		return nil, 0, err
	}
	if p.TruncateOrder > 0 {
		var f float64
		exp, f, err = exp.DeltaTruncate(p.TruncateOrder)
		if err != nil {
			return nil, 0, err
		}
		return exp, f, nil
	}
	return exp, 0, nil
}

// Build assembles the solver inputs described by the scene: the vertical
// grid (with any delta-M rescaling applied), the phase expansions, and
// the surface.
func (s *Scene) Build(cfg sosrt.SolverConfig) (*sosrt.VerticalGrid, *sosrt.Optics, *sosrt.Surface, error) {
	atmLayers, err := s.Atmosphere.buildLayers(sosrt.Atmosphere)
	if err != nil {
		return nil, nil, nil, err
	}
	atmPhase, fAtm, err := s.Atmosphere.Phase.buildPhase()
	if err != nil {
		return nil, nil, nil, err
	}
	atmLayers = sosrt.DeltaScale(atmLayers, fAtm)

	var ocnLayers []sosrt.Layer
	optics := &sosrt.Optics{Atmosphere: atmPhase}
	if s.Ocean != nil {
		ocnLayers, err = s.Ocean.buildLayers(sosrt.Ocean)
		if err != nil {
			return nil, nil, nil, err
		}
		var fOcn float64
		optics.Ocean, fOcn, err = s.Ocean.Phase.buildPhase()
		if err != nil {
			return nil, nil, nil, err
		}
		ocnLayers = sosrt.DeltaScale(ocnLayers, fOcn)
	}

	vertical, err := sosrt.NewVerticalGrid(atmLayers, ocnLayers)
	if err != nil {
		return nil, nil, nil, err
	}

	surface, err := s.Surface.build(cfg, vertical)
	if err != nil {
		return nil, nil, nil, err
	}
	return vertical, optics, surface, nil
}

// build constructs the surface matrices. The flat and black idealized
// surfaces are built locally; "file" surfaces are read from a per-mode
// matrix file.
func (sp *SurfaceSpec) build(cfg sosrt.SolverConfig, vertical *sosrt.VerticalGrid) (*sosrt.Surface, error) {
	// The solver itself decides how many modes it retains; supply the
	// configured ceiling for idealized surfaces, which are cheap to
	// build for all possible modes.
	nModes := cfg.MaxFourierModes
	if nModes == 0 {
		nModes = 2 * cfg.NQuad
	}
	switch sp.Kind {
	case "black", "":
		return sosrt.BlackSurface(nModes), nil
	case "flat":
		user := sosrt.DegreesToMu(cfg.UserAngles)
		air, err := sosrt.NewAngularGrid(cfg.NQuad, user)
		if err != nil {
			return nil, err
		}
		water, err := sosrt.NewAngularGrid(cfg.NQuad, user)
		if err != nil {
			return nil, err
		}
		mu0 := 0.0
		if cfg.SolarZenith < 90 {
			mu0 = cosDeg(cfg.SolarZenith)
		}
		return sosrt.FlatSurface(air, water, mu0, nModes)
	case "file":
		if sp.File == "" {
			return nil, fmt.Errorf("sosrtutil: surface kind is \"file\" but no file given")
		}
		return LoadSurface(sp.File)
	}
	return nil, fmt.Errorf("sosrtutil: unknown surface kind %q", sp.Kind)
}
