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
)

// Medium identifies one of the two coupled media.
type Medium int

const (
	// Atmosphere is the medium above the air-water interface.
	Atmosphere Medium = iota
	// Ocean is the medium below the air-water interface.
	Ocean
)

func (m Medium) String() string {
	switch m {
	case Atmosphere:
		return "atmosphere"
	case Ocean:
		return "ocean"
	}
	return fmt.Sprintf("Medium(%d)", int(m))
}

// Layer is one homogeneous slab of a medium. Top and Bottom are altitudes
// [m] above the interface for the atmosphere, or (positive) depths [m]
// below it for the ocean; in both cases Top is the boundary nearer the top
// of the atmosphere.
type Layer struct {
	Top, Bottom float64 // m
	Extinction  float64 // m⁻¹
	Albedo      float64 // single-scattering albedo, dimensionless
}

// thickness returns the geometric thickness of the layer [m].
func (l Layer) thickness(m Medium) float64 {
	if m == Atmosphere {
		return l.Top - l.Bottom
	}
	return l.Bottom - l.Top
}

// VerticalGrid is the discretized vertical structure of the coupled
// system: atmospheric layers ordered from the top of the atmosphere down
// to the interface, then oceanic layers from the interface down to the
// bottom. It is immutable once built.
type VerticalGrid struct {
	Atmosphere []Layer
	Ocean      []Layer

	// tauAtm[k] is the optical depth from the top of the atmosphere to
	// atmospheric level k (level 0 = TOA, level len(Atmosphere) = the
	// interface from above). tauOcn is measured from the interface
	// downward.
	tauAtm, tauOcn []float64
}

// NewVerticalGrid assembles and validates the vertical structure. The
// ocean may be empty (land or black-surface configurations); the
// atmosphere may not. Zero- or negative-thickness layers, negative
// extinction, out-of-range albedo, and non-contiguous layer bounds are
// configuration errors.
func NewVerticalGrid(atmosphere, ocean []Layer) (*VerticalGrid, error) {
	if len(atmosphere) == 0 {
		return nil, fmt.Errorf("sosrt: vertical grid needs at least one atmospheric layer")
	}
	v := &VerticalGrid{Atmosphere: atmosphere, Ocean: ocean}
	var err error
	if v.tauAtm, err = cumulate(atmosphere, Atmosphere); err != nil {
		return nil, err
	}
	if v.tauOcn, err = cumulate(ocean, Ocean); err != nil {
		return nil, err
	}
	return v, nil
}

func cumulate(layers []Layer, m Medium) ([]float64, error) {
	tau := make([]float64, len(layers)+1)
	for k, l := range layers {
		dz := l.thickness(m)
		if dz <= 0 {
			return nil, fmt.Errorf("sosrt: %s layer %d has non-positive thickness %g m", m, k, dz)
		}
		if k > 0 && layers[k-1].Bottom != l.Top {
			return nil, fmt.Errorf("sosrt: %s layers %d and %d are not contiguous", m, k-1, k)
		}
		if l.Extinction < 0 {
			return nil, fmt.Errorf("sosrt: %s layer %d has negative extinction %g", m, k, l.Extinction)
		}
		if l.Albedo < 0 || l.Albedo > 1 {
			return nil, fmt.Errorf("sosrt: %s layer %d has single-scattering albedo %g outside [0,1]", m, k, l.Albedo)
		}
		tau[k+1] = tau[k] + l.Extinction*dz
	}
	return tau, nil
}

// NLevels returns the number of layer boundaries in medium m (one more
// than the number of layers; 0 for an absent ocean).
func (v *VerticalGrid) NLevels(m Medium) int {
	if m == Atmosphere {
		return len(v.Atmosphere) + 1
	}
	if len(v.Ocean) == 0 {
		return 0
	}
	return len(v.Ocean) + 1
}

// Tau returns the cumulative optical depth from the top of medium m to
// level k within that medium.
func (v *VerticalGrid) Tau(m Medium, k int) float64 {
	if m == Atmosphere {
		return v.tauAtm[k]
	}
	return v.tauOcn[k]
}

// TotalTau returns the total optical thickness of medium m.
func (v *VerticalGrid) TotalTau(m Medium) float64 {
	if m == Atmosphere {
		return v.tauAtm[len(v.tauAtm)-1]
	}
	if len(v.tauOcn) == 0 {
		return 0
	}
	return v.tauOcn[len(v.tauOcn)-1]
}

// attenuation returns exp(-dtau/mu) for positive dtau and mu, clamping to
// exactly zero once dtau/mu exceeds cutoff. The clamp is a silent
// numerical guard: beyond the cutoff the true value is far below machine
// epsilon and computing it risks denormals and 0×Inf artifacts.
func attenuation(dtau, mu, cutoff float64) float64 {
	r := dtau / mu
	if r > cutoff {
		return 0
	}
	return math.Exp(-r)
}

// RayleighProfile builds nLayers atmospheric layers between altitude zTop
// [m] and the surface with exponentially distributed molecular optical
// depth of total tauTotal, scale height h [m], and uniform
// single-scattering albedo. Layer bounds are spaced uniformly in altitude;
// each layer's extinction reproduces its share of the exponential column.
func RayleighProfile(tauTotal, h, zTop float64, nLayers int, albedo float64) ([]Layer, error) {
	if tauTotal <= 0 || h <= 0 || zTop <= 0 || nLayers < 1 {
		return nil, fmt.Errorf("sosrt: invalid Rayleigh profile parameters (tau=%g h=%g ztop=%g n=%d)", tauTotal, h, zTop, nLayers)
	}
	// Column fraction below z for an exponential density profile,
	// normalized to the modeled column [0, zTop].
	norm := 1 - math.Exp(-zTop/h)
	layers := make([]Layer, nLayers)
	dz := zTop / float64(nLayers)
	for k := 0; k < nLayers; k++ {
		top := zTop - float64(k)*dz
		bottom := top - dz
		frac := (math.Exp(-bottom/h) - math.Exp(-top/h)) / norm
		layers[k] = Layer{
			Top:        top,
			Bottom:     bottom,
			Extinction: tauTotal * frac / dz,
			Albedo:     albedo,
		}
	}
	return layers, nil
}

// MixedProfile overlays a second exponentially distributed component (for
// example an aerosol column with its own scale height, optical depth, and
// albedo) onto an existing profile, combining extinctions additively and
// averaging the albedos weighted by scattering contribution.
func MixedProfile(base []Layer, tauTotal, h float64, albedo float64) ([]Layer, error) {
	if len(base) == 0 {
		return nil, fmt.Errorf("sosrt: MixedProfile needs a base profile")
	}
	if tauTotal < 0 || h <= 0 {
		return nil, fmt.Errorf("sosrt: invalid overlay parameters (tau=%g h=%g)", tauTotal, h)
	}
	zTop := base[0].Top
	norm := 1 - math.Exp(-zTop/h)
	out := make([]Layer, len(base))
	for k, l := range base {
		dz := l.Top - l.Bottom
		frac := (math.Exp(-l.Bottom/h) - math.Exp(-l.Top/h)) / norm
		addExt := tauTotal * frac / dz
		ext := l.Extinction + addExt
		scat := l.Extinction*l.Albedo + addExt*albedo
		out[k] = l
		out[k].Extinction = ext
		if ext > 0 {
			out[k].Albedo = scat / ext
		}
	}
	return out, nil
}

// OceanProfile builds uniform ocean layers of the given step [m] down to
// depth zMax [m], truncated early once the cumulative optical depth
// reaches tauCutoff (light below that depth cannot measurably reach the
// surface). Extinction and albedo are uniform.
func OceanProfile(extinction, albedo, zMax, step, tauCutoff float64) ([]Layer, error) {
	if extinction < 0 || zMax <= 0 || step <= 0 || tauCutoff <= 0 {
		return nil, fmt.Errorf("sosrt: invalid ocean profile parameters (c=%g zmax=%g step=%g cutoff=%g)", extinction, zMax, step, tauCutoff)
	}
	var layers []Layer
	var tau float64
	for z := 0.0; z < zMax && tau < tauCutoff; z += step {
		bottom := math.Min(z+step, zMax)
		layers = append(layers, Layer{
			Top:        z,
			Bottom:     bottom,
			Extinction: extinction,
			Albedo:     albedo,
		})
		tau += extinction * (bottom - z)
	}
	return layers, nil
}
