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

// SolverConfig holds the numerical tuning parameters for a solve. The zero
// value is not usable; start from DefaultConfig and override fields as
// needed. All thresholds that were global constants in legacy
// successive-orders codes are explicit fields here so that two solvers with
// different settings can coexist in one process.
type SolverConfig struct {
	// NQuad is the number of Gauss-Legendre quadrature nodes per
	// hemisphere on the zenith-angle grid.
	NQuad int

	// SolarZenith is the solar zenith angle in degrees (0–90, exclusive
	// of 90).
	SolarZenith float64

	// UserAngles lists extra output zenith angles in degrees. They are
	// merged into the angular grid with zero quadrature weight; an angle
	// that coincides with a quadrature node reuses that node.
	UserAngles []float64

	// MaxOrders is the scattering-order ceiling. If the series has not
	// converged after this many orders the partial result is returned
	// with Result.Converged == false.
	MaxOrders int

	// ConvergenceTolerance is the relative-norm threshold below which
	// the series is considered converged: the iteration stops once the
	// norm of the latest order falls below this fraction of the norm of
	// the running total.
	ConvergenceTolerance float64

	// RequireAllModes requires every retained Fourier mode to satisfy
	// ConvergenceTolerance individually, in addition to mode 0.
	RequireAllModes bool

	// FourierTolerance controls azimuthal truncation: mode expansion
	// stops at the first mode whose operator norm falls below this
	// fraction of the mode-0 operator norm. The monotone decay this
	// relies on is a property of physically typical phase functions,
	// not a mathematical guarantee, which is why it is configurable.
	FourierTolerance float64

	// MaxFourierModes caps the number of azimuthal modes regardless of
	// FourierTolerance. Zero means 2*NQuad.
	MaxFourierModes int

	// Acceleration enables geometric-series tail estimation: when the
	// order-to-order decay ratio is below one and stable over
	// AccelerationWindow consecutive orders, the remaining tail is summed
	// in closed form and the iteration stops early.
	Acceleration bool

	// AccelerationWindow is the number of consecutive decay ratios that
	// must be available (and stable) before the tail estimate is applied.
	AccelerationWindow int

	// AccelerationStability is the maximum sample standard deviation of
	// the recent decay ratios for them to count as stable.
	AccelerationStability float64

	// AttenuationCutoff is the Δτ/μ beyond which exponential attenuation
	// is clamped to exactly zero instead of being computed, preventing
	// denormal and 0×Inf artifacts downstream.
	AttenuationCutoff float64

	// BottomAlbedo is the Lambertian albedo of the ocean floor (or the
	// lower boundary of the deepest modeled layer), applied to Fourier
	// mode 0 only since a Lambertian reflector is azimuthally uniform.
	BottomAlbedo float64
}

// DefaultConfig returns the recommended solver settings.
func DefaultConfig() SolverConfig {
	return SolverConfig{
		NQuad:                 24,
		SolarZenith:           30,
		MaxOrders:             100,
		ConvergenceTolerance:  1e-3,
		FourierTolerance:      2e-4,
		Acceleration:          false,
		AccelerationWindow:    3,
		AccelerationStability: 0.05,
		AttenuationCutoff:     700,
	}
}

// check validates the configuration, returning an error describing the
// first problem found.
func (c *SolverConfig) check() error {
	if c.NQuad < 2 {
		return fmt.Errorf("sosrt: NQuad must be at least 2; got %d", c.NQuad)
	}
	if c.SolarZenith < 0 || c.SolarZenith >= 90 {
		return fmt.Errorf("sosrt: SolarZenith must be in [0,90); got %g", c.SolarZenith)
	}
	for _, a := range c.UserAngles {
		if a < 0 || a > 180 || a == 90 {
			return fmt.Errorf("sosrt: user angle %g° is outside the valid zenith range (90° is horizontal and excluded)", a)
		}
	}
	if c.MaxOrders < 1 {
		return fmt.Errorf("sosrt: MaxOrders must be positive; got %d", c.MaxOrders)
	}
	if c.ConvergenceTolerance <= 0 || c.ConvergenceTolerance >= 1 {
		return fmt.Errorf("sosrt: ConvergenceTolerance must be in (0,1); got %g", c.ConvergenceTolerance)
	}
	if c.FourierTolerance <= 0 || c.FourierTolerance >= 1 {
		return fmt.Errorf("sosrt: FourierTolerance must be in (0,1); got %g", c.FourierTolerance)
	}
	if c.MaxFourierModes < 0 {
		return fmt.Errorf("sosrt: MaxFourierModes must be non-negative; got %d", c.MaxFourierModes)
	}
	if c.Acceleration {
		if c.AccelerationWindow < 2 {
			return fmt.Errorf("sosrt: AccelerationWindow must be at least 2; got %d", c.AccelerationWindow)
		}
		if c.AccelerationStability <= 0 {
			return fmt.Errorf("sosrt: AccelerationStability must be positive; got %g", c.AccelerationStability)
		}
	}
	if c.AttenuationCutoff <= 0 {
		return fmt.Errorf("sosrt: AttenuationCutoff must be positive; got %g", c.AttenuationCutoff)
	}
	if c.BottomAlbedo < 0 || c.BottomAlbedo > 1 {
		return fmt.Errorf("sosrt: BottomAlbedo must be in [0,1]; got %g", c.BottomAlbedo)
	}
	return nil
}

// mu0 returns the cosine of the solar zenith angle.
func (c *SolverConfig) mu0() float64 {
	return math.Cos(c.SolarZenith * math.Pi / 180)
}

// maxModes returns the effective azimuthal mode ceiling.
func (c *SolverConfig) maxModes() int {
	if c.MaxFourierModes > 0 {
		return c.MaxFourierModes
	}
	return 2 * c.NQuad
}
