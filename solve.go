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
	"sync"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
)

// SolveState tracks the successive-orders iteration through its life
// cycle.
type SolveState int

const (
	// Uninitialized means the solver has been constructed but no
	// radiance has been computed.
	Uninitialized SolveState = iota
	// DirectBeamComputed means the order-0 (attenuated collimated beam)
	// field has been computed and accumulated.
	DirectBeamComputed
	// Iterating means scattering orders are being accumulated.
	Iterating
	// Converged means the series met the convergence tolerance.
	Converged
	// MaxOrderReached means the order ceiling was hit first; the
	// accumulated field is usable but flagged as unconverged.
	MaxOrderReached
)

func (s SolveState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case DirectBeamComputed:
		return "direct-beam"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case MaxOrderReached:
		return "max-order-reached"
	}
	return fmt.Sprintf("SolveState(%d)", int(s))
}

// ConvergenceState is the per-order diagnostic record passed to the
// solver's LogFunc: the order just completed, the L1 norm of that order's
// mode-0 field, the norm of the mode-0 running total, and the relative
// change used for the convergence decision.
type ConvergenceState struct {
	Order     int
	OrderNorm float64
	TotalNorm float64
	RelChange float64
	Converged bool
}

// Solver runs the successive-orders-of-scattering iteration for one
// wavelength and geometry. All inputs are read-only once the solver is
// constructed; separate solver instances share nothing and may run in
// parallel.
type Solver struct {
	Config   SolverConfig
	Vertical *VerticalGrid

	// LogFunc, if non-nil, receives a diagnostic record after each
	// scattering order. It is called from the coordinating goroutine
	// only. This is an observational side channel; it must not mutate
	// solver state.
	LogFunc func(ConvergenceState)

	air, water *AngularGrid
	atmExp     *FourierExpansion
	ocnExp     *FourierExpansion
	surface    *Surface
	beamAtm    []float64 // collimated beam profile at atmospheric levels
	nModes     int
	state      SolveState
}

// modeWork is the per-azimuthal-mode iteration state. Each mode is owned
// by exactly one worker goroutine during an order; workers join before
// the convergence check.
type modeWork struct {
	m            int
	atmOp, ocnOp *ModeOperator
	surf         *SurfaceModeMatrix
	prev         *orderField
	total        *orderField
	carry        []float64 // next order's below-surface boundary injection
	norm         float64   // norm of the latest order
	prevNorm     float64   // norm of the order before it
	totalNorm    float64
}

// ratio returns the mode's latest order-to-order decay ratio, or 0 when
// it is not yet defined.
func (w *modeWork) ratio() float64 {
	if w.prevNorm == 0 {
		return 0
	}
	return w.norm / w.prevNorm
}

// NewSolver validates all inputs and prepares the angular grids, Fourier
// mode operators, and direct-beam profile. Any inconsistency in the
// configuration or input data is reported here, before iteration begins;
// a returned error is fatal and the solver is unusable.
func NewSolver(cfg SolverConfig, vertical *VerticalGrid, optics *Optics, surface *Surface) (*Solver, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if vertical == nil {
		return nil, fmt.Errorf("sosrt: nil vertical grid")
	}
	if err := optics.check(vertical); err != nil {
		return nil, err
	}

	s := &Solver{Config: cfg, Vertical: vertical, surface: surface, state: Uninitialized}
	userMu := DegreesToMu(cfg.UserAngles)
	var err error
	if s.air, err = NewAngularGrid(cfg.NQuad, userMu); err != nil {
		return nil, err
	}
	mu0 := cfg.mu0()
	if s.atmExp, err = ExpandPhase(optics.Atmosphere, s.air, mu0, cfg.FourierTolerance, cfg.maxModes()); err != nil {
		return nil, err
	}
	s.nModes = s.atmExp.NModes()

	if len(vertical.Ocean) > 0 {
		if s.water, err = NewAngularGrid(cfg.NQuad, userMu); err != nil {
			return nil, err
		}
		if s.ocnExp, err = ExpandPhase(optics.Ocean, s.water, mu0, cfg.FourierTolerance, cfg.maxModes()); err != nil {
			return nil, err
		}
		if s.ocnExp.NModes() > s.nModes {
			s.nModes = s.ocnExp.NModes()
		}
	}

	if err := surface.check(s.air, s.water, s.nModes); err != nil {
		return nil, err
	}

	s.beamAtm = make([]float64, vertical.NLevels(Atmosphere))
	for k := range s.beamAtm {
		s.beamAtm[k] = attenuation(vertical.Tau(Atmosphere, k), mu0, cfg.AttenuationCutoff)
	}
	return s, nil
}

// AirGrid returns the atmospheric-side angular grid.
func (s *Solver) AirGrid() *AngularGrid { return s.air }

// WaterGrid returns the oceanic-side angular grid, or nil when no ocean
// is modeled.
func (s *Solver) WaterGrid() *AngularGrid { return s.water }

// NModes returns the number of retained azimuthal Fourier modes.
func (s *Solver) NModes() int { return s.nModes }

// State returns the solver's current position in the iteration life
// cycle.
func (s *Solver) State() SolveState { return s.state }

func (s *Solver) hasOcean() bool { return s.water != nil }

// ModeField is the accumulated Stokes radiance of one azimuthal mode:
// Atm has shape [levels][directions][4] over the atmospheric grid, Ocn
// likewise over the oceanic grid (nil without an ocean). Fields are not
// mutated after the solve completes.
type ModeField struct {
	M   int
	Atm *sparse.DenseArray
	Ocn *sparse.DenseArray
}

// Result is the outcome of a solve: the accumulated per-mode radiance
// plus convergence metadata. A Result with Converged == false still
// contains the best available partial accumulation; callers decide
// whether to accept it or re-solve with a relaxed tolerance or a larger
// order ceiling.
type Result struct {
	Modes []*ModeField

	// Orders is the number of scattering orders accumulated (the direct
	// beam is order 0 and is always present).
	Orders int

	// Converged reports whether the series met the convergence
	// tolerance before the order ceiling.
	Converged bool

	// Accelerated reports whether a geometric-series tail estimate was
	// folded into the total.
	Accelerated bool

	// RelChange holds the per-order relative-change history, indexed by
	// order-1.
	RelChange []float64

	// FourierTruncated reports whether the azimuthal series was cut by
	// the relative tolerance rather than the mode ceiling.
	FourierTruncated bool

	air, water *AngularGrid
	vertical   *VerticalGrid
}

// Solve runs the successive-orders iteration to convergence or to the
// order ceiling. It may be called once per solver.
func (s *Solver) Solve() (*Result, error) {
	if s.state != Uninitialized {
		return nil, fmt.Errorf("sosrt: Solve called twice on the same solver (state %v)", s.state)
	}

	works := make([]*modeWork, s.nModes)
	for m := range works {
		surf, err := s.surface.Mode(m)
		if err != nil {
			return nil, err
		}
		w := &modeWork{m: m, surf: surf}
		if op := s.atmExp.Mode(m); op != nil {
			w.atmOp = op
		}
		if s.ocnExp != nil {
			w.ocnOp = s.ocnExp.Mode(m)
		}
		works[m] = w
	}

	// Order 0: the attenuated direct beam and its interface-coupled
	// distributions seed both the running total and the previous-order
	// buffer.
	for _, w := range works {
		w.prev = s.directBeam(w)
		w.total = &orderField{atm: w.prev.atm.clone()}
		if w.prev.ocn != nil {
			w.total.ocn = w.prev.ocn.clone()
		}
		w.totalNorm = w.total.norm()
	}
	s.state = DirectBeamComputed

	var relHistory []float64
	var norm0History []float64
	converged := false
	accelerated := false
	orders := 0

	s.state = Iterating
	for n := 1; n <= s.Config.MaxOrders; n++ {
		var wg sync.WaitGroup
		wg.Add(len(works))
		for _, w := range works {
			go func(w *modeWork) {
				defer wg.Done()
				cur := s.step(w, n)
				w.total.atm.add(cur.atm)
				w.total.ocn.add(cur.ocn)
				w.prev = cur
				w.prevNorm = w.norm
				w.norm = cur.norm()
				w.totalNorm = w.total.norm()
			}(w)
		}
		wg.Wait()
		orders = n

		rel := relChange(works[0].norm, works[0].totalNorm)
		relHistory = append(relHistory, rel)
		norm0History = append(norm0History, works[0].norm)

		done := rel < s.Config.ConvergenceTolerance
		if done && s.Config.RequireAllModes {
			for _, w := range works[1:] {
				if relChange(w.norm, w.totalNorm) >= s.Config.ConvergenceTolerance {
					done = false
					break
				}
			}
		}

		if s.LogFunc != nil {
			s.LogFunc(ConvergenceState{
				Order:     n,
				OrderNorm: works[0].norm,
				TotalNorm: works[0].totalNorm,
				RelChange: rel,
				Converged: done,
			})
		}

		if done {
			converged = true
			break
		}

		if s.Config.Acceleration && s.applyAcceleration(works, norm0History) {
			converged = true
			accelerated = true
			break
		}
	}

	if converged {
		s.state = Converged
	} else {
		s.state = MaxOrderReached
	}

	r := &Result{
		Orders:           orders,
		Converged:        converged,
		Accelerated:      accelerated,
		RelChange:        relHistory,
		FourierTruncated: s.atmExp.Truncated || (s.ocnExp != nil && s.ocnExp.Truncated),
		air:              s.air,
		water:            s.water,
		vertical:         s.Vertical,
	}
	for _, w := range works {
		mf := &ModeField{M: w.m, Atm: w.total.atm.data}
		if w.total.ocn != nil {
			mf.Ocn = w.total.ocn.data
		}
		r.Modes = append(r.Modes, mf)
	}
	return r, nil
}

// relChange is the convergence metric: the latest order's norm relative
// to the running total. A zero total with a zero latest order counts as
// fully converged (nothing is being added to nothing).
func relChange(orderNorm, totalNorm float64) float64 {
	if totalNorm == 0 {
		if orderNorm == 0 {
			return 0
		}
		return 1
	}
	return orderNorm / totalNorm
}

// applyAcceleration estimates the geometric tail of the series when the
// recent order-to-order decay ratios are uniformly below one and stable,
// adds the tail to each mode's total, and reports whether it did so. The
// estimate is never applied while the ratio is at or above one or still
// oscillating, since the closed-form tail would then be meaningless.
func (s *Solver) applyAcceleration(works []*modeWork, normHistory []float64) bool {
	win := s.Config.AccelerationWindow
	if len(normHistory) < win+1 {
		return false
	}
	ratios := make([]float64, win)
	for i := 0; i < win; i++ {
		prev := normHistory[len(normHistory)-win-1+i]
		next := normHistory[len(normHistory)-win+i]
		if prev == 0 {
			return false
		}
		ratios[i] = next / prev
		if ratios[i] >= 1 {
			return false
		}
	}
	if stats.StatsSampleStandardDeviation(ratios) > s.Config.AccelerationStability {
		return false
	}
	for _, w := range works {
		r := w.ratio()
		if r <= 0 || r >= 1 {
			continue
		}
		tail := r / (1 - r)
		w.total.atm.addScaled(w.prev.atm, tail)
		w.total.ocn.addScaled(w.prev.ocn, tail)
		w.totalNorm = w.total.norm()
	}
	return true
}
