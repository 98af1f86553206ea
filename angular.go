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
	"sort"
)

// Tolerance within which two direction cosines are considered the same
// grid node.
const muMergeTolerance = 1e-12

// AngularGrid is the discretized zenith-angle grid used for all angular
// quadrature in a solve. Direction cosines are stored in ascending order;
// negative cosines travel downward (toward increasing optical depth) and
// positive cosines travel upward. Gauss-Legendre nodes carry their
// quadrature weights; user-requested output angles are merged in with zero
// weight so that quadrature sums skip them automatically.
type AngularGrid struct {
	// Mu holds the direction cosines in ascending order. No cosine is
	// exactly zero (horizontal propagation is excluded).
	Mu []float64

	// Weight holds the Gauss-Legendre weight of each node. Weights over
	// each hemisphere sum to 1; user-supplied angles have weight 0.
	Weight []float64

	// IsQuad reports whether the node at the same index is a true
	// quadrature node.
	IsQuad []bool

	// NQuad is the number of quadrature nodes per hemisphere.
	NQuad int

	down, up []int // hemisphere index partitions, ascending in Mu
}

// NewAngularGrid builds a zenith-angle grid with nQuad Gauss-Legendre
// nodes per hemisphere, merged with the given extra output direction
// cosines. userMu entries may be of either sign; an entry within
// muMergeTolerance of an existing node is identified with that node rather
// than inserted. A configuration error is returned if nQuad is too small
// or the Gauss-Legendre iteration fails to converge.
func NewAngularGrid(nQuad int, userMu []float64) (*AngularGrid, error) {
	if nQuad < 2 {
		return nil, fmt.Errorf("sosrt: angular grid needs at least 2 quadrature nodes per hemisphere; got %d", nQuad)
	}
	x, w, err := gaussLegendre(nQuad)
	if err != nil {
		return nil, err
	}

	type node struct {
		mu, weight float64
		quad       bool
	}
	nodes := make([]node, 0, 2*nQuad+len(userMu))
	// Map the [-1,1] rule onto (0,1) for each hemisphere. The mapped
	// weights sum to 1 per hemisphere.
	for i := 0; i < nQuad; i++ {
		mu := (x[i] + 1) / 2
		nodes = append(nodes,
			node{mu: mu, weight: w[i] / 2, quad: true},
			node{mu: -mu, weight: w[i] / 2, quad: true})
	}
	for _, mu := range userMu {
		if mu == 0 || mu < -1 || mu > 1 {
			return nil, fmt.Errorf("sosrt: output direction cosine %g is outside [-1,1] or horizontal", mu)
		}
		dup := false
		for _, n := range nodes {
			if math.Abs(n.mu-mu) < muMergeTolerance {
				dup = true
				break
			}
		}
		if !dup {
			nodes = append(nodes, node{mu: mu})
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].mu < nodes[j].mu })

	g := &AngularGrid{
		Mu:     make([]float64, len(nodes)),
		Weight: make([]float64, len(nodes)),
		IsQuad: make([]bool, len(nodes)),
		NQuad:  nQuad,
	}
	for i, n := range nodes {
		g.Mu[i] = n.mu
		g.Weight[i] = n.weight
		g.IsQuad[i] = n.quad
		if n.mu < 0 {
			g.down = append(g.down, i)
		} else {
			g.up = append(g.up, i)
		}
	}
	return g, nil
}

// N returns the total number of grid directions, quadrature and
// user-supplied combined.
func (g *AngularGrid) N() int { return len(g.Mu) }

// Down returns the indices of the downward-traveling directions (μ < 0)
// in ascending μ order.
func (g *AngularGrid) Down() []int { return g.down }

// Up returns the indices of the upward-traveling directions (μ > 0) in
// ascending μ order.
func (g *AngularGrid) Up() []int { return g.up }

// Find returns the index of the grid direction matching mu to within
// muMergeTolerance, or -1 if mu is not on the grid.
func (g *AngularGrid) Find(mu float64) int {
	for i, m := range g.Mu {
		if math.Abs(m-mu) < muMergeTolerance {
			return i
		}
	}
	return -1
}

// Nearest returns the index of the grid direction in the same hemisphere
// as mu with the closest direction cosine.
func (g *AngularGrid) Nearest(mu float64) int {
	return g.nearest(mu, false)
}

// NearestQuad returns the index of the quadrature node in the same
// hemisphere as mu with the closest direction cosine, skipping merged
// zero-weight output angles. Energy deposited onto the grid (the
// refracted solar beam, boundary injections) must land on a quadrature
// node or it vanishes from every quadrature sum.
func (g *AngularGrid) NearestQuad(mu float64) int {
	return g.nearest(mu, true)
}

func (g *AngularGrid) nearest(mu float64, quadOnly bool) int {
	best, bestDist := -1, math.Inf(1)
	for i, m := range g.Mu {
		if (m < 0) != (mu < 0) {
			continue
		}
		if quadOnly && !g.IsQuad[i] {
			continue
		}
		if d := math.Abs(m - mu); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Gauss-Legendre node search parameters. Newton's iteration on the
// Legendre polynomial converges in a handful of steps for well-behaved
// orders; hitting the cap indicates a numerically pathological request
// and is reported as a setup error rather than returning inaccurate nodes.
const (
	newtonMaxIter   = 100
	newtonTolerance = 1e-15
)

// gaussLegendre computes the n-point Gauss-Legendre nodes and weights on
// [-1,1] using the three-term Legendre recurrence and Newton's iteration.
func gaussLegendre(n int) (x, w []float64, err error) {
	x = make([]float64, n)
	w = make([]float64, n)
	for i := 0; i < (n+1)/2; i++ {
		// Tricomi's initial guess for the i-th root.
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var pp float64 // derivative of P_n at z
		converged := false
		for iter := 0; iter < newtonMaxIter; iter++ {
			p0, p1 := 1.0, z
			for l := 2; l <= n; l++ {
				p0, p1 = p1, (float64(2*l-1)*z*p1-float64(l-1)*p0)/float64(l)
			}
			// P'_n(z) from P_n and P_{n-1}.
			pp = float64(n) * (z*p1 - p0) / (z*z - 1)
			dz := p1 / pp
			z -= dz
			if math.Abs(dz) <= newtonTolerance {
				converged = true
				break
			}
		}
		if !converged {
			return nil, nil, fmt.Errorf("sosrt: Gauss-Legendre iteration for %d nodes did not converge within %d steps", n, newtonMaxIter)
		}
		x[i] = -z
		x[n-1-i] = z
		w[i] = 2 / ((1 - z*z) * pp * pp)
		w[n-1-i] = w[i]
	}
	return x, w, nil
}

// DegreesToMu converts zenith angles in degrees to direction cosines. By
// convention angles below 90° are upward-looking directions (μ > 0) and
// angles above 90° are downward (μ < 0); the cosine convention is simply
// cos of the angle measured from the upward vertical.
func DegreesToMu(deg []float64) []float64 {
	mu := make([]float64, len(deg))
	for i, d := range deg {
		mu[i] = math.Cos(d * math.Pi / 180)
	}
	return mu
}
