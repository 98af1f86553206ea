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

// Package sosrt implements a vector successive-orders-of-scattering (SOS)
// radiative transfer solver for a coupled, plane-parallel atmosphere-ocean
// system illuminated by a collimated solar beam.
//
// The solver propagates the four-component Stokes vector (I, Q, U, V)
// through vertically stratified atmospheric and oceanic layers joined by an
// air-water interface described by precomputed reflection and transmission
// Mueller matrices. Radiance is decomposed into azimuthal Fourier modes and
// phase matrices are expanded in associated Legendre series, so that each
// scattering order reduces to quadrature sums over a fixed zenith-angle
// grid. Orders are accumulated until the latest order is a negligible
// fraction of the running total, or until a configured order ceiling is
// reached.
//
// The package deliberately consumes its optical inputs (per-layer
// extinction and single-scattering albedo, phase-matrix Legendre
// coefficients, and per-mode surface matrices) as precomputed data. Generating those inputs
// (Mie calculations, bulk inherent optical properties, rough-surface
// statistics) is the job of upstream tools; see the sosrtutil package for
// file formats and the command-line interface.
package sosrt

// Version gives the version number of this version of SOSRT.
const Version = "0.1.0"
