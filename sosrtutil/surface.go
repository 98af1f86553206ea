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
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/oceanmodel/sosrt"
	"gonum.org/v1/gonum/mat"
)

func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

// surfaceFile is the TOML layout of a per-mode surface-matrix file, as
// produced by an external rough-surface builder. Each matrix is stored as
// a list of rows.
type surfaceFile struct {
	Modes []surfaceModeSpec `toml:"modes"`
}

type surfaceModeSpec struct {
	M      int         `toml:"m"`
	Raa    [][]float64 `toml:"raa"`
	Rww    [][]float64 `toml:"rww"`
	Taw    [][]float64 `toml:"taw"`
	Twa    [][]float64 `toml:"twa"`
	RaaSun []float64   `toml:"raasun"`
	TawSun []float64   `toml:"tawsun"`
}

// LoadSurface reads a per-mode surface-matrix TOML file. Modes must be
// listed in increasing order starting at 0; dimensional consistency with
// the angular grids is checked later by the solver.
func LoadSurface(path string) (*sosrt.Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sosrtutil: opening surface file: %v", err)
	}
	defer f.Close()
	var sf surfaceFile
	if _, err := toml.DecodeReader(f, &sf); err != nil {
		return nil, fmt.Errorf("sosrtutil: decoding surface file %s: %v", path, err)
	}
	if len(sf.Modes) == 0 {
		return nil, fmt.Errorf("sosrtutil: surface file %s contains no modes", path)
	}
	s := &sosrt.Surface{Modes: make([]*sosrt.SurfaceModeMatrix, len(sf.Modes))}
	for i, ms := range sf.Modes {
		if ms.M != i {
			return nil, fmt.Errorf("sosrtutil: surface file %s: mode %d found at position %d; modes must be consecutive from 0", path, ms.M, i)
		}
		sm := &sosrt.SurfaceModeMatrix{M: ms.M, RaaSun: ms.RaaSun, TawSun: ms.TawSun}
		if sm.Raa, err = denseFromRows(ms.Raa); err != nil {
			return nil, fmt.Errorf("sosrtutil: surface mode %d Raa: %v", ms.M, err)
		}
		if sm.Rww, err = denseFromRows(ms.Rww); err != nil {
			return nil, fmt.Errorf("sosrtutil: surface mode %d Rww: %v", ms.M, err)
		}
		if sm.Taw, err = denseFromRows(ms.Taw); err != nil {
			return nil, fmt.Errorf("sosrtutil: surface mode %d Taw: %v", ms.M, err)
		}
		if sm.Twa, err = denseFromRows(ms.Twa); err != nil {
			return nil, fmt.Errorf("sosrtutil: surface mode %d Twa: %v", ms.M, err)
		}
		s.Modes[i] = sm
	}
	return s, nil
}

// denseFromRows converts a row-list into a dense matrix; an empty list
// yields nil (no coupling of that kind).
func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	nc := len(rows[0])
	data := make([]float64, 0, len(rows)*nc)
	for i, r := range rows {
		if len(r) != nc {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(r), nc)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), nc, data), nil
}
