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
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/cdf"
	"github.com/oceanmodel/sosrt"
)

// Outputter writes an assembled radiance field to a NetCDF file. Output
// variables are govaluate expressions over the Stokes components I, Q, U,
// V, so derived quantities (degree of polarization, radiance ratios) can
// be requested without code changes.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// DefaultOutputVariables are the variables written when the user requests
// none explicitly.
var DefaultOutputVariables = map[string]string{
	"I":    "I",
	"Q":    "Q",
	"U":    "U",
	"V":    "V",
	"DoLP": "sqrt(Q*Q + U*U) / I",
}

// NewOutputter creates an Outputter writing the given expression-valued
// variables to fileName. Additional expression functions may be supplied;
// sqrt, abs, and atan2 are predefined.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	if fileName == "" {
		return nil, fmt.Errorf("sosrtutil: no output file specified")
	}
	if len(outputVariables) == 0 {
		outputVariables = DefaultOutputVariables
	}
	defaultFuncs := map[string]govaluate.ExpressionFunction{
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("sosrtutil: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return math.Sqrt(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("sosrtutil: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
		"atan2": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("sosrtutil: got %d arguments for function 'atan2', but needs 2", len(arg))
			}
			return math.Atan2(arg[0].(float64), arg[1].(float64)), nil
		},
	}
	for k, v := range outputFunctions {
		defaultFuncs[k] = v
	}
	// Validate the expressions up front so a typo fails before a long
	// solve rather than after it.
	for name, expr := range outputVariables {
		switch name {
		case "azimuth", "mu", "tau", "Ed", "Eu":
			return nil, fmt.Errorf("sosrtutil: output variable name %q is reserved for a coordinate or irradiance variable", name)
		}
		if _, err := govaluate.NewEvaluableExpressionWithFunctions(expr, defaultFuncs); err != nil {
			return nil, fmt.Errorf("sosrtutil: output variable %q: %v", name, err)
		}
	}
	return &Outputter{
		fileName:        fileName,
		outputVariables: outputVariables,
		outputFunctions: defaultFuncs,
	}, nil
}

// Write evaluates the output variables over an assembled radiance field
// and writes them, together with the direction-cosine and azimuth
// coordinate variables and the level-by-level irradiance profile of the
// medium (tau, Ed, Eu), to the NetCDF file. field must have shape
// [len(azimuths)][grid.N()][4] as returned by Result.Assemble.
func (o *Outputter) Write(r *sosrt.Result, medium sosrt.Medium, level int, azimuths []float64) error {
	field, err := r.Assemble(medium, level, azimuths)
	if err != nil {
		return err
	}
	grid := r.Grid(medium)
	na, nd := len(azimuths), grid.N()
	nl := r.BottomLevel(medium) + 1

	h := cdf.NewHeader([]string{"azimuth", "direction", "level"}, []int{na, nd, nl})
	h.AddVariable("azimuth", []string{"azimuth"}, []float64{0})
	h.AddAttribute("azimuth", "description", "relative azimuth from the solar plane")
	h.AddAttribute("azimuth", "units", "degrees")
	h.AddVariable("mu", []string{"direction"}, []float64{0})
	h.AddAttribute("mu", "description", "direction cosine; negative is downward")
	h.AddAttribute("mu", "units", "dimensionless")
	h.AddVariable("tau", []string{"level"}, []float64{0})
	h.AddAttribute("tau", "description", "cumulative optical depth from the top of the medium")
	h.AddAttribute("tau", "units", "dimensionless")
	h.AddVariable("Ed", []string{"level"}, []float64{0})
	h.AddAttribute("Ed", "description", "downwelling plane irradiance of the diffuse field")
	h.AddAttribute("Ed", "units", "normalized irradiance")
	h.AddVariable("Eu", []string{"level"}, []float64{0})
	h.AddAttribute("Eu", "description", "upwelling plane irradiance of the diffuse field")
	h.AddAttribute("Eu", "units", "normalized irradiance")

	names := make([]string, 0, len(o.outputVariables))
	for name := range o.outputVariables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.AddVariable(name, []string{"azimuth", "direction"}, []float64{0})
		h.AddAttribute(name, "description", o.outputVariables[name])
		h.AddAttribute(name, "units", "normalized radiance")
	}
	h.AddAttribute("", "orders", fmt.Sprintf("%d", r.Orders))
	h.AddAttribute("", "converged", fmt.Sprintf("%v", r.Converged))
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("sosrtutil: creating output file header: %v", err)
	}

	ff, err := os.Create(o.fileName)
	if err != nil {
		return fmt.Errorf("sosrtutil: creating output file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("sosrtutil: creating output file: %v", err)
	}

	if err := writeVar(f, "azimuth", []int{0}, []int{na}, azimuths); err != nil {
		return err
	}
	if err := writeVar(f, "mu", []int{0}, []int{nd}, grid.Mu); err != nil {
		return err
	}

	taus := make([]float64, nl)
	eds := make([]float64, nl)
	eus := make([]float64, nl)
	for k := 0; k < nl; k++ {
		taus[k] = r.Tau(medium, k)
		if eds[k], eus[k], err = r.Irradiance(medium, k); err != nil {
			return err
		}
	}
	for _, v := range []struct {
		name string
		data []float64
	}{{"tau", taus}, {"Ed", eds}, {"Eu", eus}} {
		if err := writeVar(f, v.name, []int{0}, []int{nl}, v.data); err != nil {
			return err
		}
	}

	for _, name := range names {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(o.outputVariables[name], o.outputFunctions)
		if err != nil {
			return fmt.Errorf("sosrtutil: output variable %q: %v", name, err)
		}
		data := make([]float64, na*nd)
		params := make(map[string]interface{}, 4)
		for a := 0; a < na; a++ {
			for d := 0; d < nd; d++ {
				params["I"] = field.Get(a, d, 0)
				params["Q"] = field.Get(a, d, 1)
				params["U"] = field.Get(a, d, 2)
				params["V"] = field.Get(a, d, 3)
				v, err := expr.Evaluate(params)
				if err != nil {
					return fmt.Errorf("sosrtutil: evaluating output variable %q: %v", name, err)
				}
				vf, ok := v.(float64)
				if !ok {
					return fmt.Errorf("sosrtutil: output variable %q evaluated to %T, want float64", name, v)
				}
				if math.IsNaN(vf) {
					vf = 0
				}
				data[a*nd+d] = vf
			}
		}
		if err := writeVar(f, name, []int{0, 0}, []int{na, nd}, data); err != nil {
			return err
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		return fmt.Errorf("sosrtutil: finalizing output file: %v", err)
	}
	return nil
}

func writeVar(f *cdf.File, name string, begin, end []int, data []float64) error {
	w := f.Writer(name, begin, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("sosrtutil: writing output variable %q: %v", name, err)
	}
	return nil
}
