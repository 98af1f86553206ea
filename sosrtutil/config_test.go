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
	"testing"

	"github.com/lnashier/viper"
)

func TestSolverConfigFromViper(t *testing.T) {
	cfg := viper.New()
	cfg.Set("NQuad", 12)
	cfg.Set("SolarZenith", 45.0)
	cfg.Set("UserAngles", "[0, 60]")
	cfg.Set("MaxOrders", 50)
	cfg.Set("ConvergenceTolerance", 1e-4)
	cfg.Set("Acceleration", true)

	c, err := SolverConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.NQuad != 12 {
		t.Errorf("NQuad = %d, want 12", c.NQuad)
	}
	if c.SolarZenith != 45 {
		t.Errorf("SolarZenith = %g, want 45", c.SolarZenith)
	}
	if len(c.UserAngles) != 2 || c.UserAngles[1] != 60 {
		t.Errorf("UserAngles = %v, want [0 60]", c.UserAngles)
	}
	if c.MaxOrders != 50 {
		t.Errorf("MaxOrders = %d, want 50", c.MaxOrders)
	}
	if c.ConvergenceTolerance != 1e-4 {
		t.Errorf("ConvergenceTolerance = %g, want 1e-4", c.ConvergenceTolerance)
	}
	if !c.Acceleration {
		t.Error("Acceleration not carried over")
	}
	// Unset settings keep their defaults.
	if c.FourierTolerance != 2e-4 {
		t.Errorf("FourierTolerance = %g, want the default 2e-4", c.FourierTolerance)
	}
	if c.AttenuationCutoff != 700 {
		t.Errorf("AttenuationCutoff = %g, want the default 700", c.AttenuationCutoff)
	}
}

func TestToFloat64Slice(t *testing.T) {
	tests := []struct {
		in   interface{}
		want []float64
	}{
		{nil, nil},
		{[]float64{1, 2.5}, []float64{1, 2.5}},
		{[]interface{}{1, 2.5}, []float64{1, 2.5}},
		{[]string{"1", "2.5"}, []float64{1, 2.5}},
		{"[1, 2.5]", []float64{1, 2.5}},
		{"", nil},
	}
	for i, test := range tests {
		got, err := toFloat64SliceE(test.in)
		if err != nil {
			t.Errorf("case %d: %v", i, err)
			continue
		}
		if len(got) != len(test.want) {
			t.Errorf("case %d: got %v, want %v", i, got, test.want)
			continue
		}
		for j := range got {
			if got[j] != test.want[j] {
				t.Errorf("case %d: got %v, want %v", i, got, test.want)
			}
		}
	}
	if _, err := toFloat64SliceE(42); err == nil {
		t.Error("expected error for a scalar")
	}
	if _, err := toFloat64SliceE("not json"); err == nil {
		t.Error("expected error for malformed json")
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	cfg.Set("vars", `{"I":"I","ratio":"Q / I"}`)
	m, err := GetStringMapString("vars", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if m["ratio"] != "Q / I" {
		t.Errorf(`m["ratio"] = %q, want "Q / I"`, m["ratio"])
	}

	cfg.Set("native", map[string]interface{}{"a": "b"})
	m, err = GetStringMapString("native", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if m["a"] != "b" {
		t.Errorf(`m["a"] = %q, want "b"`, m["a"])
	}

	if _, err := GetStringMapString("missing", cfg); err != nil {
		t.Errorf("missing key should yield an empty map, got error %v", err)
	}
}

func TestMarshalMap(t *testing.T) {
	s, err := marshalMap(map[string]string{"I": "I"})
	if err != nil {
		t.Fatal(err)
	}
	if s != `{"I":"I"}` {
		t.Errorf("got %q", s)
	}
}

func TestOutputLocationParsing(t *testing.T) {
	cfg := viper.New()
	cfg.Set("OutputMedium", "submarine")
	cfg.Set("OutputLevel", "toa")
	if _, _, err := outputLocation(cfg, nil); err == nil {
		t.Error("expected error for an unknown medium")
	}
	cfg.Set("OutputMedium", "ocean")
	if _, _, err := outputLocation(cfg, nil); err == nil {
		t.Error("expected error for toa output in the ocean")
	}
}
