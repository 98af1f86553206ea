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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/oceanmodel/sosrt"
	"github.com/spf13/cast"
)

// SolverConfig unmarshals a viper configuration into the solver's
// numerical settings. Settings absent from the configuration keep their
// defaults.
func SolverConfig(cfg *viper.Viper) (sosrt.SolverConfig, error) {
	c := sosrt.DefaultConfig()
	if v := cfg.GetInt("NQuad"); v != 0 {
		c.NQuad = v
	}
	if v := cfg.Get("SolarZenith"); v != nil {
		c.SolarZenith = cast.ToFloat64(v)
	}
	userAngles, err := toFloat64SliceE(cfg.Get("UserAngles"))
	if err != nil {
		return c, fmt.Errorf("sosrtutil: parsing UserAngles: %v", err)
	}
	c.UserAngles = userAngles
	if v := cfg.GetInt("MaxOrders"); v != 0 {
		c.MaxOrders = v
	}
	if v := cfg.GetFloat64("ConvergenceTolerance"); v != 0 {
		c.ConvergenceTolerance = v
	}
	if v := cfg.GetFloat64("FourierTolerance"); v != 0 {
		c.FourierTolerance = v
	}
	c.MaxFourierModes = cfg.GetInt("MaxFourierModes")
	c.RequireAllModes = cfg.GetBool("RequireAllModes")
	c.Acceleration = cfg.GetBool("Acceleration")
	return c, nil
}

// toFloat64SliceE converts a value that may be a native slice or a JSON
// string (when set from a command-line argument) into a []float64.
func toFloat64SliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case nil:
		return nil, nil
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case []string:
		o := make([]float64, len(v))
		for i, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var o []float64
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, fmt.Errorf("invalid type %T for float slice", s)
}

// marshalMap serializes a map default so it can be held in a string flag.
func marshalMap(m map[string]string) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return make(map[string]string), nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(i)
	case string:
		if v == "" {
			return make(map[string]string), nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, fmt.Errorf("invalid type for configuration variable %s: %#v", varName, i)
}
