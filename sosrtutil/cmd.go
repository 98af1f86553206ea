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
	"time"

	"github.com/lnashier/viper"
	"github.com/oceanmodel/sosrt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var log = logrus.StandardLogger()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Scene",
			usage: `
              Scene is the path to the TOML scene file describing the
              atmosphere, ocean, and interface to simulate.`,
			shorthand:  "s",
			defaultVal: "scene.toml",
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the NetCDF file the assembled
              radiance field is written to.`,
			shorthand:  "o",
			defaultVal: "radiance.nc",
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies the variables to write, as a map
              of names to expressions over the Stokes components I, Q, U
              and V. An empty map writes I, Q, U, V and DoLP.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "OutputMedium",
			usage: `
              OutputMedium selects the medium to assemble output in:
              "atmosphere" or "ocean".`,
			defaultVal: "atmosphere",
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "OutputLevel",
			usage: `
              OutputLevel selects the reporting plane: "toa", "surface"
              (0+ above or 0- below the interface depending on the
              medium), "bottom", or a numeric level index.`,
			defaultVal: "toa",
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "OutputAzimuths",
			usage: `
              OutputAzimuths lists the relative azimuth angles (degrees
              from the solar plane) at which to reconstruct the radiance
              field.`,
			defaultVal: []float64{0, 90, 180},
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "NQuad",
			usage: `
              NQuad is the number of Gauss-Legendre quadrature nodes per
              hemisphere.`,
			defaultVal: 24,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "SolarZenith",
			usage: `
              SolarZenith is the solar zenith angle in degrees.`,
			defaultVal: 30.0,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "UserAngles",
			usage: `
              UserAngles lists extra output zenith angles in degrees to
              merge into the angular grid.`,
			defaultVal: []float64{},
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "MaxOrders",
			usage: `
              MaxOrders is the scattering-order ceiling.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "ConvergenceTolerance",
			usage: `
              ConvergenceTolerance is the relative-norm threshold below
              which the successive-orders series is considered converged.`,
			defaultVal: 1e-3,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "FourierTolerance",
			usage: `
              FourierTolerance controls azimuthal mode truncation: the
              mode series stops at the first mode whose operator norm
              falls below this fraction of the mode-0 norm.`,
			defaultVal: 2e-4,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "MaxFourierModes",
			usage: `
              MaxFourierModes caps the number of azimuthal modes; zero
              means twice the quadrature count.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "RequireAllModes",
			usage: `
              RequireAllModes makes convergence require every azimuthal
              mode to pass the tolerance, not just mode 0.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
		{
			name: "Acceleration",
			usage: `
              Acceleration enables geometric-series tail estimation when
              the order-to-order decay ratio is stable and below one.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{solveCmd.PersistentFlags()},
		},
	}
	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOSRT")

	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case []float64:
				strs := make([]string, len(v))
				for i, f := range v {
					strs[i] = fmt.Sprint(f)
				}
				set.StringSlice(option.name, strs, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			case map[string]string:
				b, err := marshalMap(v)
				if err != nil {
					panic(err)
				}
				set.String(option.name, b, option.usage)
			default:
				panic(fmt.Sprintf("sosrtutil: invalid default type %T for option %s", v, option.name))
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("sosrt: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "sosrt",
	Short: "A polarized atmosphere-ocean radiative transfer model.",
	Long: `SOSRT computes the polarized radiance field (Stokes vector I, Q, U, V)
in a coupled plane-parallel atmosphere-ocean system using the successive
orders of scattering method. Use the subcommands specified below to access
the model functionality.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'SOSRT_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of SOSRT.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("SOSRT v%s\n", sosrt.Version)
	},
	DisableAutoGenTag: true,
}

// solveCmd runs a single-wavelength solve and writes the assembled
// radiance field.
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a successive-orders solve.",
	Long: `solve reads the scene file, runs the successive-orders-of-scattering
iteration to convergence (or to the order ceiling), and writes the
reconstructed radiance field at the requested level to a NetCDF file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Solve(Cfg)
	},
	DisableAutoGenTag: true,
}

func init() {
	Root.AddCommand(versionCmd, solveCmd)
}

// Solve runs the solve described by the configuration.
func Solve(cfg *viper.Viper) error {
	scene, err := LoadScene(cfg.GetString("Scene"))
	if err != nil {
		return err
	}
	solverCfg, err := SolverConfig(cfg)
	if err != nil {
		return err
	}
	solverCfg.BottomAlbedo = scene.Surface.BottomAlbedo

	vertical, optics, surface, err := scene.Build(solverCfg)
	if err != nil {
		return err
	}
	solver, err := sosrt.NewSolver(solverCfg, vertical, optics, surface)
	if err != nil {
		return err
	}
	solver.LogFunc = func(c sosrt.ConvergenceState) {
		log.WithFields(logrus.Fields{
			"order":     c.Order,
			"relchange": c.RelChange,
			"norm":      c.OrderNorm,
		}).Debug("scattering order finished")
	}

	start := time.Now()
	log.WithFields(logrus.Fields{
		"scene":  cfg.GetString("Scene"),
		"nquad":  solverCfg.NQuad,
		"nmodes": solver.NModes(),
	}).Info("starting successive-orders iteration")
	result, err := solver.Solve()
	if err != nil {
		return err
	}
	if !result.Converged {
		log.WithFields(logrus.Fields{
			"orders":    result.Orders,
			"relchange": result.RelChange[len(result.RelChange)-1],
		}).Warn("series did not converge before the order ceiling; result is a flagged partial accumulation")
	} else {
		log.WithFields(logrus.Fields{
			"orders":  result.Orders,
			"elapsed": time.Since(start),
		}).Info("converged")
	}

	medium, level, err := outputLocation(cfg, result)
	if err != nil {
		return err
	}
	outVars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return err
	}
	o, err := NewOutputter(cfg.GetString("OutputFile"), outVars, nil)
	if err != nil {
		return err
	}
	azimuths, err := toFloat64SliceE(cfg.Get("OutputAzimuths"))
	if err != nil {
		return fmt.Errorf("sosrtutil: parsing OutputAzimuths: %v", err)
	}
	return o.Write(result, medium, level, azimuths)
}

// outputLocation resolves the configured output medium and level against
// a solve result.
func outputLocation(cfg *viper.Viper, r *sosrt.Result) (sosrt.Medium, int, error) {
	var medium sosrt.Medium
	switch m := cfg.GetString("OutputMedium"); m {
	case "atmosphere", "":
		medium = sosrt.Atmosphere
	case "ocean":
		medium = sosrt.Ocean
	default:
		return 0, 0, fmt.Errorf("sosrtutil: unknown output medium %q", m)
	}
	switch l := cfg.GetString("OutputLevel"); l {
	case "toa":
		if medium != sosrt.Atmosphere {
			return 0, 0, fmt.Errorf("sosrtutil: output level \"toa\" requires the atmosphere medium")
		}
		return medium, sosrt.LevelTOA, nil
	case "surface", "":
		return medium, r.SurfaceLevel(medium), nil
	case "bottom":
		return medium, r.BottomLevel(medium), nil
	default:
		i, err := cast.ToIntE(l)
		if err != nil {
			return 0, 0, fmt.Errorf("sosrtutil: unknown output level %q", l)
		}
		return medium, i, nil
	}
}
