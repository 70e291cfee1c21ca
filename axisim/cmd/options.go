package cmd

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/sarchlab/axisim/scenario"
	"github.com/sarchlab/axisim/sim"
)

// autoRecord asks the recorder to pick a unique file name.
const autoRecord = "auto"

type options struct {
	scenario string
	seed     int64
	cycles   uint64
	ready    float64
	record   string
	monitor  bool
	port     int
	open     bool
	logLevel string

	seedSet   bool
	cyclesSet bool
}

func (o *options) bindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.scenario, "scenario", "",
		"YAML scenario file; a built-in scenario is used if empty")
	flags.Int64Var(&o.seed, "seed", 1, "seed of every random stream")
	flags.Uint64Var(&o.cycles, "cycles", 10000, "maximum number of cycles")
	flags.Float64Var(&o.ready, "ready", -1,
		"probability of the responder being ready; overrides the scenario")
	flags.StringVar(&o.record, "record", "",
		"record traces into this SQLite file, without the .sqlite3 extension")
	flags.Lookup("record").NoOptDefVal = autoRecord
	flags.BoolVar(&o.monitor, "monitor", false, "serve the web monitor")
	flags.IntVar(&o.port, "monitor-port", 0, "port of the web monitor")
	flags.BoolVar(&o.open, "open", false, "open the web monitor in a browser")
	flags.StringVar(&o.logLevel, "log-level", "info",
		"trace, debug, info, warn or error")
}

// applyEnv fills the flags the user did not give from AXISIM_* variables.
func (o *options) applyEnv(flags *pflag.FlagSet) error {
	if v, ok := os.LookupEnv("AXISIM_SEED"); ok && !flags.Changed("seed") {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "AXISIM_SEED")
		}

		o.seed = seed
		o.seedSet = true
	}

	if v, ok := os.LookupEnv("AXISIM_CYCLES"); ok && !flags.Changed("cycles") {
		cycles, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "AXISIM_CYCLES")
		}

		o.cycles = cycles
		o.cyclesSet = true
	}

	if v, ok := os.LookupEnv("AXISIM_LOG_LEVEL"); ok &&
		!flags.Changed("log-level") {
		o.logLevel = v
	}

	if flags.Changed("seed") {
		o.seedSet = true
	}

	if flags.Changed("cycles") {
		o.cyclesSet = true
	}

	if o.open {
		o.monitor = true
	}

	return nil
}

// resolve lets the scenario provide the seed and cycle count that neither
// the command line nor the environment set.
func (o *options) resolve(sc *scenario.Scenario) {
	if !o.seedSet && sc.Seed != 0 {
		o.seed = sc.Seed
	}

	if !o.cyclesSet && sc.Cycles != 0 {
		o.cycles = sc.Cycles
	}
}

// readyProbability returns the flag value if given, otherwise fallback.
func (o *options) readyProbability(fallback float64) (float64, error) {
	if o.ready < 0 {
		return fallback, nil
	}

	if o.ready > 1 {
		return 0, errors.Errorf("ready probability %g is not in [0, 1]", o.ready)
	}

	return o.ready, nil
}

func (o *options) loadScenario() (*scenario.Scenario, error) {
	if o.scenario == "" {
		return scenario.Default(), nil
	}

	return scenario.Load(o.scenario)
}

func parseLogLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return sim.LevelTrace, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}

	return level, nil
}
