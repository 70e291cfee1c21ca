package bench

import (
	"log/slog"

	"github.com/sarchlab/axisim/sim"
)

// Builder can build benches.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	seed   int64
	logger *slog.Logger
}

// MakeBuilder returns a Builder with a 100MHz clock and seed 1.
func MakeBuilder() Builder {
	return Builder{
		freq: 100 * sim.MHz,
		seed: 1,
	}
}

// WithEngine sets the engine that drives the clock. A new SerialEngine is
// created if none is given.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock frequency, used to report simulated time.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithSeed sets the seed all random streams of the bench derive from.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithLogger sets the logger of the bench.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a bench with the given name.
func (b Builder) Build(name string) *Bench {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	bench := &Bench{
		freq:       b.freq,
		seed:       b.seed,
		logger:     logger.With("bench", name),
		registered: make(map[any]bool),
	}
	bench.TickingComponent = sim.NewTickingComponent(name, engine, bench)

	bench.reset = sim.NewBit(sim.BuildName(name, "Reset"))
	bench.latches = append(bench.latches, bench.reset)

	return bench
}
