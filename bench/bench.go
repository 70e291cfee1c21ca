package bench

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"

	"github.com/sarchlab/axisim/sim"
)

// HookPosCycleSampled is invoked at the start of every cycle, before any
// component ticks. The signal values seen by the hook are the stable values of
// the cycle that is ending. The hook item is the cycle number.
var HookPosCycleSampled = &sim.HookPos{Name: "CycleSampled"}

// maxSettlePasses bounds the combinational fixpoint iteration.
const maxSettlePasses = 64

// A Settler is combinational logic. Settle recomputes its outputs from the
// visible values of its inputs and returns true if any output changed.
type Settler interface {
	Settle() bool
}

// A SignalHolder owns registers the bench needs to commit.
type SignalHolder interface {
	Signals() []sim.Latch
}

// A Bench is a single-clock harness. It owns the clock, the reset line, and
// the order in which registered components see each edge:
//
//  1. hooks at HookPosCycleSampled observe the cycle that is ending;
//  2. every Ticker ticks, in registration order, reading only latched values;
//  3. every register commits;
//  4. combinational logic settles;
//  5. the cycle counter increments.
type Bench struct {
	*sim.TickingComponent

	freq   sim.Freq
	seed   int64
	logger *slog.Logger

	tickers    []sim.Ticker
	settlers   []Settler
	latches    []sim.Latch
	components []sim.Named
	registered map[any]bool

	reset       *sim.Signal[bool]
	resetCycles int

	cycle    uint64
	target   uint64
	stopCond func() bool
	settled  bool
}

// Register adds components to the bench. An item may be any combination of a
// sim.Ticker, a Settler, a SignalHolder and a sim.Latch. Registering an item
// twice, or an item that is none of these, panics.
func (b *Bench) Register(items ...any) {
	for _, item := range items {
		b.register(item)
	}
}

func (b *Bench) register(item any) {
	if b.registered[item] {
		panic(fmt.Sprintf("%v is already registered", item))
	}

	accepted := false

	if t, ok := item.(sim.Ticker); ok {
		b.tickers = append(b.tickers, t)
		accepted = true
	}

	if s, ok := item.(Settler); ok {
		b.settlers = append(b.settlers, s)
		accepted = true
	}

	if h, ok := item.(SignalHolder); ok {
		b.latches = append(b.latches, h.Signals()...)
		accepted = true
	}

	if l, ok := item.(sim.Latch); ok {
		b.latches = append(b.latches, l)
		accepted = true
	}

	if !accepted {
		panic(fmt.Sprintf("cannot register %T to a bench", item))
	}

	if n, ok := item.(sim.Named); ok {
		if _, isLatch := item.(sim.Latch); !isLatch {
			b.components = append(b.components, n)
		}
	}

	b.registered[item] = true
	b.settled = false
}

// ResetLine returns the synchronous reset signal of the bench.
func (b *Bench) ResetLine() *sim.Signal[bool] {
	return b.reset
}

// AssertReset raises the reset line for the next n cycles.
func (b *Bench) AssertReset(n int) {
	if n <= 0 {
		panic("reset must last at least one cycle")
	}

	b.reset.Drive(true)
	b.resetCycles = n

	b.logger.Info("reset asserted", "cycle", b.cycle, "cycles", n)
}

// Rand returns a random stream for the named user. The stream depends only on
// the bench seed and the name.
func (b *Bench) Rand(name string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))

	return rand.New(rand.NewSource(b.seed ^ int64(h.Sum64())))
}

// Seed returns the seed of the bench.
func (b *Bench) Seed() int64 {
	return b.seed
}

// Freq returns the clock frequency.
func (b *Bench) Freq() sim.Freq {
	return b.freq
}

// Engine returns the engine that drives the bench.
func (b *Bench) Engine() sim.Engine {
	return b.TickScheduler.Engine
}

// Logger returns the logger of the bench.
func (b *Bench) Logger() *slog.Logger {
	return b.logger
}

// Cycle returns the number of clock edges so far.
func (b *Bench) Cycle() uint64 {
	return b.cycle
}

// Now returns the simulated time of the current cycle.
func (b *Bench) Now() sim.VTimeInSec {
	return b.freq.CycleToSec(sim.VTimeInCycle(b.cycle))
}

// Components returns the registered named components.
func (b *Bench) Components() []sim.Named {
	return b.components
}

// Signals returns every register the bench commits, the reset line first.
func (b *Bench) Signals() []sim.Latch {
	return b.latches
}

// Run advances the bench by the given number of cycles.
func (b *Bench) Run(cycles uint64) error {
	_, err := b.RunUntil(nil, cycles)
	return err
}

// RunUntil advances the bench until cond holds, checked before every cycle,
// or until maxCycles cycles have passed. It reports whether cond held.
func (b *Bench) RunUntil(cond func() bool, maxCycles uint64) (bool, error) {
	if !b.settled {
		b.settle()
	}

	b.target = b.cycle + maxCycles
	b.stopCond = cond

	b.logger.Debug("run started", "cycle", b.cycle, "max_cycles", maxCycles)

	if !b.shouldStop() {
		b.TickLater()

		if err := b.Engine().Run(); err != nil {
			return false, err
		}
	}

	met := cond != nil && cond()
	b.logger.Debug("run stopped", "cycle", b.cycle, "condition_met", met)

	return met, nil
}

func (b *Bench) shouldStop() bool {
	if b.cycle >= b.target {
		return true
	}

	return b.stopCond != nil && b.stopCond()
}

// Tick advances the bench by one cycle. It returns true while more cycles
// are needed.
func (b *Bench) Tick() bool {
	if b.shouldStop() {
		return false
	}

	b.Step()

	return !b.shouldStop()
}

// Step runs exactly one clock cycle.
func (b *Bench) Step() {
	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosCycleSampled,
		Item:   b.cycle,
	})

	for _, t := range b.tickers {
		t.Tick()
	}

	b.advanceReset()

	for _, l := range b.latches {
		l.Commit()
	}

	b.settle()

	b.cycle++
}

func (b *Bench) advanceReset() {
	if b.resetCycles == 0 {
		return
	}

	b.resetCycles--
	if b.resetCycles == 0 {
		b.reset.Set(false)
		b.logger.Info("reset released", "cycle", b.cycle+1)
	}
}

func (b *Bench) settle() {
	b.settled = true

	for pass := 0; pass < maxSettlePasses; pass++ {
		changed := false

		for _, s := range b.settlers {
			if s.Settle() {
				changed = true
			}
		}

		if !changed {
			return
		}
	}

	panic(fmt.Sprintf(
		"bench %s: combinational logic does not settle at cycle %d",
		b.Name(), b.cycle))
}
