package tracing

import (
	"github.com/sarchlab/axisim/datarecording"
	"github.com/sarchlab/axisim/sim"
)

// SignalTable is the table the SignalTracer writes value changes into.
const SignalTable = "signal_changes"

// SignalChange is one recorded value of a signal.
type SignalChange struct {
	Cycle  uint64
	Signal string
	Value  uint64
}

// SignalTracer records the value of signals every time it changes. It is a
// hook meant for a bench's cycle-sampled position, whose item is the cycle
// number.
type SignalTracer struct {
	backend datarecording.DataRecorder
	pos     *sim.HookPos
	signals []sim.Latch
	last    []uint64
	seen    bool
}

// NewSignalTracer creates a SignalTracer that reacts to hooks at pos.
func NewSignalTracer(
	dataRecorder datarecording.DataRecorder,
	pos *sim.HookPos,
	signals ...sim.Latch,
) *SignalTracer {
	dataRecorder.CreateTable(SignalTable, SignalChange{})

	return &SignalTracer{
		backend: dataRecorder,
		pos:     pos,
		signals: signals,
		last:    make([]uint64, len(signals)),
	}
}

// Func records the signals whose value differs from the previous sample. The
// first sample records every signal.
func (t *SignalTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != t.pos {
		return
	}

	cycle := ctx.Item.(uint64)

	for i, s := range t.signals {
		v := s.Sample()
		if t.seen && v == t.last[i] {
			continue
		}

		t.last[i] = v
		t.backend.InsertData(SignalTable, SignalChange{
			Cycle:  cycle,
			Signal: s.Name(),
			Value:  v,
		})
	}

	t.seen = true
}
