package stream

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
)

// Mode selects who drives the upstream TREADY of a Buffer.
type Mode int

// Buffer modes.
const (
	// Active buffers hold upstream TREADY high and absorb all backpressure.
	Active Mode = iota
	// Passive buffers leave upstream TREADY to another driver.
	Passive
)

// beat is one transfer with every field an interface can carry. Fields the
// upstream interface lacks take their default: all bytes valid for TSTRB and
// TKEEP, zero for routing and user bits.
type beat struct {
	data uint64
	last bool
	strb uint64
	keep uint64
	id   uint64
	dest uint64
	user uint64
}

func beatOf(i *Interface) beat {
	bt := beat{
		data: i.TData.Get(),
		last: lastOf(i),
		strb: i.ByteMask(),
		keep: i.ByteMask(),
	}

	if i.TStrb != nil {
		bt.strb = i.TStrb.Get()
	}

	if i.TKeep != nil {
		bt.keep = i.TKeep.Get()
	}

	if i.TID != nil {
		bt.id = i.TID.Get()
	}

	if i.TDest != nil {
		bt.dest = i.TDest.Get()
	}

	if i.TUser != nil {
		bt.user = i.TUser.Get()
	}

	return bt
}

// drive puts the beat on the interface and tells if any signal changed.
// Routing and user bits wider than the interface are truncated.
func (bt beat) drive(i *Interface) bool {
	changed := i.TData.Drive(bt.data)

	if i.TLast != nil && i.TLast.Drive(bt.last) {
		changed = true
	}

	sidebands := []struct {
		sig *sim.Signal[uint64]
		v   uint64
	}{
		{i.TStrb, bt.strb},
		{i.TKeep, bt.keep},
		{i.TID, bt.id},
		{i.TDest, bt.dest},
		{i.TUser, bt.user},
	}

	for _, sb := range sidebands {
		if sb.sig == nil {
			continue
		}

		if sb.sig.Drive(sb.v & widthMask(sb.sig.Width())) {
			changed = true
		}
	}

	return changed
}

// Buffer is an elastic buffer between two AXI4-Stream interfaces. While it
// holds nothing it forwards upstream transfers combinationally, with no added
// latency. When downstream does not take a word in the cycle it arrives, the
// buffer switches to its staged output and queues further words until
// downstream catches up.
type Buffer struct {
	*sim.ComponentBase

	up, down *Interface
	mode     Mode
	reset    *sim.Signal[bool]

	fifo       sim.Buffer
	staged     beat
	stagedFull bool
	useStaged  bool
}

// Depth returns the number of words held.
func (b *Buffer) Depth() int {
	if b.stagedFull {
		return b.fifo.Size() + 1
	}

	return b.fifo.Size()
}

// Buffers returns the internal word queue.
func (b *Buffer) Buffers() []sim.Buffer {
	return []sim.Buffer{b.fifo}
}

// Tick updates the stored words at the clock edge, from the transfers of the
// ending cycle.
func (b *Buffer) Tick() bool {
	if b.mode == Active {
		b.up.TReady.Set(true)
	}

	if b.reset != nil && b.reset.Get() {
		b.fifo.Clear()
		b.stagedFull = false
		b.useStaged = false

		return true
	}

	inXfer := b.up.Handshake()
	outXfer := b.down.Handshake()
	in := beatOf(b.up)

	if !b.useStaged {
		if inXfer && !outXfer {
			b.staged = in
			b.stagedFull = true
			b.useStaged = true
		}

		return inXfer
	}

	if outXfer {
		b.stagedFull = false
	}

	if inXfer {
		b.fifo.Push(in)
	}

	if !b.stagedFull && b.fifo.Size() > 0 {
		b.staged = b.fifo.Pop().(beat)
		b.stagedFull = true
	}

	if !b.stagedFull {
		b.useStaged = false
	}

	return true
}

// Settle drives the downstream outputs, either from the staged word or
// straight from upstream.
func (b *Buffer) Settle() bool {
	var (
		valid bool
		out   beat
	)

	if b.useStaged {
		valid = b.stagedFull
		out = b.staged
	} else {
		valid = b.up.TValid.Get() && b.up.TReady.Get()
		out = beatOf(b.up)
	}

	changed := b.down.TValid.Drive(valid)

	if out.drive(b.down) {
		changed = true
	}

	return changed
}

func lastOf(i *Interface) bool {
	return i.TLast != nil && i.TLast.Get()
}

// BufferBuilder can build buffers.
type BufferBuilder struct {
	up, down *Interface
	mode     Mode
	reset    *sim.Signal[bool]
}

// MakeBufferBuilder returns a builder for an active buffer.
func MakeBufferBuilder() BufferBuilder {
	return BufferBuilder{mode: Active}
}

// WithUpstream sets the interface the buffer receives from.
func (b BufferBuilder) WithUpstream(i *Interface) BufferBuilder {
	b.up = i
	return b
}

// WithDownstream sets the interface the buffer sends to.
func (b BufferBuilder) WithDownstream(i *Interface) BufferBuilder {
	b.down = i
	return b
}

// WithMode sets whether the buffer drives upstream TREADY.
func (b BufferBuilder) WithMode(mode Mode) BufferBuilder {
	b.mode = mode
	return b
}

// WithResetLine sets the synchronous reset input.
func (b BufferBuilder) WithResetLine(reset *sim.Signal[bool]) BufferBuilder {
	b.reset = reset
	return b
}

// Build creates a buffer. Both interfaces must have the same bus width.
func (b BufferBuilder) Build(name string) (*Buffer, error) {
	if b.up == nil || b.down == nil {
		panic("buffer " + name + " needs both upstream and downstream")
	}

	if b.up.BusWidth() != b.down.BusWidth() {
		return nil, errors.Errorf(
			"buffer %s: upstream is %d bytes wide, downstream is %d",
			name, b.up.BusWidth(), b.down.BusWidth())
	}

	return &Buffer{
		ComponentBase: sim.NewComponentBase(name),
		up:            b.up,
		down:          b.down,
		mode:          b.mode,
		reset:         b.reset,
		fifo:          sim.NewUnboundedBuffer(sim.BuildName(name, "Fifo")),
	}, nil
}
