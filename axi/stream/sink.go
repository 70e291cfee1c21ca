package stream

import (
	"math/rand"

	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

// Sink is an AXI4-Stream slave. Every cycle it raises TREADY with a given
// probability and captures the words it accepts into packets, closing a
// packet on TLAST.
//
// A passive sink never drives TREADY. It only records the transfers it sees
// on the wire.
type Sink struct {
	*sim.ComponentBase

	iface *Interface
	reset *sim.Signal[bool]
	rng   *rand.Rand

	readyProbability float64
	passive          bool
	withValidity     bool

	taskID            string
	current           []uint64
	completed         [][]uint64
	currentValidity   Packet
	completedValidity []Packet
}

// SetReadyProbability makes the sink drive TREADY, high with probability p,
// from the next cycle on.
func (s *Sink) SetReadyProbability(p float64) {
	if p < 0 || p > 1 {
		panic("ready probability must be in [0, 1]")
	}

	s.readyProbability = p
	s.passive = false
}

// SetPassive stops the sink from driving TREADY.
func (s *Sink) SetPassive() {
	s.passive = true
}

// CurrentPacket returns a copy of the packet being received.
func (s *Sink) CurrentPacket() []uint64 {
	return append([]uint64(nil), s.current...)
}

// CompletedPackets returns the packets received so far, in order.
func (s *Sink) CompletedPackets() [][]uint64 {
	return s.completed
}

// CurrentPacketWithValidity returns a copy of the packet being received, with
// an absent word for every cycle TREADY was high without TVALID.
func (s *Sink) CurrentPacketWithValidity() Packet {
	return append(Packet(nil), s.currentValidity...)
}

// CompletedPacketsWithValidity returns the completed packets with the absent
// words of the cycles that had TREADY without TVALID.
func (s *Sink) CompletedPacketsWithValidity() []Packet {
	return s.completedValidity
}

// Reset clears everything captured so far. It does not touch the interface.
func (s *Sink) Reset() {
	if s.taskID != "" {
		tracing.EndTask(s.taskID, s)
	}

	s.taskID = ""
	s.current = nil
	s.completed = nil
	s.currentValidity = nil
	s.completedValidity = nil
}

// Tick captures the transfer of the ending cycle and decides TREADY for the
// next one.
func (s *Sink) Tick() bool {
	if s.reset != nil && s.reset.Get() {
		if !s.passive {
			s.iface.TReady.Set(false)
		}

		return true
	}

	valid := s.iface.TValid.Get()
	ready := s.iface.TReady.Get()

	switch {
	case valid && ready:
		s.capture(s.iface.TData.Get())
	case ready && s.withValidity:
		s.currentValidity = append(s.currentValidity, Gap)
	}

	if !s.passive {
		s.iface.TReady.Set(s.rng.Float64() < s.readyProbability)
	}

	return valid || ready
}

func (s *Sink) capture(data uint64) {
	if s.taskID == "" {
		s.taskID = sim.GetIDGenerator().Generate()
		tracing.StartTask(s.taskID, "", s, "packet", "receive", nil)
	}

	tracing.AddTaskStep(s.taskID, s, "beat")

	s.current = append(s.current, data)
	if s.withValidity {
		s.currentValidity = append(s.currentValidity, W(data))
	}

	if s.iface.TLast == nil || !s.iface.TLast.Get() {
		return
	}

	s.completed = append(s.completed, s.current)
	s.current = nil

	if s.withValidity {
		s.completedValidity = append(s.completedValidity, s.currentValidity)
		s.currentValidity = nil
	}

	tracing.EndTask(s.taskID, s)
	s.taskID = ""
}

// SinkBuilder can build sinks.
type SinkBuilder struct {
	iface            *Interface
	reset            *sim.Signal[bool]
	rng              *rand.Rand
	readyProbability float64
	passive          bool
	withValidity     bool
}

// MakeSinkBuilder returns a builder for an always-ready sink.
func MakeSinkBuilder() SinkBuilder {
	return SinkBuilder{readyProbability: 1}
}

// WithInterface sets the interface the sink listens to.
func (b SinkBuilder) WithInterface(i *Interface) SinkBuilder {
	b.iface = i
	return b
}

// WithResetLine sets the synchronous reset input.
func (b SinkBuilder) WithResetLine(reset *sim.Signal[bool]) SinkBuilder {
	b.reset = reset
	return b
}

// WithRand sets the random stream that decides TREADY.
func (b SinkBuilder) WithRand(rng *rand.Rand) SinkBuilder {
	b.rng = rng
	return b
}

// WithReadyProbability sets the probability of TREADY being high in a cycle.
func (b SinkBuilder) WithReadyProbability(p float64) SinkBuilder {
	b.readyProbability = p
	b.passive = false

	return b
}

// WithPassive makes the sink a monitor that never drives TREADY.
func (b SinkBuilder) WithPassive() SinkBuilder {
	b.passive = true
	return b
}

// WithValidityCapture also records the cycles with TREADY but no TVALID.
func (b SinkBuilder) WithValidityCapture() SinkBuilder {
	b.withValidity = true
	return b
}

// Build creates a sink.
func (b SinkBuilder) Build(name string) *Sink {
	if b.iface == nil {
		panic("sink " + name + " has no interface")
	}

	rng := b.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	s := &Sink{
		ComponentBase: sim.NewComponentBase(name),
		iface:         b.iface,
		reset:         b.reset,
		rng:           rng,
		passive:       b.passive,
		withValidity:  b.withValidity,
	}

	if !b.passive {
		s.SetReadyProbability(b.readyProbability)
	}

	return s
}
