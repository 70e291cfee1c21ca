package lite

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
)

type pendingResponse struct {
	resp      Resp
	data      uint64
	countdown int
}

// Slave is an AXI4-Lite register file. It accepts one write and one read at a
// time, raising its ready flags at random, and answers after a fixed latency.
// Accesses outside its address range get DECERR; unaligned accesses get
// SLVERR.
type Slave struct {
	*sim.ComponentBase

	iface *Interface
	reset *sim.Signal[bool]
	rng   *rand.Rand

	readyProbability float64
	latency          int
	base, size       uint64

	regs map[uint64]uint64

	awAddr   uint64
	awTaken  bool
	wData    uint64
	wStrb    uint64
	wTaken   bool
	bPending *pendingResponse

	arAddr   uint64
	arTaken  bool
	rPending *pendingResponse
}

// Peek returns the register at addr, bypassing the bus.
func (s *Slave) Peek(addr uint64) uint64 {
	return s.regs[addr]
}

// Poke sets the register at addr, bypassing the bus.
func (s *Slave) Poke(addr, v uint64) {
	s.regs[addr] = v
}

// Tick observes the handshakes of the ending cycle and decides the slave
// outputs for the next one.
func (s *Slave) Tick() bool {
	if s.reset != nil && s.reset.Get() {
		s.doReset()
		return true
	}

	s.tickWrite()
	s.tickRead()

	return true
}

func (s *Slave) tickWrite() {
	i := s.iface

	if i.AWValid.Get() && i.AWReady.Get() {
		s.awAddr = i.AWAddr.Get()
		s.awTaken = true
	}

	if i.WValid.Get() && i.WReady.Get() {
		s.wData = i.WData.Get()
		s.wStrb = i.WStrb.Get()
		s.wTaken = true
	}

	if i.BValid.Get() && i.BReady.Get() {
		i.BValid.Set(false)
		s.bPending = nil
	}

	if s.awTaken && s.wTaken && s.bPending == nil {
		resp := s.write(s.awAddr, s.wData, s.wStrb)
		s.bPending = &pendingResponse{resp: resp, countdown: s.latency}
		s.awTaken = false
		s.wTaken = false
	}

	if s.bPending != nil && !i.BValid.Get() {
		if s.bPending.countdown == 0 {
			i.BValid.Set(true)
			i.BResp.Set(uint64(s.bPending.resp))
		} else {
			s.bPending.countdown--
		}
	}

	i.AWReady.Set(!s.awTaken && s.draw())
	i.WReady.Set(!s.wTaken && s.draw())
}

func (s *Slave) tickRead() {
	i := s.iface

	if i.ARValid.Get() && i.ARReady.Get() {
		s.arAddr = i.ARAddr.Get()
		s.arTaken = true
	}

	if i.RValid.Get() && i.RReady.Get() {
		i.RValid.Set(false)
		s.rPending = nil
	}

	if s.arTaken && s.rPending == nil {
		resp, data := s.read(s.arAddr)
		s.rPending = &pendingResponse{resp: resp, data: data, countdown: s.latency}
		s.arTaken = false
	}

	if s.rPending != nil && !i.RValid.Get() {
		if s.rPending.countdown == 0 {
			i.RValid.Set(true)
			i.RData.Set(s.rPending.data)
			i.RResp.Set(uint64(s.rPending.resp))
		} else {
			s.rPending.countdown--
		}
	}

	i.ARReady.Set(!s.arTaken && s.draw())
}

func (s *Slave) draw() bool {
	return s.rng.Float64() < s.readyProbability
}

func (s *Slave) decode(addr uint64) Resp {
	if addr < s.base || addr-s.base >= s.size {
		return DECERR
	}

	if addr%uint64(s.iface.StrobeWidth()) != 0 {
		return SLVERR
	}

	return OKAY
}

func (s *Slave) write(addr, data, strb uint64) Resp {
	resp := s.decode(addr)
	if resp != OKAY {
		return resp
	}

	v := s.regs[addr]
	for lane := 0; lane < s.iface.StrobeWidth(); lane++ {
		if strb&(1<<uint(lane)) == 0 {
			continue
		}

		mask := uint64(0xff) << uint(8*lane)
		v = v&^mask | data&mask
	}

	s.regs[addr] = v

	return OKAY
}

func (s *Slave) read(addr uint64) (Resp, uint64) {
	resp := s.decode(addr)
	if resp != OKAY {
		return resp, 0
	}

	return OKAY, s.regs[addr]
}

func (s *Slave) doReset() {
	s.awTaken = false
	s.wTaken = false
	s.arTaken = false
	s.bPending = nil
	s.rPending = nil

	i := s.iface
	for _, sig := range []*sim.Signal[bool]{
		i.AWReady, i.WReady, i.BValid, i.ARReady, i.RValid,
	} {
		sig.Set(false)
	}
}

// SlaveBuilder can build slaves.
type SlaveBuilder struct {
	iface            *Interface
	reset            *sim.Signal[bool]
	rng              *rand.Rand
	readyProbability float64
	latency          int
	base, size       uint64
}

// MakeSlaveBuilder returns a builder for an always-ready 4KiB slave at
// address 0 that responds one cycle after accepting a request.
func MakeSlaveBuilder() SlaveBuilder {
	return SlaveBuilder{
		readyProbability: 1,
		size:             4096,
	}
}

// WithInterface sets the interface the slave responds on.
func (b SlaveBuilder) WithInterface(i *Interface) SlaveBuilder {
	b.iface = i
	return b
}

// WithResetLine sets the synchronous reset input.
func (b SlaveBuilder) WithResetLine(reset *sim.Signal[bool]) SlaveBuilder {
	b.reset = reset
	return b
}

// WithRand sets the random stream that decides the ready flags.
func (b SlaveBuilder) WithRand(rng *rand.Rand) SlaveBuilder {
	b.rng = rng
	return b
}

// WithReadyProbability sets the probability of each ready flag being high in
// a cycle.
func (b SlaveBuilder) WithReadyProbability(p float64) SlaveBuilder {
	b.readyProbability = p
	return b
}

// WithLatency sets the extra cycles between accepting a request and raising
// the response.
func (b SlaveBuilder) WithLatency(cycles int) SlaveBuilder {
	b.latency = cycles
	return b
}

// WithAddressRange sets the addresses the slave decodes.
func (b SlaveBuilder) WithAddressRange(base, size uint64) SlaveBuilder {
	b.base = base
	b.size = size

	return b
}

// Build creates a slave.
func (b SlaveBuilder) Build(name string) (*Slave, error) {
	if b.iface == nil {
		panic("slave " + name + " has no interface")
	}

	if b.readyProbability < 0 || b.readyProbability > 1 {
		return nil, errors.Errorf(
			"slave %s: ready probability %g is not in [0, 1]",
			name, b.readyProbability)
	}

	if b.latency < 0 {
		return nil, errors.Errorf("slave %s: negative latency", name)
	}

	if b.size == 0 {
		return nil, errors.Errorf("slave %s: empty address range", name)
	}

	rng := b.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	return &Slave{
		ComponentBase:    sim.NewComponentBase(name),
		iface:            b.iface,
		reset:            b.reset,
		rng:              rng,
		readyProbability: b.readyProbability,
		latency:          b.latency,
		base:             b.base,
		size:             b.size,
		regs:             make(map[uint64]uint64),
	}, nil
}
