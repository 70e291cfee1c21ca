package lite

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

// Master is an AXI4-Lite master. It issues queued write and read
// transactions, one write and one read in flight at a time, and collects the
// responses.
//
// Each of the five channels is a small state machine with its own delay. A
// write starts once its address, data and response channels are all idle; a
// read starts once its address and data channels are idle.
type Master struct {
	*sim.ComponentBase
	sim.MiddlewareHolder

	iface *Interface
	reset *sim.Signal[bool]

	aw, w, b, ar, r *channel

	writeQueue     sim.Buffer
	readQueue      sim.Buffer
	writeResponses sim.Buffer
	readResponses  sim.Buffer

	curWrite *queuedWrite
	curRead  *queuedRead
}

// AddWriteTransaction queues a write. Fields wider than their signals and
// negative delays are rejected. The returned ID identifies the response.
func (m *Master) AddWriteTransaction(t WriteTransaction) (string, error) {
	if err := m.checkAddress(t.Address, t.Prot); err != nil {
		return "", err
	}

	if err := fits(t.Data, m.iface.DataWidth()); err != nil {
		return "", errors.Wrapf(err, "master %s: write data", m.Name())
	}

	if err := fits(t.Strobe, m.iface.StrobeWidth()); err != nil {
		return "", errors.Wrapf(err, "master %s: write strobe", m.Name())
	}

	if t.AddressDelay < 0 || t.DataDelay < 0 || t.ResponseReadyDelay < 0 {
		return "", errors.Errorf("master %s: negative delay", m.Name())
	}

	id := sim.GetIDGenerator().Generate()
	m.writeQueue.Push(&queuedWrite{id: id, WriteTransaction: t})

	return id, nil
}

// AddReadTransaction queues a read. The returned ID identifies the response.
func (m *Master) AddReadTransaction(t ReadTransaction) (string, error) {
	if err := m.checkAddress(t.Address, t.Prot); err != nil {
		return "", err
	}

	if t.AddressDelay < 0 || t.DataDelay < 0 {
		return "", errors.Errorf("master %s: negative delay", m.Name())
	}

	id := sim.GetIDGenerator().Generate()
	m.readQueue.Push(&queuedRead{id: id, ReadTransaction: t})

	return id, nil
}

func (m *Master) checkAddress(addr uint64, prot uint8) error {
	if err := fits(addr, m.iface.AddrWidth()); err != nil {
		return errors.Wrapf(err, "master %s: address", m.Name())
	}

	if err := fits(uint64(prot), 3); err != nil {
		return errors.Wrapf(err, "master %s: protection", m.Name())
	}

	return nil
}

func fits(v uint64, bits int) error {
	if bits >= 64 || v>>uint(bits) == 0 {
		return nil
	}

	return errors.Errorf("value %#x does not fit in %d bits", v, bits)
}

// WriteResponses returns the number of write responses not yet popped.
func (m *Master) WriteResponses() int {
	return m.writeResponses.Size()
}

// ReadResponses returns the number of read responses not yet popped.
func (m *Master) ReadResponses() int {
	return m.readResponses.Size()
}

// PopWriteResponse removes the oldest write response.
func (m *Master) PopWriteResponse() (WriteResponse, bool) {
	if m.writeResponses.Size() == 0 {
		return WriteResponse{}, false
	}

	return m.writeResponses.Pop().(WriteResponse), true
}

// PopReadResponse removes the oldest read response.
func (m *Master) PopReadResponse() (ReadResponse, bool) {
	if m.readResponses.Size() == 0 {
		return ReadResponse{}, false
	}

	return m.readResponses.Pop().(ReadResponse), true
}

// Idle tells if no transaction is queued or in flight.
func (m *Master) Idle() bool {
	return m.writeQueue.Size() == 0 && m.readQueue.Size() == 0 &&
		m.writeGroupIdle() && m.readGroupIdle()
}

// Buffers returns the transaction and response queues.
func (m *Master) Buffers() []sim.Buffer {
	return []sim.Buffer{
		m.writeQueue, m.readQueue, m.writeResponses, m.readResponses,
	}
}

// ChannelStates reports the state of each channel, by channel name.
func (m *Master) ChannelStates() map[string]string {
	states := make(map[string]string)
	for _, c := range []*channel{m.aw, m.w, m.b, m.ar, m.r} {
		states[c.name] = c.state.String()
	}

	return states
}

func (m *Master) writeGroupIdle() bool {
	return m.aw.idle() && m.w.idle() && m.b.idle()
}

func (m *Master) readGroupIdle() bool {
	return m.ar.idle() && m.r.idle()
}

// Tick advances all channels, then starts the next transactions whose
// channels are free.
func (m *Master) Tick() bool {
	if m.reset != nil && m.reset.Get() {
		m.doReset()
		return true
	}

	progress := m.MiddlewareHolder.Tick()

	if m.startWrite() {
		progress = true
	}

	if m.startRead() {
		progress = true
	}

	return progress
}

func (m *Master) startWrite() bool {
	if !m.writeGroupIdle() || m.writeQueue.Size() == 0 {
		return false
	}

	m.curWrite = m.writeQueue.Pop().(*queuedWrite)
	tracing.StartTask(m.curWrite.id, "", m, "write", "transaction",
		m.curWrite.WriteTransaction)

	m.aw.start(m.curWrite.AddressDelay)
	m.w.start(m.curWrite.DataDelay)
	m.b.start(m.curWrite.ResponseReadyDelay)

	return true
}

func (m *Master) startRead() bool {
	if !m.readGroupIdle() || m.readQueue.Size() == 0 {
		return false
	}

	m.curRead = m.readQueue.Pop().(*queuedRead)
	tracing.StartTask(m.curRead.id, "", m, "read", "transaction",
		m.curRead.ReadTransaction)

	m.ar.start(m.curRead.AddressDelay)
	m.r.start(m.curRead.DataDelay)

	return true
}

func (m *Master) doReset() {
	writeInFlight := m.curWrite != nil && !m.writeGroupIdle()
	readInFlight := m.curRead != nil && !m.readGroupIdle()

	for _, c := range []*channel{m.aw, m.w, m.b, m.ar, m.r} {
		c.reset()
	}

	if writeInFlight {
		tracing.AddTaskStep(m.curWrite.id, m, "discarded")
		tracing.EndTask(m.curWrite.id, m)
	}

	if readInFlight {
		tracing.AddTaskStep(m.curRead.id, m, "discarded")
		tracing.EndTask(m.curRead.id, m)
	}

	m.curWrite = nil
	m.curRead = nil
}

func (m *Master) buildChannels() {
	i := m.iface

	m.aw = &channel{
		name: "AW", drive: i.AWValid, other: i.AWReady,
		load: func() {
			i.AWAddr.Set(m.curWrite.Address)
			i.AWProt.Set(uint64(m.curWrite.Prot))
		},
		onHandshake: func() { tracing.AddTaskStep(m.curWrite.id, m, "aw") },
	}

	m.w = &channel{
		name: "W", drive: i.WValid, other: i.WReady,
		load: func() {
			i.WData.Set(m.curWrite.Data)
			i.WStrb.Set(m.curWrite.Strobe)
		},
		onHandshake: func() { tracing.AddTaskStep(m.curWrite.id, m, "w") },
	}

	m.b = &channel{
		name: "B", drive: i.BReady, other: i.BValid,
		onHandshake: func() {
			m.writeResponses.Push(WriteResponse{
				TransactionID: m.curWrite.id,
				Address:       m.curWrite.Address,
				Resp:          Resp(i.BResp.Get()),
			})
			tracing.EndTask(m.curWrite.id, m)
		},
	}

	m.ar = &channel{
		name: "AR", drive: i.ARValid, other: i.ARReady,
		load: func() {
			i.ARAddr.Set(m.curRead.Address)
			i.ARProt.Set(uint64(m.curRead.Prot))
		},
		onHandshake: func() { tracing.AddTaskStep(m.curRead.id, m, "ar") },
	}

	m.r = &channel{
		name: "R", drive: i.RReady, other: i.RValid,
		onHandshake: func() {
			m.readResponses.Push(ReadResponse{
				TransactionID: m.curRead.id,
				Address:       m.curRead.Address,
				Data:          i.RData.Get(),
				Resp:          Resp(i.RResp.Get()),
			})
			tracing.EndTask(m.curRead.id, m)
		},
	}

	for _, c := range []*channel{m.aw, m.w, m.b, m.ar, m.r} {
		m.AddMiddleware(c)
	}
}

// MasterBuilder can build masters.
type MasterBuilder struct {
	iface *Interface
	reset *sim.Signal[bool]
}

// MakeMasterBuilder returns a new MasterBuilder.
func MakeMasterBuilder() MasterBuilder {
	return MasterBuilder{}
}

// WithInterface sets the interface the master drives.
func (b MasterBuilder) WithInterface(i *Interface) MasterBuilder {
	b.iface = i
	return b
}

// WithResetLine sets the synchronous reset input.
func (b MasterBuilder) WithResetLine(reset *sim.Signal[bool]) MasterBuilder {
	b.reset = reset
	return b
}

// Build creates a master.
func (b MasterBuilder) Build(name string) *Master {
	if b.iface == nil {
		panic("master " + name + " has no interface")
	}

	m := &Master{
		ComponentBase:  sim.NewComponentBase(name),
		iface:          b.iface,
		reset:          b.reset,
		writeQueue:     sim.NewUnboundedBuffer(sim.BuildName(name, "WriteQueue")),
		readQueue:      sim.NewUnboundedBuffer(sim.BuildName(name, "ReadQueue")),
		writeResponses: sim.NewUnboundedBuffer(sim.BuildName(name, "WriteResponses")),
		readResponses:  sim.NewUnboundedBuffer(sim.BuildName(name, "ReadResponses")),
	}

	m.buildChannels()

	return m
}
