package stream

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

type sourcePacket struct {
	id          string
	words       Packet
	lastPresent int
	raiseLast   bool
}

type presentedWord struct {
	taskID   string
	endsTask bool
}

// Source is an AXI4-Stream master. It sends queued packets one word per
// accepted cycle. An absent word in a packet becomes a cycle with TVALID
// deasserted.
type Source struct {
	*sim.ComponentBase

	iface *Interface
	reset *sim.Signal[bool]

	queue     sim.Buffer
	current   *sourcePacket
	pos       int
	presented *presentedWord
}

// Buffers returns the packet queue.
func (s *Source) Buffers() []sim.Buffer {
	return []sim.Buffer{s.queue}
}

// Add queues packets for sending. If incompleteLast is set, TLAST is never
// raised for the final packet of the batch. Words wider than TDATA are
// rejected, and in that case no packet of the batch is queued.
func (s *Source) Add(packets []Packet, incompleteLast bool) error {
	mask := s.iface.DataMask()

	for i, p := range packets {
		for j, w := range p {
			if w.Present && w.Data&^mask != 0 {
				return errors.Errorf(
					"source %s: packet %d word %d: value %#x does not fit "+
						"%d-byte TDATA",
					s.Name(), i, j, w.Data, s.iface.BusWidth())
			}
		}
	}

	for i, p := range packets {
		words := make(Packet, len(p))
		copy(words, p)

		s.queue.Push(&sourcePacket{
			id:          sim.GetIDGenerator().Generate(),
			words:       words,
			lastPresent: words.LastPresent(),
			raiseLast:   !(incompleteLast && i == len(packets)-1),
		})
	}

	return nil
}

// Idle tells if the source has nothing left to send.
func (s *Source) Idle() bool {
	return s.queue.Size() == 0 && s.current == nil && !s.iface.TValid.Get()
}

// Tick decides the outputs for the next cycle.
func (s *Source) Tick() bool {
	if s.reset != nil && s.reset.Get() {
		s.doReset()
		return true
	}

	if s.iface.TValid.Get() {
		if !s.iface.TReady.Get() {
			return false
		}

		s.wordAccepted()
	}

	return s.fetch()
}

func (s *Source) wordAccepted() {
	if s.presented == nil {
		return
	}

	tracing.AddTaskStep(s.presented.taskID, s, "beat")

	if s.presented.endsTask {
		tracing.EndTask(s.presented.taskID, s)
	}

	s.presented = nil
}

func (s *Source) fetch() bool {
	for s.current == nil {
		if s.queue.Size() == 0 {
			s.iface.TValid.Set(false)
			return false
		}

		p := s.queue.Pop().(*sourcePacket)
		if len(p.words) == 0 {
			continue
		}

		s.current = p
		s.pos = 0

		tracing.StartTask(p.id, "", s, "packet", "send", p.words)
	}

	p := s.current
	idx := s.pos
	w := p.words[idx]
	s.pos++

	isLast := s.pos == len(p.words)

	switch {
	case w.Present:
		s.present(w.Data, p.raiseLast && idx == p.lastPresent)
		s.presented = &presentedWord{
			taskID:   p.id,
			endsTask: idx == p.lastPresent,
		}
	case !isLast:
		s.iface.TValid.Set(false)
		s.setLast(false)
	default:
		s.iface.TValid.Set(false)
	}

	if isLast {
		if p.lastPresent < 0 {
			tracing.EndTask(p.id, s)
		}

		s.current = nil
	}

	return true
}

func (s *Source) present(data uint64, last bool) {
	s.iface.TValid.Set(true)
	s.iface.TData.Set(data)
	s.setLast(last)
	driveSidebands(s.iface)
}

func (s *Source) setLast(last bool) {
	if s.iface.TLast != nil {
		s.iface.TLast.Set(last)
	}
}

func (s *Source) doReset() {
	s.queue.Clear()

	if s.current != nil {
		tracing.AddTaskStep(s.current.id, s, "discarded")
		tracing.EndTask(s.current.id, s)
	} else if s.presented != nil {
		tracing.EndTask(s.presented.taskID, s)
	}

	s.current = nil
	s.presented = nil

	s.iface.TValid.Set(false)
	s.setLast(false)
}

// driveSidebands marks every byte as data and drives single-stream routing.
func driveSidebands(i *Interface) {
	if i.TStrb != nil {
		i.TStrb.Set(i.ByteMask())
	}

	if i.TKeep != nil {
		i.TKeep.Set(i.ByteMask())
	}

	if i.TID != nil {
		i.TID.Set(0)
	}

	if i.TDest != nil {
		i.TDest.Set(0)
	}

	if i.TUser != nil {
		i.TUser.Set(0)
	}
}

// SourceBuilder can build sources.
type SourceBuilder struct {
	iface *Interface
	reset *sim.Signal[bool]
}

// MakeSourceBuilder returns a new SourceBuilder.
func MakeSourceBuilder() SourceBuilder {
	return SourceBuilder{}
}

// WithInterface sets the interface the source drives.
func (b SourceBuilder) WithInterface(i *Interface) SourceBuilder {
	b.iface = i
	return b
}

// WithResetLine sets the synchronous reset input.
func (b SourceBuilder) WithResetLine(reset *sim.Signal[bool]) SourceBuilder {
	b.reset = reset
	return b
}

// Build creates a source.
func (b SourceBuilder) Build(name string) *Source {
	if b.iface == nil {
		panic("source " + name + " has no interface")
	}

	return &Source{
		ComponentBase: sim.NewComponentBase(name),
		iface:         b.iface,
		reset:         b.reset,
		queue:         sim.NewUnboundedBuffer(sim.BuildName(name, "Queue")),
	}
}
