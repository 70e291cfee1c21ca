package stream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
)

// Playback is an AXI4-Stream master that replays a fixed list of packets. The
// packets are flattened into three index-aligned tables when the playback is
// built, so the master holds no queue at run time.
type Playback struct {
	*sim.ComponentBase

	iface *Interface
	reset *sim.Signal[bool]

	data  []uint64
	valid []bool
	last  []bool
	index int
}

// Tables returns the data, valid and end-of-packet tables.
func (p *Playback) Tables() (data []uint64, valid []bool, last []bool) {
	return p.data, p.valid, p.last
}

// Done tells if every entry has been sent.
func (p *Playback) Done() bool {
	return p.index >= len(p.data)
}

// Tick advances through the tables like a Source advances through its
// packets.
func (p *Playback) Tick() bool {
	if p.reset != nil && p.reset.Get() {
		p.index = 0
		p.iface.TValid.Set(false)
		p.setLast(false)

		return true
	}

	if p.iface.TValid.Get() && !p.iface.TReady.Get() {
		return false
	}

	if p.Done() {
		p.iface.TValid.Set(false)
		return false
	}

	i := p.index
	p.index++

	p.iface.TValid.Set(p.valid[i])
	p.iface.TData.Set(p.data[i])
	p.setLast(p.last[i])

	if p.valid[i] {
		driveSidebands(p.iface)
	}

	return true
}

func (p *Playback) setLast(last bool) {
	if p.iface.TLast != nil {
		p.iface.TLast.Set(last)
	}
}

// WriteMemH writes the tables as a hex memory image, one entry per line.
// Each line holds the flags digit, {last, valid}, followed by the data.
func (p *Playback) WriteMemH(w io.Writer) error {
	bw := bufio.NewWriter(w)
	digits := 2 * p.iface.BusWidth()

	fmt.Fprintf(bw, "// %s: {last, valid} data[%d:0]\n",
		p.Name(), 8*p.iface.BusWidth()-1)

	for i := range p.data {
		flags := 0
		if p.valid[i] {
			flags |= 1
		}

		if p.last[i] {
			flags |= 2
		}

		fmt.Fprintf(bw, "%x%0*x\n", flags, digits, p.data[i])
	}

	return errors.Wrap(bw.Flush(), "writing playback tables")
}

// PlaybackBuilder can build playbacks.
type PlaybackBuilder struct {
	iface          *Interface
	reset          *sim.Signal[bool]
	packets        []Packet
	incompleteLast bool
	filler         uint64
}

// MakePlaybackBuilder returns a new PlaybackBuilder.
func MakePlaybackBuilder() PlaybackBuilder {
	return PlaybackBuilder{}
}

// WithInterface sets the interface the playback drives.
func (b PlaybackBuilder) WithInterface(i *Interface) PlaybackBuilder {
	b.iface = i
	return b
}

// WithResetLine sets the synchronous reset input. Reset rewinds the tables.
func (b PlaybackBuilder) WithResetLine(reset *sim.Signal[bool]) PlaybackBuilder {
	b.reset = reset
	return b
}

// WithPackets sets the packets to replay. If incompleteLast is set, the final
// packet never raises TLAST.
func (b PlaybackBuilder) WithPackets(
	packets []Packet,
	incompleteLast bool,
) PlaybackBuilder {
	b.packets = packets
	b.incompleteLast = incompleteLast

	return b
}

// WithFiller sets the TDATA value of absent words.
func (b PlaybackBuilder) WithFiller(v uint64) PlaybackBuilder {
	b.filler = v
	return b
}

// Build flattens the packets into tables. A packet list without any word is
// an error.
func (b PlaybackBuilder) Build(name string) (*Playback, error) {
	if b.iface == nil {
		panic("playback " + name + " has no interface")
	}

	mask := b.iface.DataMask()
	if b.filler&^mask != 0 {
		return nil, errors.Errorf(
			"playback %s: filler %#x does not fit TDATA", name, b.filler)
	}

	p := &Playback{
		ComponentBase: sim.NewComponentBase(name),
		iface:         b.iface,
		reset:         b.reset,
	}

	// An absent final word leaves TLAST as the previous entry drove it.
	prevLast := false

	for i, packet := range b.packets {
		eop := packet.LastPresent()
		if b.incompleteLast && i == len(b.packets)-1 {
			eop = -1
		}

		for j, w := range packet {
			if w.Present && w.Data&^mask != 0 {
				return nil, errors.Errorf(
					"playback %s: packet %d word %d: value %#x does not fit TDATA",
					name, i, j, w.Data)
			}

			data := b.filler
			if w.Present {
				data = w.Data
			}

			last := j == eop
			if !w.Present && j == len(packet)-1 {
				last = prevLast
			}

			p.data = append(p.data, data)
			p.valid = append(p.valid, w.Present)
			p.last = append(p.last, last)
			prevLast = last
		}
	}

	if len(p.data) == 0 {
		return nil, errors.Errorf("playback %s: no words to play", name)
	}

	return p, nil
}
