package stream

// A Word is one beat of stream data, or an absent word. An absent word models
// an idle cycle with TVALID deasserted; it is never delivered to a consumer.
type Word struct {
	Data    uint64
	Present bool
}

// Gap is the absent word.
var Gap = Word{}

// W returns a present word carrying v.
func W(v uint64) Word {
	return Word{Data: v, Present: true}
}

// A Packet is an ordered sequence of words.
type Packet []Word

// Words builds a packet of present words.
func Words(vs ...uint64) Packet {
	p := make(Packet, len(vs))
	for i, v := range vs {
		p[i] = W(v)
	}

	return p
}

// Values returns the data of the present words, in order.
func (p Packet) Values() []uint64 {
	vs := make([]uint64, 0, len(p))

	for _, w := range p {
		if w.Present {
			vs = append(vs, w.Data)
		}
	}

	return vs
}

// LastPresent returns the index of the last present word, the logical end of
// the packet, or -1 if the packet has no present word.
func (p Packet) LastPresent() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Present {
			return i
		}
	}

	return -1
}
