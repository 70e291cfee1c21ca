package stream

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
)

// A Field is an optional AXI4-Stream signal.
type Field uint8

// The optional fields of an interface.
const (
	FieldLast Field = 1 << iota
	FieldStrobe
	FieldKeep
	FieldID
	FieldDest
	FieldUser
)

// Interface is an AXI4-Stream interface: TDATA, TVALID and TREADY, plus the
// optional fields chosen when it is built. The signal of an absent field is
// nil.
type Interface struct {
	name     string
	busWidth int
	fields   Field

	TData  *sim.Signal[uint64]
	TValid *sim.Signal[bool]
	TReady *sim.Signal[bool]
	TLast  *sim.Signal[bool]
	TStrb  *sim.Signal[uint64]
	TKeep  *sim.Signal[uint64]
	TID    *sim.Signal[uint64]
	TDest  *sim.Signal[uint64]
	TUser  *sim.Signal[uint64]
}

// Name returns the name of the interface.
func (i *Interface) Name() string {
	return i.name
}

// BusWidth returns the width of TDATA in bytes.
func (i *Interface) BusWidth() int {
	return i.busWidth
}

// Has tells if the optional field is present.
func (i *Interface) Has(f Field) bool {
	return i.fields&f != 0
}

// DataMask returns a mask covering all bits of TDATA.
func (i *Interface) DataMask() uint64 {
	return widthMask(8 * i.busWidth)
}

// ByteMask returns a mask with one bit per TDATA byte, the all-ones value of
// TSTRB and TKEEP.
func (i *Interface) ByteMask() uint64 {
	return widthMask(i.busWidth)
}

// Handshake tells if a transfer happens at the coming clock edge.
func (i *Interface) Handshake() bool {
	return i.TValid.Get() && i.TReady.Get()
}

// Signals returns every signal of the interface.
func (i *Interface) Signals() []sim.Latch {
	signals := []sim.Latch{i.TData, i.TValid, i.TReady}

	if i.TLast != nil {
		signals = append(signals, i.TLast)
	}

	for _, s := range []*sim.Signal[uint64]{i.TStrb, i.TKeep, i.TID, i.TDest, i.TUser} {
		if s != nil {
			signals = append(signals, s)
		}
	}

	return signals
}

func widthMask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}

	return 1<<uint(bits) - 1
}

// InterfaceBuilder can build AXI4-Stream interfaces.
type InterfaceBuilder struct {
	busWidth int
	fields   Field
	idBits   int
	destBits int
	userBits int
}

// MakeInterfaceBuilder returns a builder for a 4-byte interface without
// optional fields.
func MakeInterfaceBuilder() InterfaceBuilder {
	return InterfaceBuilder{busWidth: 4}
}

// WithBusWidth sets the width of TDATA in bytes.
func (b InterfaceBuilder) WithBusWidth(bytes int) InterfaceBuilder {
	b.busWidth = bytes
	return b
}

// WithLast adds TLAST.
func (b InterfaceBuilder) WithLast() InterfaceBuilder {
	b.fields |= FieldLast
	return b
}

// WithStrobe adds TSTRB.
func (b InterfaceBuilder) WithStrobe() InterfaceBuilder {
	b.fields |= FieldStrobe
	return b
}

// WithKeep adds TKEEP.
func (b InterfaceBuilder) WithKeep() InterfaceBuilder {
	b.fields |= FieldKeep
	return b
}

// WithID adds a TID of the given width.
func (b InterfaceBuilder) WithID(bits int) InterfaceBuilder {
	b.fields |= FieldID
	b.idBits = bits

	return b
}

// WithDest adds a TDEST of the given width.
func (b InterfaceBuilder) WithDest(bits int) InterfaceBuilder {
	b.fields |= FieldDest
	b.destBits = bits

	return b
}

// WithUser adds a TUSER of the given width.
func (b InterfaceBuilder) WithUser(bits int) InterfaceBuilder {
	b.fields |= FieldUser
	b.userBits = bits

	return b
}

// Build creates the interface. Unsupported widths are reported as errors.
func (b InterfaceBuilder) Build(name string) (*Interface, error) {
	if err := b.validate(); err != nil {
		return nil, errors.Wrapf(err, "stream interface %s", name)
	}

	sim.NameMustBeValid(name)

	i := &Interface{
		name:     name,
		busWidth: b.busWidth,
		fields:   b.fields,
		TData:    sim.NewBits(sim.BuildName(name, "TData"), 8*b.busWidth),
		TValid:   sim.NewBit(sim.BuildName(name, "TValid")),
		TReady:   sim.NewBit(sim.BuildName(name, "TReady")),
	}

	if i.Has(FieldLast) {
		i.TLast = sim.NewBit(sim.BuildName(name, "TLast"))
	}

	if i.Has(FieldStrobe) {
		i.TStrb = sim.NewBits(sim.BuildName(name, "TStrb"), b.busWidth)
	}

	if i.Has(FieldKeep) {
		i.TKeep = sim.NewBits(sim.BuildName(name, "TKeep"), b.busWidth)
	}

	if i.Has(FieldID) {
		i.TID = sim.NewBits(sim.BuildName(name, "TID"), b.idBits)
	}

	if i.Has(FieldDest) {
		i.TDest = sim.NewBits(sim.BuildName(name, "TDest"), b.destBits)
	}

	if i.Has(FieldUser) {
		i.TUser = sim.NewBits(sim.BuildName(name, "TUser"), b.userBits)
	}

	return i, nil
}

func (b InterfaceBuilder) validate() error {
	if b.busWidth < 1 || b.busWidth > 8 {
		return errors.Errorf("bus width %d bytes is not in [1, 8]", b.busWidth)
	}

	checks := []struct {
		field Field
		name  string
		bits  int
		max   int
	}{
		{FieldID, "TID", b.idBits, 8},
		{FieldDest, "TDEST", b.destBits, 8},
		{FieldUser, "TUSER", b.userBits, 64},
	}

	for _, c := range checks {
		if b.fields&c.field == 0 {
			continue
		}

		if c.bits < 1 || c.bits > c.max {
			return errors.Errorf(
				"%s width %d bits is not in [1, %d]", c.name, c.bits, c.max)
		}
	}

	return nil
}
