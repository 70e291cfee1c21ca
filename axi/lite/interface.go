package lite

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/axisim/sim"
)

// Interface is an AXI4-Lite interface with its five channels.
type Interface struct {
	name      string
	dataWidth int
	addrWidth int

	AWValid, AWReady *sim.Signal[bool]
	AWAddr, AWProt   *sim.Signal[uint64]

	WValid, WReady *sim.Signal[bool]
	WData, WStrb   *sim.Signal[uint64]

	BValid, BReady *sim.Signal[bool]
	BResp          *sim.Signal[uint64]

	ARValid, ARReady *sim.Signal[bool]
	ARAddr, ARProt   *sim.Signal[uint64]

	RValid, RReady *sim.Signal[bool]
	RData, RResp   *sim.Signal[uint64]
}

// Name returns the name of the interface.
func (i *Interface) Name() string {
	return i.name
}

// DataWidth returns the width of WDATA and RDATA in bits.
func (i *Interface) DataWidth() int {
	return i.dataWidth
}

// AddrWidth returns the width of AWADDR and ARADDR in bits.
func (i *Interface) AddrWidth() int {
	return i.addrWidth
}

// StrobeWidth returns the number of byte lanes.
func (i *Interface) StrobeWidth() int {
	return i.dataWidth / 8
}

// Signals returns every signal of the interface.
func (i *Interface) Signals() []sim.Latch {
	return []sim.Latch{
		i.AWValid, i.AWReady, i.AWAddr, i.AWProt,
		i.WValid, i.WReady, i.WData, i.WStrb,
		i.BValid, i.BReady, i.BResp,
		i.ARValid, i.ARReady, i.ARAddr, i.ARProt,
		i.RValid, i.RReady, i.RData, i.RResp,
	}
}

// InterfaceBuilder can build AXI4-Lite interfaces.
type InterfaceBuilder struct {
	dataWidth int
	addrWidth int
}

// MakeInterfaceBuilder returns a builder for a 32-bit interface with 32-bit
// addresses.
func MakeInterfaceBuilder() InterfaceBuilder {
	return InterfaceBuilder{dataWidth: 32, addrWidth: 32}
}

// WithDataWidth sets the data width in bits, 32 or 64.
func (b InterfaceBuilder) WithDataWidth(bits int) InterfaceBuilder {
	b.dataWidth = bits
	return b
}

// WithAddrWidth sets the address width in bits.
func (b InterfaceBuilder) WithAddrWidth(bits int) InterfaceBuilder {
	b.addrWidth = bits
	return b
}

// Build creates the interface.
func (b InterfaceBuilder) Build(name string) (*Interface, error) {
	if b.dataWidth != 32 && b.dataWidth != 64 {
		return nil, errors.Errorf(
			"lite interface %s: data width %d is not supported, use 32 or 64",
			name, b.dataWidth)
	}

	if b.addrWidth < 1 || b.addrWidth > 64 {
		return nil, errors.Errorf(
			"lite interface %s: address width %d is not in [1, 64]",
			name, b.addrWidth)
	}

	sim.NameMustBeValid(name)

	bit := func(s string) *sim.Signal[bool] {
		return sim.NewBit(sim.BuildName(name, s))
	}
	bits := func(s string, w int) *sim.Signal[uint64] {
		return sim.NewBits(sim.BuildName(name, s), w)
	}

	return &Interface{
		name:      name,
		dataWidth: b.dataWidth,
		addrWidth: b.addrWidth,

		AWValid: bit("AWValid"),
		AWReady: bit("AWReady"),
		AWAddr:  bits("AWAddr", b.addrWidth),
		AWProt:  bits("AWProt", 3),

		WValid: bit("WValid"),
		WReady: bit("WReady"),
		WData:  bits("WData", b.dataWidth),
		WStrb:  bits("WStrb", b.dataWidth/8),

		BValid: bit("BValid"),
		BReady: bit("BReady"),
		BResp:  bits("BResp", 2),

		ARValid: bit("ARValid"),
		ARReady: bit("ARReady"),
		ARAddr:  bits("ARAddr", b.addrWidth),
		ARProt:  bits("ARProt", 3),

		RValid: bit("RValid"),
		RReady: bit("RReady"),
		RData:  bits("RData", b.dataWidth),
		RResp:  bits("RResp", 2),
	}, nil
}
