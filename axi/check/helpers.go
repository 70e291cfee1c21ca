package check

import (
	"github.com/sarchlab/axisim/axi/lite"
	"github.com/sarchlab/axisim/axi/stream"
	"github.com/sarchlab/axisim/bench"
	"github.com/sarchlab/axisim/sim"
)

// ForStream checks the TVALID/TREADY handshake of a stream interface, with
// TDATA and every optional field as payload.
func ForStream(i *stream.Interface) *Checker {
	c := NewChecker(bench.HookPosCycleSampled)

	payload := []sim.Latch{}
	for _, s := range i.Signals() {
		if s != sim.Latch(i.TValid) && s != sim.Latch(i.TReady) {
			payload = append(payload, s)
		}
	}

	c.AddChannel(i.Name(), i.TValid, i.TReady, payload...)

	return c
}

// ForLite checks the five channels of a lite interface. On the response and
// read data channels the producer is the slave.
func ForLite(i *lite.Interface) *Checker {
	c := NewChecker(bench.HookPosCycleSampled)

	c.AddChannel(sim.BuildName(i.Name(), "AW"), i.AWValid, i.AWReady, i.AWAddr, i.AWProt)
	c.AddChannel(sim.BuildName(i.Name(), "W"), i.WValid, i.WReady, i.WData, i.WStrb)
	c.AddChannel(sim.BuildName(i.Name(), "B"), i.BValid, i.BReady, i.BResp)
	c.AddChannel(sim.BuildName(i.Name(), "AR"), i.ARValid, i.ARReady, i.ARAddr, i.ARProt)
	c.AddChannel(sim.BuildName(i.Name(), "R"), i.RValid, i.RReady, i.RData, i.RResp)

	return c
}
