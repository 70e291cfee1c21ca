package lite_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axisim/axi/check"
	"github.com/sarchlab/axisim/axi/lite"
	"github.com/sarchlab/axisim/bench"
	"github.com/sarchlab/axisim/sim"
)

// highCycles records the cycles in which each watched flag is high.
type highCycles struct {
	flags map[string]*sim.Signal[bool]
	seen  map[string][]uint64
}

func newHighCycles(flags ...*sim.Signal[bool]) *highCycles {
	h := &highCycles{
		flags: make(map[string]*sim.Signal[bool]),
		seen:  make(map[string][]uint64),
	}

	for _, f := range flags {
		h.flags[f.Name()] = f
	}

	return h
}

func (h *highCycles) Func(ctx sim.HookCtx) {
	if ctx.Pos != bench.HookPosCycleSampled {
		return
	}

	for name, f := range h.flags {
		if f.Get() {
			h.seen[name] = append(h.seen[name], ctx.Item.(uint64))
		}
	}
}

var _ = Describe("Master", func() {
	var (
		b       *bench.Bench
		iface   *lite.Interface
		master  *lite.Master
		slave   *lite.Slave
		checker *check.Checker
	)

	build := func(slaveBuilder lite.SlaveBuilder) {
		var err error

		b = bench.MakeBuilder().WithSeed(11).Build("Bench")
		iface, err = lite.MakeInterfaceBuilder().Build("Bench.Lite")
		Expect(err).NotTo(HaveOccurred())

		master = lite.MakeMasterBuilder().
			WithInterface(iface).
			WithResetLine(b.ResetLine()).
			Build("Bench.Master")
		slave, err = slaveBuilder.
			WithInterface(iface).
			WithResetLine(b.ResetLine()).
			WithRand(b.Rand("Slave")).
			Build("Bench.Slave")
		Expect(err).NotTo(HaveOccurred())

		checker = check.ForLite(iface)
		b.AcceptHook(checker)
		b.Register(iface, master, slave)
	}

	runUntilIdle := func(maxCycles uint64) {
		done, err := b.RunUntil(master.Idle, maxCycles)
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeTrue())
	}

	Context("with an always-ready slave", func() {
		BeforeEach(func() {
			build(lite.MakeSlaveBuilder())
		})

		It("should honor the delays of each channel", func() {
			waves := newHighCycles(iface.AWValid, iface.WValid, iface.BReady)
			b.AcceptHook(waves)

			_, err := master.AddWriteTransaction(lite.WriteTransaction{
				Address:            0x40,
				Data:               0x1234,
				Strobe:             0xf,
				AddressDelay:       2,
				DataDelay:          0,
				ResponseReadyDelay: 5,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(b.Run(1)).To(Succeed())
			Expect(master.ChannelStates()).To(Equal(map[string]string{
				"AW": "Delay", "W": "Send", "B": "Delay", "AR": "Idle", "R": "Idle",
			}))

			done, err := b.RunUntil(func() bool {
				return master.WriteResponses() > 0
			}, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())

			Expect(waves.seen["Bench.Lite.WValid"]).To(Equal([]uint64{1}))
			Expect(waves.seen["Bench.Lite.AWValid"]).To(Equal([]uint64{3}))
			Expect(waves.seen["Bench.Lite.BReady"]).To(Equal([]uint64{6}))
			Expect(b.Cycle()).To(Equal(uint64(7)))

			resp, ok := master.PopWriteResponse()
			Expect(ok).To(BeTrue())
			Expect(resp.Resp).To(Equal(lite.OKAY))
			Expect(resp.Address).To(Equal(uint64(0x40)))
			Expect(slave.Peek(0x40)).To(Equal(uint64(0x1234)))
			Expect(checker.Violations()).To(BeEmpty())
		})

		It("should read back what it wrote", func() {
			slave.Poke(0x20, 0x11223344)

			wid, err := master.AddWriteTransaction(lite.WriteTransaction{
				Address: 0x20, Data: 0xaabbccdd, Strobe: 0b0101,
			})
			Expect(err).NotTo(HaveOccurred())
			runUntilIdle(50)

			rid, err := master.AddReadTransaction(lite.ReadTransaction{
				Address: 0x20, AddressDelay: 1, DataDelay: 3,
			})
			Expect(err).NotTo(HaveOccurred())
			runUntilIdle(50)

			w, ok := master.PopWriteResponse()
			Expect(ok).To(BeTrue())
			Expect(w.TransactionID).To(Equal(wid))

			r, ok := master.PopReadResponse()
			Expect(ok).To(BeTrue())
			Expect(r.TransactionID).To(Equal(rid))
			Expect(r.Data).To(Equal(uint64(0x11bb33dd)))
			Expect(r.Resp).To(Equal(lite.OKAY))

			_, ok = master.PopReadResponse()
			Expect(ok).To(BeFalse())
		})

		It("should run a write and a read at the same time", func() {
			slave.Poke(0x8, 77)

			_, err := master.AddWriteTransaction(lite.WriteTransaction{
				Address: 0x4, Data: 5, Strobe: 0xf,
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = master.AddReadTransaction(lite.ReadTransaction{Address: 0x8})
			Expect(err).NotTo(HaveOccurred())

			Expect(b.Run(3)).To(Succeed())
			Expect(master.ChannelStates()["AW"]).To(Equal("Idle"))
			Expect(master.ChannelStates()["AR"]).To(Equal("Idle"))

			runUntilIdle(20)
			Expect(master.WriteResponses()).To(Equal(1))
			Expect(master.ReadResponses()).To(Equal(1))
		})

		It("should keep queued transactions across reset", func() {
			for i := uint64(0); i < 3; i++ {
				_, err := master.AddWriteTransaction(lite.WriteTransaction{
					Address: 4 * i, Data: i + 1, Strobe: 0xf, AddressDelay: 10,
				})
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(b.Run(2)).To(Succeed())
			b.AssertReset(1)
			Expect(b.Run(1)).To(Succeed())

			Expect(iface.WValid.Get()).To(BeFalse())
			Expect(iface.BReady.Get()).To(BeFalse())

			runUntilIdle(100)

			Expect(master.WriteResponses()).To(Equal(2))
			Expect(slave.Peek(0)).To(Equal(uint64(0)))
			Expect(slave.Peek(4)).To(Equal(uint64(2)))
			Expect(slave.Peek(8)).To(Equal(uint64(3)))
		})

		DescribeTable("should reject transactions that do not fit",
			func(t lite.WriteTransaction) {
				_, err := master.AddWriteTransaction(t)
				Expect(err).To(HaveOccurred())
				Expect(master.Idle()).To(BeTrue())
			},
			Entry("wide address", lite.WriteTransaction{Address: 1 << 32}),
			Entry("wide data", lite.WriteTransaction{Data: 1 << 32}),
			Entry("wide strobe", lite.WriteTransaction{Strobe: 0x10}),
			Entry("wide protection", lite.WriteTransaction{Prot: 8}),
			Entry("negative delay", lite.WriteTransaction{DataDelay: -1}),
		)

		It("should reject a read with a negative delay", func() {
			_, err := master.AddReadTransaction(lite.ReadTransaction{
				AddressDelay: -2,
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Context("with a slave at a fixed range", func() {
		BeforeEach(func() {
			build(lite.MakeSlaveBuilder().
				WithAddressRange(0x1000, 0x100).
				WithLatency(2))
		})

		It("should report decode and alignment errors", func() {
			_, err := master.AddWriteTransaction(lite.WriteTransaction{
				Address: 0x2000, Data: 1, Strobe: 0xf,
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = master.AddReadTransaction(lite.ReadTransaction{Address: 0x1002})
			Expect(err).NotTo(HaveOccurred())
			_, err = master.AddReadTransaction(lite.ReadTransaction{Address: 0x10fc})
			Expect(err).NotTo(HaveOccurred())

			runUntilIdle(100)

			w, _ := master.PopWriteResponse()
			Expect(w.Resp).To(Equal(lite.DECERR))

			r, _ := master.PopReadResponse()
			Expect(r.Resp).To(Equal(lite.SLVERR))
			r, _ = master.PopReadResponse()
			Expect(r.Resp).To(Equal(lite.OKAY))
			Expect(r.Resp.String()).To(Equal("OKAY"))
		})
	})

	Context("with a slave that stalls at random", func() {
		BeforeEach(func() {
			build(lite.MakeSlaveBuilder().
				WithReadyProbability(0.3).
				WithLatency(1))
		})

		It("should follow the handshake rules", func() {
			rng := b.Rand("Traffic")

			for i := uint64(0); i < 20; i++ {
				_, err := master.AddWriteTransaction(lite.WriteTransaction{
					Address:            8 * i,
					Data:               i * 3,
					Strobe:             0xf,
					AddressDelay:       rng.Intn(4),
					DataDelay:          rng.Intn(4),
					ResponseReadyDelay: rng.Intn(4),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			runUntilIdle(2000)
			Expect(master.WriteResponses()).To(Equal(20))

			for i := uint64(0); i < 20; i++ {
				_, err := master.AddReadTransaction(lite.ReadTransaction{
					Address:      8 * i,
					AddressDelay: rng.Intn(4),
					DataDelay:    rng.Intn(4),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			runUntilIdle(2000)

			for i := uint64(0); i < 20; i++ {
				r, ok := master.PopReadResponse()
				Expect(ok).To(BeTrue())
				Expect(r.Address).To(Equal(8 * i))
				Expect(r.Data).To(Equal(i * 3))
			}

			Expect(checker.Violations()).To(BeEmpty())
		})
	})
})

var _ = Describe("Builders", func() {
	DescribeTable("should reject unsupported lite interfaces",
		func(b lite.InterfaceBuilder) {
			_, err := b.Build("L")
			Expect(err).To(HaveOccurred())
		},
		Entry("16-bit data", lite.MakeInterfaceBuilder().WithDataWidth(16)),
		Entry("no address", lite.MakeInterfaceBuilder().WithAddrWidth(0)),
		Entry("wide address", lite.MakeInterfaceBuilder().WithAddrWidth(65)),
	)

	It("should build a 64-bit interface", func() {
		i, err := lite.MakeInterfaceBuilder().WithDataWidth(64).Build("L")
		Expect(err).NotTo(HaveOccurred())
		Expect(i.StrobeWidth()).To(Equal(8))
		Expect(i.Signals()).To(HaveLen(19))
	})

	DescribeTable("should reject unusable slaves",
		func(b lite.SlaveBuilder) {
			i, err := lite.MakeInterfaceBuilder().Build("L")
			Expect(err).NotTo(HaveOccurred())

			_, err = b.WithInterface(i).Build("Slave")
			Expect(err).To(HaveOccurred())
		},
		Entry("probability", lite.MakeSlaveBuilder().WithReadyProbability(1.5)),
		Entry("latency", lite.MakeSlaveBuilder().WithLatency(-1)),
		Entry("range", lite.MakeSlaveBuilder().WithAddressRange(0, 0)),
	)
})
