package stream_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axisim/axi/check"
	"github.com/sarchlab/axisim/axi/stream"
	"github.com/sarchlab/axisim/bench"
	"github.com/sarchlab/axisim/sim"
)

// readyToggler drives the upstream TREADY of a passive buffer at random.
type readyToggler struct {
	ready *sim.Signal[bool]
	rng   *rand.Rand
}

func (t *readyToggler) Tick() bool {
	t.ready.Set(t.rng.Intn(2) == 0)
	return true
}

var _ = Describe("Buffer", func() {
	var (
		b           *bench.Bench
		upBuilder   stream.InterfaceBuilder
		downBuilder stream.InterfaceBuilder
		mode        stream.Mode
		up, down    *stream.Interface
		source      *stream.Source
		buffer      *stream.Buffer
		sink        *stream.Sink
		checker     *check.Checker
	)

	BeforeEach(func() {
		upBuilder = stream.MakeInterfaceBuilder().WithLast()
		downBuilder = stream.MakeInterfaceBuilder().WithLast()
		mode = stream.Active
	})

	build := func(seed int64, readyProbability float64) {
		var err error

		b = bench.MakeBuilder().WithSeed(seed).Build("Bench")

		up, err = upBuilder.Build("Bench.Up")
		Expect(err).NotTo(HaveOccurred())
		down, err = downBuilder.Build("Bench.Down")
		Expect(err).NotTo(HaveOccurred())

		source = stream.MakeSourceBuilder().
			WithInterface(up).
			WithResetLine(b.ResetLine()).
			Build("Bench.Source")
		buffer, err = stream.MakeBufferBuilder().
			WithUpstream(up).
			WithDownstream(down).
			WithMode(mode).
			WithResetLine(b.ResetLine()).
			Build("Bench.Buffer")
		Expect(err).NotTo(HaveOccurred())
		sink = stream.MakeSinkBuilder().
			WithInterface(down).
			WithRand(b.Rand("Sink")).
			WithReadyProbability(readyProbability).
			Build("Bench.Sink")

		checker = check.ForStream(down)
		b.AcceptHook(checker)

		if mode == stream.Passive {
			b.Register(&readyToggler{ready: up.TReady, rng: b.Rand("Toggler")})
		}

		b.Register(up, down, source, buffer, sink)
	}

	randomPackets := func(seed int64) ([]stream.Packet, [][]uint64) {
		rng := rand.New(rand.NewSource(seed))
		packets := []stream.Packet{}
		expected := [][]uint64{}

		for p := 0; p < 30; p++ {
			packet := stream.Packet{}
			n := 1 + rng.Intn(6)

			for w := 0; w < n; w++ {
				if rng.Intn(4) == 0 {
					packet = append(packet, stream.Gap)
				}

				packet = append(packet, stream.W(uint64(rng.Intn(1<<16))))
			}

			packets = append(packets, packet)
			expected = append(expected, packet.Values())
		}

		return packets, expected
	}

	runToCompletion := func(packets []stream.Packet, expected [][]uint64) {
		Expect(source.Add(packets, false)).To(Succeed())

		done, err := b.RunUntil(func() bool {
			return len(sink.CompletedPackets()) == len(expected)
		}, 5000)
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeTrue())

		Expect(sink.CompletedPackets()).To(Equal(expected))
		Expect(checker.Violations()).To(BeEmpty())
	}

	It("should forward words in the cycle they arrive", func() {
		build(1, 1)

		Expect(source.Add([]stream.Packet{stream.Words(0xabc)}, false)).
			To(Succeed())

		_, err := b.RunUntil(func() bool { return up.TValid.Get() }, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(down.TValid.Get()).To(BeTrue())
		Expect(down.TData.Get()).To(Equal(uint64(0xabc)))
		Expect(down.TLast.Get()).To(BeTrue())
		Expect(buffer.Depth()).To(Equal(0))
	})

	It("should hold words while downstream stalls", func() {
		build(1, 0)

		Expect(source.Add([]stream.Packet{stream.Words(1, 2, 3, 4)}, false)).
			To(Succeed())
		Expect(b.Run(10)).To(Succeed())

		Expect(source.Idle()).To(BeTrue())
		Expect(buffer.Depth()).To(Equal(4))
		Expect(down.TValid.Get()).To(BeTrue())
		Expect(down.TData.Get()).To(Equal(uint64(1)))

		sink.SetReadyProbability(1)
		Expect(b.Run(10)).To(Succeed())

		Expect(buffer.Depth()).To(Equal(0))
		Expect(sink.CompletedPackets()).To(Equal([][]uint64{{1, 2, 3, 4}}))
		Expect(checker.Violations()).To(BeEmpty())
	})

	It("should empty on reset", func() {
		build(1, 0)

		Expect(source.Add([]stream.Packet{stream.Words(1, 2, 3)}, false)).
			To(Succeed())
		Expect(b.Run(6)).To(Succeed())
		Expect(buffer.Depth()).To(BeNumerically(">", 0))

		b.AssertReset(1)
		Expect(b.Run(2)).To(Succeed())

		Expect(buffer.Depth()).To(Equal(0))
		Expect(down.TValid.Get()).To(BeFalse())
	})

	It("should reject interfaces of different widths", func() {
		narrow, err := stream.MakeInterfaceBuilder().WithBusWidth(1).Build("Narrow")
		Expect(err).NotTo(HaveOccurred())
		wide, err := stream.MakeInterfaceBuilder().WithBusWidth(8).Build("Wide")
		Expect(err).NotTo(HaveOccurred())

		_, err = stream.MakeBufferBuilder().
			WithUpstream(narrow).
			WithDownstream(wide).
			Build("Buffer")

		Expect(err).To(HaveOccurred())
	})

	It("should carry TKEEP with the words it forwards and holds", func() {
		upBuilder = upBuilder.WithKeep()
		downBuilder = downBuilder.WithKeep()
		build(1, 0)

		Expect(source.Add([]stream.Packet{stream.Words(1, 2, 3)}, false)).
			To(Succeed())

		for i := 0; i < 10; i++ {
			Expect(b.Run(1)).To(Succeed())

			if down.TValid.Get() {
				Expect(down.TKeep.Get()).To(Equal(uint64(0xf)))
			}
		}

		Expect(buffer.Depth()).To(Equal(3))
		Expect(down.TValid.Get()).To(BeTrue())

		sink.SetReadyProbability(1)

		for i := 0; i < 6; i++ {
			if down.TValid.Get() {
				Expect(down.TKeep.Get()).To(Equal(uint64(0xf)))
			}

			Expect(b.Run(1)).To(Succeed())
		}

		Expect(sink.CompletedPackets()).To(Equal([][]uint64{{1, 2, 3}}))
	})

	It("should mark all bytes valid when upstream has no TSTRB", func() {
		downBuilder = downBuilder.WithStrobe().WithID(2)
		build(1, 0)

		Expect(source.Add([]stream.Packet{stream.Words(7)}, false)).
			To(Succeed())

		_, err := b.RunUntil(func() bool { return down.TValid.Get() }, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(down.TStrb.Get()).To(Equal(uint64(0xf)))
		Expect(down.TID.Get()).To(Equal(uint64(0)))
	})

	for _, seed := range []int64{1, 2, 3, 4, 5, 6, 7, 8} {
		It("should neither lose nor reorder words under random backpressure",
			func() {
				build(seed, 0.4)
				runToCompletion(randomPackets(seed))
			})
	}

	for _, seed := range []int64{1, 2, 3, 4, 5} {
		It("should neither lose nor reorder words in passive mode", func() {
			mode = stream.Passive
			build(seed, 0.6)
			runToCompletion(randomPackets(seed))
		})
	}
})
