package stream_test

import (
	"bytes"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axisim/axi/stream"
	"github.com/sarchlab/axisim/bench"
)

var _ = Describe("Playback", func() {
	var (
		b     *bench.Bench
		iface *stream.Interface
	)

	BeforeEach(func() {
		var err error

		b = bench.MakeBuilder().Build("Bench")
		iface, err = stream.MakeInterfaceBuilder().
			WithBusWidth(1).
			WithLast().
			Build("Bench.Play")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should flatten packets into tables", func() {
		p, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets([]stream.Packet{
				{stream.W(0xab), stream.Gap},
				{},
				stream.Words(0x01),
			}, false).
			WithFiller(0xee).
			Build("Bench.Playback")
		Expect(err).NotTo(HaveOccurred())

		data, valid, last := p.Tables()
		Expect(data).To(Equal([]uint64{0xab, 0xee, 0x01}))
		Expect(valid).To(Equal([]bool{true, false, true}))
		Expect(last).To(Equal([]bool{true, true, true}))
	})

	It("should write the tables as a hex image", func() {
		p, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets([]stream.Packet{
				{stream.W(0xab), stream.Gap},
				stream.Words(0x01, 0x02),
			}, true).
			Build("Bench.Playback")
		Expect(err).NotTo(HaveOccurred())

		buf := new(bytes.Buffer)
		Expect(p.WriteMemH(buf)).To(Succeed())

		Expect(buf.String()).To(Equal(
			"// Bench.Playback: {last, valid} data[7:0]\n" +
				"3ab\n" +
				"200\n" +
				"101\n" +
				"102\n"))
	})

	It("should refuse an empty table", func() {
		_, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets([]stream.Packet{{}, {}}, false).
			Build("Bench.Playback")

		Expect(err).To(MatchError(ContainSubstring("no words to play")))
	})

	It("should refuse values wider than TDATA", func() {
		_, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets([]stream.Packet{stream.Words(0x100)}, false).
			Build("Bench.Playback")
		Expect(err).To(HaveOccurred())

		_, err = stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets([]stream.Packet{stream.Words(1)}, false).
			WithFiller(0x100).
			Build("Bench.Playback")
		Expect(err).To(HaveOccurred())
	})

	It("should hold TLAST through a trailing absent word", func() {
		p, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets([]stream.Packet{
				{stream.W(1), stream.Gap, stream.Gap},
				{stream.Gap},
				{stream.W(2), stream.Gap},
				{stream.Gap},
			}, false).
			Build("Bench.Playback")
		Expect(err).NotTo(HaveOccurred())

		_, valid, last := p.Tables()
		Expect(valid).To(Equal(
			[]bool{true, false, false, false, true, false, false}))
		Expect(last).To(Equal(
			[]bool{true, false, false, false, true, true, true}))
	})

	It("should rewind on reset", func() {
		p, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithResetLine(b.ResetLine()).
			WithPackets([]stream.Packet{stream.Words(4, 5)}, false).
			Build("Bench.Playback")
		Expect(err).NotTo(HaveOccurred())

		sink := stream.MakeSinkBuilder().WithInterface(iface).Build("Bench.Sink")
		b.Register(iface, p, sink)

		done, err := b.RunUntil(p.Done, 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeTrue())
		Expect(b.Run(3)).To(Succeed())

		b.AssertReset(1)
		Expect(b.Run(1)).To(Succeed())
		Expect(p.Done()).To(BeFalse())

		Expect(b.Run(10)).To(Succeed())
		Expect(sink.CompletedPackets()).To(Equal([][]uint64{{4, 5}, {4, 5}}))
	})

	It("should drive the same waveform as a source", func() {
		srcIface, err := stream.MakeInterfaceBuilder().
			WithBusWidth(1).
			WithLast().
			Build("Bench.Src")
		Expect(err).NotTo(HaveOccurred())

		packets := []stream.Packet{
			{stream.W(1), stream.Gap, stream.W(2)},
			{},
			{stream.Gap},
			{stream.W(3), stream.Gap, stream.Gap},
			stream.Words(4, 5, 6),
		}

		p, err := stream.MakePlaybackBuilder().
			WithInterface(iface).
			WithPackets(packets, true).
			Build("Bench.Playback")
		Expect(err).NotTo(HaveOccurred())

		source := stream.MakeSourceBuilder().
			WithInterface(srcIface).
			Build("Bench.Source")
		Expect(source.Add(packets, true)).To(Succeed())

		playSink := stream.MakeSinkBuilder().
			WithInterface(iface).
			WithRand(rand.New(rand.NewSource(9))).
			WithReadyProbability(0.5).
			Build("Bench.PlaySink")
		srcSink := stream.MakeSinkBuilder().
			WithInterface(srcIface).
			WithRand(rand.New(rand.NewSource(9))).
			WithReadyProbability(0.5).
			Build("Bench.SrcSink")

		playWave := &beatRecorder{iface: iface}
		srcWave := &beatRecorder{iface: srcIface}
		b.AcceptHook(playWave)
		b.AcceptHook(srcWave)
		b.Register(iface, srcIface, p, source, playSink, srcSink)

		Expect(b.Run(60)).To(Succeed())

		Expect(p.Done()).To(BeTrue())
		Expect(source.Idle()).To(BeTrue())
		Expect(playWave.beats).To(Equal(srcWave.beats))
		Expect(playSink.CompletedPackets()).To(Equal(srcSink.CompletedPackets()))
		Expect(playSink.CurrentPacket()).To(Equal([]uint64{4, 5, 6}))
	})
})

var _ = Describe("InterfaceBuilder", func() {
	It("should build the requested fields", func() {
		i, err := stream.MakeInterfaceBuilder().
			WithBusWidth(8).
			WithKeep().
			WithID(4).
			WithUser(64).
			Build("S")
		Expect(err).NotTo(HaveOccurred())

		Expect(i.Has(stream.FieldKeep)).To(BeTrue())
		Expect(i.Has(stream.FieldLast)).To(BeFalse())
		Expect(i.TLast).To(BeNil())
		Expect(i.TID.Width()).To(Equal(4))
		Expect(i.DataMask()).To(Equal(^uint64(0)))
		Expect(i.ByteMask()).To(Equal(uint64(0xff)))
		Expect(i.Signals()).To(HaveLen(6))
	})

	DescribeTable("should reject unsupported widths",
		func(b stream.InterfaceBuilder) {
			_, err := b.Build("S")
			Expect(err).To(HaveOccurred())
		},
		Entry("empty bus", stream.MakeInterfaceBuilder().WithBusWidth(0)),
		Entry("wide bus", stream.MakeInterfaceBuilder().WithBusWidth(9)),
		Entry("empty TID", stream.MakeInterfaceBuilder().WithID(0)),
		Entry("wide TDEST", stream.MakeInterfaceBuilder().WithDest(9)),
		Entry("wide TUSER", stream.MakeInterfaceBuilder().WithUser(65)),
	)
})
