package scenario_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axisim/axi/lite"
	"github.com/sarchlab/axisim/axi/stream"
	"github.com/sarchlab/axisim/scenario"
)

var _ = Describe("Scenario", func() {
	It("should read packets with absent words", func() {
		s, err := scenario.Parse([]byte(`
seed: 5
stream:
  incomplete_last: true
  packets:
    - [10, 20, null, 30]
    - []
`))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Seed).To(Equal(int64(5)))
		Expect(s.Lite).To(BeNil())
		Expect(s.Stream.BusWidth).To(Equal(4))
		Expect(s.Stream.IncompleteLast).To(BeTrue())
		Expect(s.Stream.ReadyProbability()).To(Equal(1.0))
		Expect(s.Stream.StreamPackets()).To(Equal([]stream.Packet{
			{stream.W(10), stream.W(20), stream.Gap, stream.W(30)},
			{},
		}))
	})

	It("should read lite transactions", func() {
		s, err := scenario.Parse([]byte(`
lite:
  data_width: 64
  ready: 0.5
  writes:
    - {address: 0x10, data: 0xff, address_delay: 2, response_ready_delay: 5}
    - {address: 0x18, data: 1, strobe: 0x1}
  reads:
    - {address: 0x10, data_delay: 3}
`))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Lite.AddrWidth).To(Equal(32))
		Expect(s.Lite.Size).To(Equal(uint64(4096)))
		Expect(s.Lite.ReadyProbability()).To(Equal(0.5))
		Expect(s.Lite.WriteTransactions()).To(Equal([]lite.WriteTransaction{
			{Address: 0x10, Data: 0xff, Strobe: 0xff, AddressDelay: 2, ResponseReadyDelay: 5},
			{Address: 0x18, Data: 1, Strobe: 0x1},
		}))
		Expect(s.Lite.ReadTransactions()).To(Equal([]lite.ReadTransaction{
			{Address: 0x10, DataDelay: 3},
		}))
	})

	DescribeTable("should reject bad scenarios",
		func(text, message string) {
			_, err := scenario.Parse([]byte(text))
			Expect(err).To(MatchError(ContainSubstring(message)))
		},
		Entry("empty", "name: nothing\n", "neither"),
		Entry("unknown key", "stream:\n  speed: 3\n", "speed"),
		Entry("probability", "stream:\n  ready: 2\n", "not in [0, 1]"),
		Entry("latency", "lite:\n  latency: -1\n", "negative latency"),
		Entry("word type", "stream:\n  packets: [[x]]\n", "decoding"),
	)

	It("should load files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "s.yaml")
		Expect(os.WriteFile(path, []byte("stream:\n  packets: [[1]]\n"), 0o600)).
			To(Succeed())

		s, err := scenario.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Stream.Packets).To(HaveLen(1))

		_, err = scenario.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(MatchError(ContainSubstring("reading scenario")))
	})

	It("should provide a default scenario", func() {
		s := scenario.Default()

		Expect(s.Stream.StreamPackets()).To(HaveLen(3))
		Expect(s.Lite.WriteTransactions()[0].Strobe).To(Equal(uint64(0xf)))
		Expect(s.Lite.ReadTransactions()).To(HaveLen(2))
	})
})
