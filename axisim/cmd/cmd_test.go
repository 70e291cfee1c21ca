package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/sarchlab/axisim/datarecording"
	"github.com/sarchlab/axisim/scenario"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

func newTestOptions() (*options, *pflag.FlagSet) {
	o := &options{}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.bindFlags(flags)
	o.logLevel = "error"

	return o, flags
}

var _ = Describe("Options", func() {
	AfterEach(func() {
		os.Unsetenv("AXISIM_SEED")
		os.Unsetenv("AXISIM_CYCLES")
		os.Unsetenv("AXISIM_LOG_LEVEL")
	})

	It("should take defaults from the environment", func() {
		o, flags := newTestOptions()
		os.Setenv("AXISIM_SEED", "42")
		os.Setenv("AXISIM_CYCLES", "77")
		os.Setenv("AXISIM_LOG_LEVEL", "debug")

		Expect(o.applyEnv(flags)).To(Succeed())

		Expect(o.seed).To(Equal(int64(42)))
		Expect(o.cycles).To(Equal(uint64(77)))
		Expect(o.logLevel).To(Equal("debug"))
	})

	It("should prefer flags over the environment", func() {
		o, flags := newTestOptions()
		os.Setenv("AXISIM_SEED", "42")
		Expect(flags.Set("seed", "3")).To(Succeed())

		Expect(o.applyEnv(flags)).To(Succeed())

		Expect(o.seed).To(Equal(int64(3)))
	})

	It("should reject malformed environment values", func() {
		o, flags := newTestOptions()
		os.Setenv("AXISIM_CYCLES", "many")

		Expect(o.applyEnv(flags)).To(MatchError(ContainSubstring("AXISIM_CYCLES")))
	})

	It("should let the scenario fill unset values", func() {
		o, flags := newTestOptions()
		Expect(flags.Set("cycles", "9")).To(Succeed())
		Expect(o.applyEnv(flags)).To(Succeed())

		o.resolve(&scenario.Scenario{Seed: 8, Cycles: 500})

		Expect(o.seed).To(Equal(int64(8)))
		Expect(o.cycles).To(Equal(uint64(9)))
	})

	It("should turn on the monitor when asked to open it", func() {
		o, flags := newTestOptions()
		Expect(flags.Set("open", "true")).To(Succeed())

		Expect(o.applyEnv(flags)).To(Succeed())

		Expect(o.monitor).To(BeTrue())
	})

	It("should check the ready override", func() {
		o, _ := newTestOptions()

		Expect(o.readyProbability(0.3)).To(Equal(0.3))

		o.ready = 0.6
		Expect(o.readyProbability(0.3)).To(Equal(0.6))

		o.ready = 1.5
		_, err := o.readyProbability(0.3)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("should parse log levels",
		func(s string, level slog.Level) {
			l, err := parseLogLevel(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(l).To(Equal(level))
		},
		Entry("trace", "TRACE", sim.LevelTrace),
		Entry("debug", "debug", slog.LevelDebug),
		Entry("info", "info", slog.LevelInfo),
		Entry("warn", "warn", slog.LevelWarn),
	)

	It("should reject unknown log levels", func() {
		_, err := parseLogLevel("loud")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Commands", func() {
	var (
		o   *options
		out *bytes.Buffer
	)

	BeforeEach(func() {
		o, _ = newTestOptions()
		out = new(bytes.Buffer)
	})

	It("should run the stream scenario", func() {
		Expect(runStream(o, out)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("0x1e"))
		Expect(out.String()).To(ContainSubstring("packet 2:"))
		Expect(out.String()).To(ContainSubstring("finished at cycle"))
	})

	It("should run the lite scenario", func() {
		Expect(runLite(o, out)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("write 0x14: OKAY"))
		Expect(out.String()).To(ContainSubstring("read 0x2000: DECERR"))
		Expect(out.String()).To(ContainSubstring("write: 2 completed"))
	})

	It("should refuse a scenario without the needed section", func() {
		path := filepath.Join(GinkgoT().TempDir(), "s.yaml")
		Expect(os.WriteFile(path, []byte("stream:\n  packets: [[1]]\n"), 0o600)).
			To(Succeed())
		o.scenario = path

		Expect(runLite(o, out)).To(MatchError(ContainSubstring("no lite section")))
	})

	It("should record traces and signal changes", func() {
		o.record = filepath.Join(GinkgoT().TempDir(), "run")

		Expect(runStream(o, out)).To(Succeed())

		reader := datarecording.NewReader(o.record + ".sqlite3")
		defer reader.Close()

		reader.MapTable(tracing.SignalTable, tracing.SignalChange{})
		reader.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})

		_, changes, err := reader.Query(context.Background(),
			tracing.SignalTable, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(changes).To(BeNumerically(">", 0))

		rows, _, err := reader.Query(context.Background(),
			datarecording.ExecInfoTable, datarecording.QueryParams{
				Where: "Property = ?",
				Args:  []any{"Seed"},
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
	})
})
