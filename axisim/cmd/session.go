package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/browser"

	"github.com/sarchlab/axisim/bench"
	"github.com/sarchlab/axisim/datarecording"
	"github.com/sarchlab/axisim/monitoring"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

// A session is one bench run with the logging, recording and monitoring the
// options ask for.
type session struct {
	opts   *options
	out    io.Writer
	logger *slog.Logger
	bench  *bench.Bench

	recorder datarecording.DataRecorder
	exec     *datarecording.ExecRecorder
	dbTracer *tracing.DBTracer
	kinds    []string
	latency  map[string]*tracing.AverageTimeTracer
	steps    *tracing.StepCountTracer

	monitor *monitoring.Monitor
	bar     *monitoring.ProgressBar
}

func newSession(o *options, name string, out io.Writer) (*session, error) {
	level, err := parseLogLevel(o.logLevel)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level}))

	b := bench.MakeBuilder().
		WithSeed(o.seed).
		WithLogger(logger).
		Build(name)

	if level <= sim.LevelTrace {
		b.Engine().AcceptHook(sim.NewEventLogger(logger))
	}

	s := &session{
		opts:    o,
		out:     out,
		logger:  logger,
		bench:   b,
		latency: make(map[string]*tracing.AverageTimeTracer),
	}

	if o.record != "" {
		path := o.record
		if path == autoRecord {
			path = ""
		}

		s.recorder = datarecording.New(path)
		s.exec = datarecording.NewExecRecorder(s.recorder)
		s.exec.Start()
		s.exec.Record("Seed", strconv.FormatInt(o.seed, 10))
		s.exec.Record("Scenario", o.scenario)
		s.dbTracer = tracing.NewDBTracer(b, s.recorder)
	}

	return s, nil
}

// attach registers the components to the bench and hooks every tracer and
// monitor to them. The kinds are the task kinds to report latencies for.
func (s *session) attach(kinds []string, items ...any) {
	s.bench.Register(items...)

	s.kinds = kinds
	s.steps = tracing.NewStepCountTracer(func(tracing.Task) bool { return true })

	for _, kind := range kinds {
		s.latency[kind] = tracing.NewAverageTimeTracer(
			s.bench, tracing.KindFilter(kind))
	}

	for _, c := range s.bench.Components() {
		domain, ok := c.(tracing.NamedHookable)
		if !ok {
			continue
		}

		for _, kind := range kinds {
			tracing.CollectTrace(domain, s.latency[kind])
		}

		tracing.CollectTrace(domain, s.steps)

		if s.dbTracer != nil {
			tracing.CollectTrace(domain, s.dbTracer)
		}
	}

	if s.recorder != nil {
		s.bench.AcceptHook(tracing.NewSignalTracer(
			s.recorder, bench.HookPosCycleSampled, s.bench.Signals()...))
	}

	if s.opts.monitor {
		s.startMonitor()
	}
}

func (s *session) startMonitor() {
	s.monitor = monitoring.NewMonitor().WithPortNumber(s.opts.port)
	s.monitor.RegisterBench(s.bench)

	s.bar = s.monitor.CreateProgressBar(s.bench.Name(), s.opts.cycles)
	s.bench.AcceptHook(&monitoring.CycleProgress{Bar: s.bar})

	url := s.monitor.StartServer()

	if s.opts.open {
		if err := browser.OpenURL(url); err != nil {
			s.logger.Warn("cannot open browser", "url", url, "error", err)
		}
	}
}

// run advances the bench until done holds or the cycle budget runs out.
func (s *session) run(done func() bool) (bool, error) {
	s.logger.Info("run started",
		"seed", s.opts.seed, "max_cycles", s.opts.cycles)

	ok, err := s.bench.RunUntil(done, s.opts.cycles)
	if err != nil {
		return false, err
	}

	if !ok {
		s.logger.Warn("cycle budget exhausted", "cycles", s.bench.Cycle())
	}

	return ok, nil
}

// finish reports the latencies and writes out the recording.
func (s *session) finish() {
	for _, kind := range s.kinds {
		t := s.latency[kind]
		fmt.Fprintf(s.out, "%s: %d completed, %.2f cycles on average\n",
			kind, t.TotalCount(), t.AverageTime())
	}

	for _, step := range s.steps.GetStepNames() {
		fmt.Fprintf(s.out, "step %s: %d times in %d tasks\n",
			step, s.steps.GetStepCount(step), s.steps.GetTaskCount(step))
	}

	fmt.Fprintf(s.out, "finished at cycle %d\n", s.bench.Cycle())

	if s.monitor != nil {
		s.monitor.CompleteProgressBar(s.bar)
	}

	if s.recorder != nil {
		s.exec.Record("Cycles", strconv.FormatUint(s.bench.Cycle(), 10))
		s.exec.End()
		s.dbTracer.Terminate()
	}
}
