package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/axisim/axi/check"
	"github.com/sarchlab/axisim/axi/stream"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Send the scenario packets through a source, a buffer and a sink.",
	Long: "`stream` drives the scenario packets from a source into an " +
		"elastic buffer, and out to a sink that is ready at random. It " +
		"prints the packets the sink receives.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStream(opts, cmd.OutOrStdout())
	},
}

func runStream(o *options, out io.Writer) error {
	sc, err := o.loadScenario()
	if err != nil {
		return err
	}

	if sc.Stream == nil {
		return errors.New("the scenario has no stream section")
	}

	o.resolve(sc)

	ready, err := o.readyProbability(sc.Stream.ReadyProbability())
	if err != nil {
		return err
	}

	s, err := newSession(o, "Stream", out)
	if err != nil {
		return err
	}

	b := s.bench
	ifaceBuilder := stream.MakeInterfaceBuilder().
		WithBusWidth(sc.Stream.BusWidth).
		WithLast().
		WithKeep()

	up, err := ifaceBuilder.Build("Stream.Up")
	if err != nil {
		return err
	}

	down, err := ifaceBuilder.Build("Stream.Down")
	if err != nil {
		return err
	}

	source := stream.MakeSourceBuilder().
		WithInterface(up).
		WithResetLine(b.ResetLine()).
		Build("Stream.Source")

	buffer, err := stream.MakeBufferBuilder().
		WithUpstream(up).
		WithDownstream(down).
		WithResetLine(b.ResetLine()).
		Build("Stream.Buffer")
	if err != nil {
		return err
	}

	sink := stream.MakeSinkBuilder().
		WithInterface(down).
		WithResetLine(b.ResetLine()).
		WithRand(b.Rand("Sink")).
		WithReadyProbability(ready).
		WithValidityCapture().
		Build("Stream.Sink")

	checker := check.ForStream(down)
	b.AcceptHook(checker)

	s.attach([]string{"packet"}, up, down, source, buffer, sink)

	err = source.Add(sc.Stream.StreamPackets(), sc.Stream.IncompleteLast)
	if err != nil {
		return err
	}

	_, err = s.run(func() bool {
		return source.Idle() && buffer.Depth() == 0 && !down.TValid.Get()
	})
	if err != nil {
		return err
	}

	for i, p := range sink.CompletedPacketsWithValidity() {
		fmt.Fprintf(out, "packet %d: %v\n", i, formatPacket(p))
	}

	if open := sink.CurrentPacket(); len(open) > 0 {
		fmt.Fprintf(out, "open packet: %v\n", open)
	}

	s.finish()

	return violationsError(checker)
}

func formatPacket(p stream.Packet) []string {
	words := make([]string, len(p))
	for i, w := range p {
		if w.Present {
			words[i] = fmt.Sprintf("%#x", w.Data)
		} else {
			words[i] = "-"
		}
	}

	return words
}

func violationsError(c *check.Checker) error {
	vs := c.Violations()
	if len(vs) == 0 {
		return nil
	}

	return errors.Errorf("%d handshake violations, first: %s", len(vs), vs[0])
}
