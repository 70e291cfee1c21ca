package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/axisim/axi/check"
	"github.com/sarchlab/axisim/axi/lite"
)

var liteCmd = &cobra.Command{
	Use:   "lite",
	Short: "Run the scenario transactions from a master against a slave.",
	Long: "`lite` issues the scenario writes and reads from an AXI4-Lite " +
		"master to a register-file slave that is ready at random, and prints " +
		"every response.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLite(opts, cmd.OutOrStdout())
	},
}

func runLite(o *options, out io.Writer) error {
	sc, err := o.loadScenario()
	if err != nil {
		return err
	}

	if sc.Lite == nil {
		return errors.New("the scenario has no lite section")
	}

	o.resolve(sc)

	ready, err := o.readyProbability(sc.Lite.ReadyProbability())
	if err != nil {
		return err
	}

	s, err := newSession(o, "Lite", out)
	if err != nil {
		return err
	}

	b := s.bench

	iface, err := lite.MakeInterfaceBuilder().
		WithDataWidth(sc.Lite.DataWidth).
		WithAddrWidth(sc.Lite.AddrWidth).
		Build("Lite.Bus")
	if err != nil {
		return err
	}

	master := lite.MakeMasterBuilder().
		WithInterface(iface).
		WithResetLine(b.ResetLine()).
		Build("Lite.Master")

	slave, err := lite.MakeSlaveBuilder().
		WithInterface(iface).
		WithResetLine(b.ResetLine()).
		WithRand(b.Rand("Slave")).
		WithReadyProbability(ready).
		WithLatency(sc.Lite.Latency).
		WithAddressRange(sc.Lite.Base, sc.Lite.Size).
		Build("Lite.Slave")
	if err != nil {
		return err
	}

	checker := check.ForLite(iface)
	b.AcceptHook(checker)

	s.attach([]string{"write", "read"}, iface, master, slave)

	for _, t := range sc.Lite.WriteTransactions() {
		if _, err := master.AddWriteTransaction(t); err != nil {
			return err
		}
	}

	for _, t := range sc.Lite.ReadTransactions() {
		if _, err := master.AddReadTransaction(t); err != nil {
			return err
		}
	}

	if _, err := s.run(master.Idle); err != nil {
		return err
	}

	for {
		r, ok := master.PopWriteResponse()
		if !ok {
			break
		}

		fmt.Fprintf(out, "write %#x: %s\n", r.Address, r.Resp)
	}

	for {
		r, ok := master.PopReadResponse()
		if !ok {
			break
		}

		fmt.Fprintf(out, "read %#x: %s %#x\n", r.Address, r.Resp, r.Data)
	}

	s.finish()

	return violationsError(checker)
}
