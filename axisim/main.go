// Command axisim runs AXI bus-functional models on a cycle-driven bench.
package main

import "github.com/sarchlab/axisim/axisim/cmd"

func main() {
	cmd.Execute()
}
