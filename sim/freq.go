package sim

import (
	"fmt"
	"math"
)

// VTimeInSec is a duration in the simulated world, in seconds. It is only
// used for reporting; the engine itself counts cycles.
type VTimeInSec float64

// Freq defines the type of frequency.
type Freq float64

// Defines the unit of frequency.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks.
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// CycleToSec converts a number of cycles to the simulated time that has
// passed since cycle 0.
func (f Freq) CycleToSec(cycle VTimeInCycle) VTimeInSec {
	return VTimeInSec(float64(cycle)) * f.Period()
}

// Cycle converts a simulated time to the number of cycles passed since time
// 0, rounded to the nearest cycle.
func (f Freq) Cycle(t VTimeInSec) VTimeInCycle {
	if math.IsNaN(float64(t)) || t < 0 {
		panic("invalid time")
	}

	return VTimeInCycle(math.Round(float64(t) * float64(f)))
}

func (f Freq) String() string {
	switch {
	case f >= GHz:
		return fmt.Sprintf("%gGHz", float64(f/GHz))
	case f >= MHz:
		return fmt.Sprintf("%gMHz", float64(f/MHz))
	case f >= KHz:
		return fmt.Sprintf("%gKHz", float64(f/KHz))
	default:
		return fmt.Sprintf("%gHz", float64(f))
	}
}
