package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/axisim/bench"
	"github.com/sarchlab/axisim/sim"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// SetFinished sets the number of finished elements.
func (b *ProgressBar) SetFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished = amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// CycleProgress is a bench hook that moves a progress bar along with the
// clock.
type CycleProgress struct {
	Bar *ProgressBar
}

// Func sets the finished count to the sampled cycle.
func (p *CycleProgress) Func(ctx sim.HookCtx) {
	if ctx.Pos != bench.HookPosCycleSampled {
		return
	}

	p.Bar.SetFinished(ctx.Item.(uint64))
}
