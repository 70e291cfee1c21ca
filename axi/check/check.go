// Package check watches valid/ready handshakes and reports protocol
// violations: a valid flag withdrawn, or its payload changed, before the
// handshake.
package check

import (
	"fmt"

	"github.com/sarchlab/axisim/sim"
)

// A Violation is one broken handshake rule.
type Violation struct {
	Cycle   uint64
	Channel string
	Reason  string
}

func (v Violation) String() string {
	return fmt.Sprintf("cycle %d: %s: %s", v.Cycle, v.Channel, v.Reason)
}

// Channel follows one valid/ready pair and the payload that goes with it.
type Channel struct {
	name    string
	valid   *sim.Signal[bool]
	ready   *sim.Signal[bool]
	payload []sim.Latch

	waiting bool
	held    []uint64
}

func (c *Channel) sample(cycle uint64) []Violation {
	valid := c.valid.Get()
	ready := c.ready.Get()
	payload := make([]uint64, len(c.payload))

	for i, p := range c.payload {
		payload[i] = p.Sample()
	}

	var violations []Violation

	if c.waiting {
		if !valid {
			violations = append(violations, Violation{
				Cycle: cycle, Channel: c.name,
				Reason: "valid withdrawn before handshake",
			})
		} else {
			for i, v := range payload {
				if v != c.held[i] {
					violations = append(violations, Violation{
						Cycle: cycle, Channel: c.name,
						Reason: fmt.Sprintf(
							"%s changed from %#x to %#x before handshake",
							c.payload[i].Name(), c.held[i], v),
					})
				}
			}
		}
	}

	c.waiting = valid && !ready
	c.held = payload

	return violations
}

// Checker is a hook that checks its channels every time the bench samples a
// cycle.
type Checker struct {
	pos        *sim.HookPos
	channels   []*Channel
	violations []Violation
}

// NewChecker creates a checker that reacts to hooks at pos. The hook item
// must be the cycle number.
func NewChecker(pos *sim.HookPos) *Checker {
	return &Checker{pos: pos}
}

// AddChannel starts following a valid/ready pair.
func (c *Checker) AddChannel(
	name string,
	valid, ready *sim.Signal[bool],
	payload ...sim.Latch,
) *Channel {
	ch := &Channel{
		name:    name,
		valid:   valid,
		ready:   ready,
		payload: payload,
	}
	c.channels = append(c.channels, ch)

	return ch
}

// Func checks every channel.
func (c *Checker) Func(ctx sim.HookCtx) {
	if ctx.Pos != c.pos {
		return
	}

	cycle := ctx.Item.(uint64)
	for _, ch := range c.channels {
		c.violations = append(c.violations, ch.sample(cycle)...)
	}
}

// Violations returns the violations found so far.
func (c *Checker) Violations() []Violation {
	return c.violations
}
