package lite

import "github.com/sarchlab/axisim/sim"

type channelState int

const (
	channelIdle channelState = iota
	channelDelay
	channelSend
)

func (s channelState) String() string {
	switch s {
	case channelIdle:
		return "Idle"
	case channelDelay:
		return "Delay"
	case channelSend:
		return "Send"
	}

	return "Unknown"
}

// A channel is the master side of one handshake. The master drives one flag
// of the pair: VALID on the address and write data channels, READY on the
// response and read data channels. The channel waits out its delay, raises
// the flag, and lowers it again after the handshake.
type channel struct {
	name  string
	drive *sim.Signal[bool]
	other *sim.Signal[bool]

	state channelState
	delay int

	load        func()
	onHandshake func()
}

// start begins a new transfer after the given number of cycles.
func (c *channel) start(delay int) {
	if delay <= 0 {
		c.assert()
		return
	}

	c.state = channelDelay
	c.delay = delay
}

func (c *channel) assert() {
	if c.load != nil {
		c.load()
	}

	c.drive.Set(true)
	c.state = channelSend
}

// Tick advances the state machine by one edge.
func (c *channel) Tick() bool {
	switch c.state {
	case channelDelay:
		c.delay--
		if c.delay <= 0 {
			c.assert()
		}

		return true
	case channelSend:
		if !c.drive.Get() || !c.other.Get() {
			return false
		}

		c.drive.Set(false)
		c.state = channelIdle

		if c.onHandshake != nil {
			c.onHandshake()
		}

		return true
	}

	return false
}

func (c *channel) idle() bool {
	return c.state == channelIdle
}

func (c *channel) reset() {
	c.state = channelIdle
	c.delay = 0
	c.drive.Set(false)
}
