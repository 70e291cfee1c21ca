package sim

import "fmt"

// SignalValue lists the types a Signal can carry.
type SignalValue interface {
	bool | uint8 | uint16 | uint32 | uint64
}

// A Latch is a clocked storage element. A harness commits all latches at the
// clock edge, after every component has decided its next outputs.
type Latch interface {
	Named

	// Commit makes the staged value visible. It returns true if the visible
	// value changed.
	Commit() bool

	// Width returns the number of bits of the latch.
	Width() int

	// Sample returns the visible value as an unsigned integer.
	Sample() uint64
}

// A Signal is a named wire with register semantics. Readers always see the
// value latched at the last clock edge (Get). Sequential logic stages the value
// for the next cycle with Set; the value becomes visible when the harness
// calls Commit. A signal that is not Set holds its value across edges.
//
// Combinational logic uses Drive, which changes the visible value at once.
type Signal[T SignalValue] struct {
	name  string
	width int

	cur    T
	next   T
	staged bool
}

// NewSignal creates a signal with the given bit width and initial value.
func NewSignal[T SignalValue](name string, width int, init T) *Signal[T] {
	NameMustBeValid(name)

	if width <= 0 || width > 64 {
		panic(fmt.Sprintf("signal %s: width %d out of range", name, width))
	}

	s := &Signal[T]{name: name, width: width}
	s.mustFit(init)
	s.cur = init
	s.next = init

	return s
}

// NewBit creates a single-bit signal that starts deasserted.
func NewBit(name string) *Signal[bool] {
	return NewSignal(name, 1, false)
}

// NewBits creates a multi-bit signal that starts at zero.
func NewBits(name string, width int) *Signal[uint64] {
	return NewSignal[uint64](name, width, 0)
}

// Name returns the name of the signal.
func (s *Signal[T]) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal[T]) Width() int {
	return s.width
}

// Get returns the value visible in the current cycle.
func (s *Signal[T]) Get() T {
	return s.cur
}

// Set stages v to become visible after the next clock edge.
func (s *Signal[T]) Set(v T) {
	s.mustFit(v)
	s.next = v
	s.staged = true
}

// Next returns the value that will be visible after the next clock edge.
func (s *Signal[T]) Next() T {
	return s.next
}

// Commit makes the staged value visible.
func (s *Signal[T]) Commit() bool {
	if !s.staged {
		return false
	}

	s.staged = false
	changed := s.cur != s.next
	s.cur = s.next

	return changed
}

// Drive assigns the visible value immediately. It returns true if the visible
// value changed.
func (s *Signal[T]) Drive(v T) bool {
	s.mustFit(v)

	changed := s.cur != v
	s.cur = v
	s.next = v
	s.staged = false

	return changed
}

// Sample returns the visible value as an unsigned integer; true is 1.
func (s *Signal[T]) Sample() uint64 {
	return toUint64(s.cur)
}

func (s *Signal[T]) mustFit(v T) {
	if s.width == 64 {
		return
	}

	if toUint64(v)>>uint(s.width) != 0 {
		panic(fmt.Sprintf(
			"value %#x does not fit in %d-bit signal %s", toUint64(v), s.width, s.name))
	}
}

func toUint64[T SignalValue](v T) uint64 {
	switch x := any(v).(type) {
	case bool:
		if x {
			return 1
		}

		return 0
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	}

	panic("unreachable")
}
