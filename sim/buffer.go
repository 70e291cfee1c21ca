package sim

// HookPosBufPush marks when an element is pushed into the buffer.
var HookPosBufPush = &HookPos{Name: "BufPush"}

// HookPosBufPop marks when an element is popped from the buffer.
var HookPosBufPop = &HookPos{Name: "BufPop"}

// Unbounded is the capacity reported by buffers that never fill up.
const Unbounded = -1

// A Buffer is a FIFO queue for anything.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e any)
	Pop() any
	Peek() any
	Capacity() int
	Size() int

	// Clear removes all elements in the buffer.
	Clear()
}

// NewBuffer creates a buffer that holds at most capacity elements. Pushing
// into a full buffer panics.
func NewBuffer(name string, capacity int) Buffer {
	NameMustBeValid(name)

	if capacity <= 0 {
		panic("buffer capacity must be positive")
	}

	return &bufferImpl{
		name:     name,
		capacity: capacity,
	}
}

// NewUnboundedBuffer creates a buffer that accepts any number of elements.
func NewUnboundedBuffer(name string) Buffer {
	NameMustBeValid(name)

	return &bufferImpl{
		name:     name,
		capacity: Unbounded,
	}
}

type bufferImpl struct {
	HookableBase

	name     string
	capacity int
	elements []any
}

func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) CanPush() bool {
	if b.capacity == Unbounded {
		return true
	}

	return len(b.elements) < b.capacity
}

func (b *bufferImpl) Push(e any) {
	if !b.CanPush() {
		panic("buffer overflow")
	}

	b.elements = append(b.elements, e)

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{
			Domain: b,
			Pos:    HookPosBufPush,
			Item:   e,
		})
	}
}

func (b *bufferImpl) Pop() any {
	if len(b.elements) == 0 {
		return nil
	}

	e := b.elements[0]
	b.elements[0] = nil
	b.elements = b.elements[1:]

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{
			Domain: b,
			Pos:    HookPosBufPop,
			Item:   e,
		})
	}

	return e
}

func (b *bufferImpl) Peek() any {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *bufferImpl) Capacity() int {
	return b.capacity
}

func (b *bufferImpl) Size() int {
	return len(b.elements)
}

func (b *bufferImpl) Clear() {
	b.elements = nil
}
