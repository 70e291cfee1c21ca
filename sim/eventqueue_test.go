package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventQueue", func() {
	var queue EventQueue

	BeforeEach(func() {
		queue = NewEventQueue()
	})

	It("should pop events in time order", func() {
		times := []VTimeInCycle{8, 3, 5, 1, 9, 3}
		for _, t := range times {
			queue.Push(MakeTickEvent(nil, t))
		}

		Expect(queue.Len()).To(Equal(len(times)))

		popped := []VTimeInCycle{}
		for queue.Len() > 0 {
			popped = append(popped, queue.Pop().Time())
		}

		Expect(popped).To(Equal([]VTimeInCycle{1, 3, 3, 5, 8, 9}))
	})

	It("should keep push order among same-cycle events", func() {
		first := MakeTickEvent(nil, 4)
		second := MakeTickEvent(nil, 4)

		queue.Push(first)
		queue.Push(second)

		Expect(queue.Peek()).To(Equal(first))
		Expect(queue.Pop()).To(Equal(first))
		Expect(queue.Pop()).To(Equal(second))
	})

	It("should return nil when empty", func() {
		Expect(queue.Pop()).To(BeNil())
		Expect(queue.Peek()).To(BeNil())
	})
})
