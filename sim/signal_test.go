package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Signal", func() {
	It("should show a staged value only after commit", func() {
		s := NewBits("Data", 8)

		s.Set(0x5a)
		Expect(s.Get()).To(Equal(uint64(0)))
		Expect(s.Next()).To(Equal(uint64(0x5a)))

		Expect(s.Commit()).To(BeTrue())
		Expect(s.Get()).To(Equal(uint64(0x5a)))
	})

	It("should hold its value when not set", func() {
		s := NewBit("Valid")
		s.Set(true)
		s.Commit()

		Expect(s.Commit()).To(BeFalse())
		Expect(s.Get()).To(BeTrue())
	})

	It("should report no change when the same value is latched", func() {
		s := NewBit("Ready")
		s.Set(false)

		Expect(s.Commit()).To(BeFalse())
	})

	It("should drive combinational values at once", func() {
		s := NewBit("Valid")
		s.Set(true)

		Expect(s.Drive(false)).To(BeFalse())
		Expect(s.Get()).To(BeFalse())

		Expect(s.Commit()).To(BeFalse())
		Expect(s.Get()).To(BeFalse())
	})

	It("should reject values wider than the signal", func() {
		s := NewBits("Data", 4)

		Expect(func() { s.Set(0x10) }).To(Panic())
		Expect(func() { s.Drive(0xff) }).To(Panic())
		Expect(func() { s.Set(0xf) }).NotTo(Panic())
	})

	It("should accept any value in 64 bits", func() {
		s := NewBits("Data", 64)
		s.Set(^uint64(0))
		s.Commit()

		Expect(s.Sample()).To(Equal(^uint64(0)))
	})

	It("should sample booleans as bits", func() {
		s := NewBit("Last")
		Expect(s.Sample()).To(Equal(uint64(0)))

		s.Drive(true)
		Expect(s.Sample()).To(Equal(uint64(1)))
		Expect(s.Width()).To(Equal(1))
	})

	It("should reject invalid widths", func() {
		Expect(func() { NewBits("Data", 0) }).To(Panic())
		Expect(func() { NewBits("Data", 65) }).To(Panic())
	})

	It("should be usable as a latch", func() {
		var l Latch = NewSignal[uint16]("Strobe", 16, 0xffff)

		Expect(l.Name()).To(Equal("Strobe"))
		Expect(l.Sample()).To(Equal(uint64(0xffff)))
	})
})
