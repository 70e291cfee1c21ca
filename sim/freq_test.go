package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		Expect(float64((1 * GHz).Period())).To(BeNumerically("~", 1e-9, 1e-18))
	})

	It("should panic on zero frequency", func() {
		Expect(func() { Freq(0).Period() }).To(Panic())
	})

	It("should convert cycles to seconds and back", func() {
		f := 100 * MHz

		Expect(float64(f.CycleToSec(250))).To(BeNumerically("~", 2.5e-6, 1e-15))
		Expect(f.Cycle(2.5e-6)).To(Equal(VTimeInCycle(250)))
	})

	It("should round to the nearest cycle", func() {
		f := 1 * GHz

		Expect(f.Cycle(10.4e-9)).To(Equal(VTimeInCycle(10)))
		Expect(f.Cycle(10.6e-9)).To(Equal(VTimeInCycle(11)))
	})

	It("should reject negative time", func() {
		Expect(func() { (1 * GHz).Cycle(-1) }).To(Panic())
	})

	It("should print with a unit", func() {
		Expect((100 * MHz).String()).To(Equal("100MHz"))
		Expect((1.5 * GHz).String()).To(Equal("1.5GHz"))
		Expect(Freq(50).String()).To(Equal("50Hz"))
	})
})
