package controller

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Schedule", func() {
	var s Schedule

	BeforeEach(func() {
		s = Schedule{}
	})

	It("should derive the period from the rate", func() {
		Expect(s.SetUpdateRate(0)).To(Succeed())
		Expect(s.UpdatePeriod()).To(Equal(0.0))

		Expect(s.SetUpdateRate(10)).To(Succeed())
		Expect(s.UpdateRate()).To(Equal(10.0))
		Expect(s.UpdatePeriod()).To(BeNumerically("~", 0.1, 1e-12))

		Expect(s.SetUpdateRate(0)).To(Succeed())
		Expect(s.UpdatePeriod()).To(Equal(0.0))
	})

	It("should reject a negative rate and keep the old one", func() {
		Expect(s.SetUpdateRate(4)).To(Succeed())
		Expect(s.SetUpdateRate(-1)).To(MatchError(ErrNegativeRate))
		Expect(s.UpdateRate()).To(Equal(4.0))
		Expect(s.UpdatePeriod()).To(Equal(0.25))
	})

	It("should wait a full period", func() {
		Expect(s.SetUpdateRate(10)).To(Succeed())
		s.Init(0)

		Expect(s.Due(0.09, 0.01)).To(BeFalse())
		Expect(s.Due(0.10, 0.01)).To(BeTrue())

		s.MarkUpdated(0.10)
		Expect(s.LastUpdate()).To(Equal(0.10))
		Expect(s.Due(0.15, 0.01)).To(BeFalse())
		Expect(s.Due(0.20, 0.01)).To(BeTrue())
	})

	It("should be due on every tick with a zero period", func() {
		s.Init(1.0)
		Expect(s.Due(1.0, 0.01)).To(BeTrue())
		Expect(s.Due(1.01, 0.01)).To(BeTrue())
	})

	It("should measure from the init time", func() {
		Expect(s.SetUpdateRate(2)).To(Succeed())
		s.Init(3.0)
		Expect(s.Due(3.4, 0.1)).To(BeFalse())
		Expect(s.Due(3.5, 0.1)).To(BeTrue())
	})

	It("should compare times directly without a step", func() {
		Expect(s.SetUpdateRate(10)).To(Succeed())
		s.Init(0)
		Expect(s.Due(0.05, 0)).To(BeFalse())
		Expect(s.Due(0.1, 0)).To(BeTrue())
	})
})
