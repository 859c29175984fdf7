package order

import (
	"errors"
	"math"

	"github.com/frahmantamala/shop-backoffice/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Order state machine", func() {
	DescribeTable("fulfilment transitions",
		func(from, to string, ok bool) {
			o := &Order{Status: from}
			Expect(o.CanTransitionTo(to)).To(Equal(ok))
		},
		Entry("pending to processing", StatusPending, StatusProcessing, true),
		Entry("pending to cancelled", StatusPending, StatusCancelled, true),
		Entry("pending to shipped", StatusPending, StatusShipped, false),
		Entry("processing to shipped", StatusProcessing, StatusShipped, true),
		Entry("shipped to delivered", StatusShipped, StatusDelivered, true),
		Entry("shipped to cancelled", StatusShipped, StatusCancelled, false),
		Entry("delivered is final", StatusDelivered, StatusPending, false),
		Entry("cancelled is final", StatusCancelled, StatusProcessing, false),
	)

	DescribeTable("payment transitions",
		func(from, to string, ok bool) {
			o := &Order{PaymentStatus: from}
			Expect(o.CanSetPayment(to)).To(Equal(ok))
		},
		Entry("unpaid to paid", PaymentUnpaid, PaymentPaid, true),
		Entry("paid to refunded", PaymentPaid, PaymentRefunded, true),
		Entry("unpaid to refunded", PaymentUnpaid, PaymentRefunded, false),
		Entry("refunded is final", PaymentRefunded, PaymentPaid, false),
	)

	It("totals lines from unit price and quantity", func() {
		o, err := NewOrder(7, []*Item{
			{ProductID: 1, Quantity: 2, UnitPriceCents: 250},
			{ProductID: 2, Quantity: 1, UnitPriceCents: 1000},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(o.TotalCents).To(Equal(int64(1500)))
		Expect(o.Status).To(Equal(StatusPending))
		Expect(o.PaymentStatus).To(Equal(PaymentUnpaid))
	})

	It("merges repeated product lines", func() {
		ids, qty := CreateOrderDTO{Items: []CreateOrderItemDTO{
			{ProductID: 3, Quantity: 1},
			{ProductID: 1, Quantity: 2},
			{ProductID: 3, Quantity: 4},
		}}.Quantities()
		Expect(ids).To(Equal([]int64{3, 1}))
		Expect(qty).To(Equal(map[int64]int{3: 5, 1: 2}))
	})

	It("rejects a line whose subtotal overflows", func() {
		_, err := NewOrder(7, []*Item{
			{ProductID: 1, Quantity: MaxItemQuantity, UnitPriceCents: math.MaxInt64 / 1000},
		})
		Expect(errors.Is(err, internal.ErrTotalOverflow)).To(BeTrue())
	})

	It("rejects a total that overflows across lines", func() {
		_, err := NewOrder(7, []*Item{
			{ProductID: 1, Quantity: 1, UnitPriceCents: math.MaxInt64 - 10},
			{ProductID: 2, Quantity: 1, UnitPriceCents: 11},
		})
		Expect(errors.Is(err, internal.ErrTotalOverflow)).To(BeTrue())
	})

	Describe("CreateOrderDTO", func() {
		It("caps the quantity of a single line", func() {
			err := CreateOrderDTO{Items: []CreateOrderItemDTO{
				{ProductID: 1, Quantity: math.MaxInt / 1000},
			}}.Validate()
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("caps the merged quantity of repeated lines", func() {
			err := CreateOrderDTO{Items: []CreateOrderItemDTO{
				{ProductID: 1, Quantity: MaxItemQuantity},
				{ProductID: 1, Quantity: 1},
			}}.Validate()
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rejects repeated lines that would wrap the merged quantity", func() {
			err := CreateOrderDTO{Items: []CreateOrderItemDTO{
				{ProductID: 1, Quantity: math.MaxInt/2 + 1},
				{ProductID: 1, Quantity: math.MaxInt/2 + 1},
			}}.Validate()
			Expect(err).To(HaveOccurred())
		})

		It("accepts merged quantities at the cap", func() {
			Expect(CreateOrderDTO{Items: []CreateOrderItemDTO{
				{ProductID: 1, Quantity: MaxItemQuantity - 1},
				{ProductID: 1, Quantity: 1},
			}}.Validate()).To(Succeed())
		})
	})
})
