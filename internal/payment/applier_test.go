package payment_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payweb-gateway/internal/core/datamodel/order"
	"github.com/frahmantamala/payweb-gateway/internal/core/events"
	"github.com/frahmantamala/payweb-gateway/internal/payment"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

var _ = Describe("OutcomeApplier", func() {
	var (
		orders     *stubOrders
		currencies *stubCurrencies
		carts      *stubCarts
		applier    *payment.OutcomeApplier
		statuses   payment.StatusIDs
		o          *order.Order
		ctx        context.Context
	)

	approvedPayload := func(amount string) payweb.Fields {
		var f payweb.Fields
		f.Set(payweb.FieldTransactionStatus, "1")
		f.Set(payweb.FieldTransactionID, "TXN55")
		f.Set(payweb.FieldCurrency, "ZAR")
		f.Set(payweb.FieldAmount, amount)
		return f
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		statuses = payment.StatusIDs{Processing: 25, Paid: 2, Failed: 8}
		o = &order.Order{
			ID:            1001,
			CustomerID:    42,
			CustomerEmail: "shopper@example.com",
			Currency:      "ZAR",
			Total:         150.00,
			Status:        statuses.Processing,
		}
		orders = newStubOrders(statuses, o)
		currencies = &stubCurrencies{byCode: map[string]*order.Currency{
			"ZAR": {
				Code:           "ZAR",
				SymbolLeft:     "R",
				DecimalPlaces:  2,
				DecimalPoint:   ".",
				ThousandsPoint: ",",
			},
		}}
		carts = &stubCarts{}
		applier = payment.NewOutcomeApplier(orders, currencies, carts, events.NewEventBus(logger), logger)
		ctx = context.Background()
	})

	Describe("ApplySuccess", func() {
		It("records the payment in major units and clears the basket", func() {
			err := applier.ApplySuccess(ctx, o, "ref-1001", approvedPayload("15000"))
			Expect(err).NotTo(HaveOccurred())

			p := orders.payments[1001]
			Expect(p).NotTo(BeNil())
			Expect(p.Amount).To(Equal(150.00))
			Expect(p.Currency).To(Equal("ZAR"))
			Expect(p.Module).To(Equal(payment.ModuleCode))
			Expect(p.TransactionID).To(Equal("TXN55"))
			Expect(p.Status).To(Equal(payment.PaymentStatusCaptured))

			Expect(orders.history).To(HaveLen(1))
			Expect(orders.history[0]).To(ContainSubstring("TXN55"))
			Expect(carts.cleared).To(Equal([]int64{42}))
		})

		It("is a no-op when a second leg arrives for a paid order", func() {
			Expect(applier.ApplySuccess(ctx, o, "ref-1001", approvedPayload("15000"))).To(Succeed())
			Expect(applier.ApplySuccess(ctx, o, "ref-1001", approvedPayload("15000"))).To(Succeed())

			Expect(orders.payments).To(HaveLen(1))
			Expect(orders.history).To(HaveLen(1))
		})

		It("rejects a payload without a usable amount", func() {
			payload := approvedPayload("")

			err := applier.ApplySuccess(ctx, o, "ref-1001", payload)
			Expect(err).To(HaveOccurred())
			Expect(orders.payments).To(BeEmpty())
			Expect(orders.history).To(BeEmpty())
		})

		It("rejects a negative amount", func() {
			err := applier.ApplySuccess(ctx, o, "ref-1001", approvedPayload("-100"))
			Expect(err).To(HaveOccurred())
			Expect(orders.payments).To(BeEmpty())
		})

		It("falls back to the order currency when the payload omits one", func() {
			payload := approvedPayload("15000")
			payload.Set(payweb.FieldCurrency, "")

			Expect(applier.ApplySuccess(ctx, o, "ref-1001", payload)).To(Succeed())
			Expect(orders.payments[1001].Currency).To(Equal("ZAR"))
		})

		It("still confirms the payment when clearing the basket fails", func() {
			carts.err = errNotFound

			Expect(applier.ApplySuccess(ctx, o, "ref-1001", approvedPayload("15000"))).To(Succeed())
			Expect(orders.payments).To(HaveLen(1))
		})
	})

	Describe("ApplyFailure", func() {
		It("records the provider's reason without creating a payment record", func() {
			err := applier.ApplyFailure(ctx, o, "ref-1001", "Insufficient funds")
			Expect(err).NotTo(HaveOccurred())

			Expect(orders.orders[1001].Status).To(Equal(statuses.Failed))
			Expect(orders.payments).To(BeEmpty())
			Expect(orders.history).To(HaveLen(1))
			Expect(orders.history[0]).To(ContainSubstring("Insufficient funds"))
		})

		It("never demotes an order a concurrent leg already paid", func() {
			Expect(applier.ApplySuccess(ctx, o, "ref-1001", approvedPayload("15000"))).To(Succeed())

			Expect(applier.ApplyFailure(ctx, o, "ref-1001", "late decline")).To(Succeed())

			Expect(orders.orders[1001].Status).To(Equal(statuses.Paid))
			Expect(orders.history).To(HaveLen(1))
		})

		It("absorbs a repeated failure as a no-op", func() {
			Expect(applier.ApplyFailure(ctx, o, "ref-1001", "declined")).To(Succeed())
			Expect(applier.ApplyFailure(ctx, o, "ref-1001", "declined")).To(Succeed())

			Expect(orders.history).To(HaveLen(1))
		})
	})

	Describe("amount formatting", func() {
		It("groups thousands with the currency metadata", func() {
			o.Total = 1234567.89
			var payload payweb.Fields
			payload.Set(payweb.FieldTransactionStatus, "1")
			payload.Set(payweb.FieldTransactionID, "TXN56")
			payload.Set(payweb.FieldCurrency, "ZAR")
			payload.Set(payweb.FieldAmount, "123456789")

			Expect(applier.ApplySuccess(ctx, o, "ref-1001", payload)).To(Succeed())
			Expect(orders.payments[1001].Amount).To(Equal(1234567.89))
			Expect(orders.lastTotals.PaidText).To(Equal("R1,234,567.89"))
			Expect(orders.lastTotals.DueText).To(Equal("R0.00"))
		})

		It("falls back to a plain two-decimal format on an unknown currency", func() {
			payload := approvedPayload("15000")
			payload.Set(payweb.FieldCurrency, "USD")

			Expect(applier.ApplySuccess(ctx, o, "ref-1001", payload)).To(Succeed())
			Expect(orders.lastTotals.PaidText).To(Equal("150.00"))
		})
	})
})
