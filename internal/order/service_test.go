package order_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel"
	orderdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/order"
	productdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/product"
	userdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/order"
	"github.com/frahmantamala/shop-backoffice/internal/order/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestOrder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Order Module Suite")
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.types = append(p.types, e.EventType())
	return nil
}

var _ = Describe("Service", func() {
	var (
		db        *gorm.DB
		svc       *order.Service
		publisher *recordingPublisher
		ctx       context.Context
		jane      *auth.Principal
		mark      *auth.Principal
		staff     = &auth.Principal{ID: 900, Username: "manager"}
		mug       int64
		lamp      int64
		retired   int64
	)

	seedUser := func(username string) *auth.Principal {
		row := &userdm.User{Username: username, Email: username + "@shop.test", PasswordHash: "x", IsActive: true}
		Expect(db.Create(row).Error).To(Succeed())
		return &auth.Principal{ID: row.ID, Username: username}
	}

	seedProduct := func(sku string, price int64, active bool) int64 {
		row := &productdm.Product{SKU: sku, Name: sku, PriceCents: price, IsActive: active}
		Expect(db.Create(row).Error).To(Succeed())
		return row.ID
	}

	countOrders := func() int64 {
		var n int64
		Expect(db.Model(&orderdm.Order{}).Count(&n).Error).To(Succeed())
		return n
	}

	place := func(p *auth.Principal, lines ...order.CreateOrderItemDTO) *order.Order {
		o, err := svc.Create(ctx, p, order.CreateOrderDTO{Items: lines})
		Expect(err).NotTo(HaveOccurred())
		return o
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = store.OpenMemory(datamodel.All()...)
		Expect(err).NotTo(HaveOccurred())

		summaries, err := postgres.NewSummaryRepository(db)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		publisher = &recordingPublisher{}
		svc = order.NewService(postgres.NewOrderRepository(db), summaries, store.NewTransactor(db), publisher, logger)

		jane = seedUser("jane")
		mark = seedUser("mark")
		mug = seedProduct("MUG", 1200, true)
		lamp = seedProduct("LAMP", 4500, true)
		retired = seedProduct("OLD", 100, false)
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("Create", func() {
		It("prices lines from the catalogue and stores them", func() {
			o := place(jane,
				order.CreateOrderItemDTO{ProductID: mug, Quantity: 2},
				order.CreateOrderItemDTO{ProductID: lamp, Quantity: 1},
			)
			Expect(o.TotalCents).To(Equal(int64(2*1200 + 4500)))
			Expect(o.Status).To(Equal(order.StatusPending))

			stored, err := svc.GetOwn(ctx, jane, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Items).To(HaveLen(2))
			Expect(stored.Items[0].ProductName).To(Equal("MUG"))
			Expect(publisher.types).To(Equal([]string{events.EventTypeOrderCreated}))
		})

		It("writes nothing when a product is inactive", func() {
			_, err := svc.Create(ctx, jane, order.CreateOrderDTO{Items: []order.CreateOrderItemDTO{
				{ProductID: mug, Quantity: 1},
				{ProductID: retired, Quantity: 1},
			}})
			Expect(errors.Is(err, internal.ErrProductInactive)).To(BeTrue())
			Expect(countOrders()).To(BeZero())
		})

		It("reports unknown products", func() {
			_, err := svc.Create(ctx, jane, order.CreateOrderDTO{Items: []order.CreateOrderItemDTO{{ProductID: 4242, Quantity: 1}}})
			Expect(errors.Is(err, internal.ErrProductNotFound)).To(BeTrue())
		})

		It("requires at least one line with a positive quantity", func() {
			_, err := svc.Create(ctx, jane, order.CreateOrderDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

			_, err = svc.Create(ctx, jane, order.CreateOrderDTO{Items: []order.CreateOrderItemDTO{{ProductID: mug, Quantity: 0}}})
			appErr, ok = internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("quantity"))
		})

		It("rejects merged quantities that exceed the cap and writes nothing", func() {
			_, err := svc.Create(ctx, jane, order.CreateOrderDTO{Items: []order.CreateOrderItemDTO{
				{ProductID: mug, Quantity: math.MaxInt/2 + 1},
				{ProductID: mug, Quantity: math.MaxInt/2 + 1},
			}})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))

			_, err = svc.Create(ctx, jane, order.CreateOrderDTO{Items: []order.CreateOrderItemDTO{
				{ProductID: mug, Quantity: order.MaxItemQuantity},
				{ProductID: mug, Quantity: 1},
			}})
			appErr, ok = internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(countOrders()).To(BeZero())
		})

		It("rejects a total that does not fit and writes nothing", func() {
			pricey := seedProduct("YACHT", math.MaxInt64/1000, true)
			_, err := svc.Create(ctx, jane, order.CreateOrderDTO{Items: []order.CreateOrderItemDTO{
				{ProductID: pricey, Quantity: order.MaxItemQuantity},
			}})
			Expect(errors.Is(err, internal.ErrTotalOverflow)).To(BeTrue())
			Expect(countOrders()).To(BeZero())
		})
	})

	Describe("customer views", func() {
		It("lists only the caller's orders", func() {
			place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			place(mark, order.CreateOrderItemDTO{ProductID: lamp, Quantity: 1})

			result, err := svc.ListOwn(ctx, jane, order.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(1)))
			Expect(result.Orders[0].CustomerID).To(Equal(jane.ID))
		})

		It("hides other customers' orders as not found", func() {
			o := place(mark, order.CreateOrderItemDTO{ProductID: lamp, Quantity: 1})

			_, err := svc.GetOwn(ctx, jane, o.ID)
			Expect(errors.Is(err, internal.ErrOrderNotFound)).To(BeTrue())

			_, err = svc.CancelOwn(ctx, jane, o.ID)
			Expect(errors.Is(err, internal.ErrOrderNotFound)).To(BeTrue())
		})

		It("cancels until the order ships", func() {
			o := place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			cancelled, err := svc.CancelOwn(ctx, jane, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(order.StatusCancelled))

			shipped := place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			for _, status := range []string{order.StatusProcessing, order.StatusShipped} {
				s := status
				_, err := svc.UpdateStatus(ctx, staff, shipped.ID, order.UpdateStatusDTO{Status: &s})
				Expect(err).NotTo(HaveOccurred())
			}
			_, err = svc.CancelOwn(ctx, jane, shipped.ID)
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
		})
	})

	Describe("staff operations", func() {
		It("rejects skipping fulfilment steps", func() {
			o := place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			delivered := order.StatusDelivered

			_, err := svc.UpdateStatus(ctx, staff, o.ID, order.UpdateStatusDTO{Status: &delivered})
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())

			stored, err := svc.Get(ctx, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(order.StatusPending))
		})

		It("records payment and publishes the change", func() {
			o := place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			paid := order.PaymentPaid
			processing := order.StatusProcessing

			updated, err := svc.UpdateStatus(ctx, staff, o.ID, order.UpdateStatusDTO{Status: &processing, PaymentStatus: &paid})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(order.StatusProcessing))
			Expect(updated.PaymentStatus).To(Equal(order.PaymentPaid))
			Expect(publisher.types).To(ContainElement(events.EventTypeOrderStatusChanged))
		})

		It("summarizes orders per status", func() {
			place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			place(mark, order.CreateOrderItemDTO{ProductID: lamp, Quantity: 2})
			c := place(mark, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			_, err := svc.CancelOwn(ctx, mark, c.ID)
			Expect(err).NotTo(HaveOccurred())

			rows, err := svc.Summary(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(ConsistOf(
				order.StatusSummary{Status: order.StatusCancelled, Count: 1, TotalCents: 1200},
				order.StatusSummary{Status: order.StatusPending, Count: 2, TotalCents: 1200 + 9000},
			))
		})

		It("deletes orders with their items", func() {
			o := place(jane, order.CreateOrderItemDTO{ProductID: mug, Quantity: 1})
			Expect(svc.Delete(ctx, staff, o.ID)).To(Succeed())
			Expect(countOrders()).To(BeZero())

			var items int64
			Expect(db.Model(&orderdm.OrderItem{}).Count(&items).Error).To(Succeed())
			Expect(items).To(BeZero())

			Expect(errors.Is(svc.Delete(ctx, staff, o.ID), internal.ErrOrderNotFound)).To(BeTrue())
		})

		It("rejects unknown status filters", func() {
			_, err := svc.List(ctx, order.ListFilter{Status: "lost"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})
})
