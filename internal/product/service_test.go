package product_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel"
	"github.com/frahmantamala/shop-backoffice/internal/product"
	"github.com/frahmantamala/shop-backoffice/internal/product/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestProduct(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Product Module Suite")
}

var _ = Describe("Service", func() {
	var (
		db    *gorm.DB
		svc   *product.Service
		ctx   context.Context
		actor = &auth.Principal{ID: 1, Username: "supplier"}
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = store.OpenMemory(datamodel.All()...)
		Expect(err).NotTo(HaveOccurred())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = product.NewService(postgres.NewProductRepository(db), store.NewTransactor(db), logger)
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	It("creates active products with a normalized sku", func() {
		p, err := svc.Create(ctx, actor, product.CreateProductDTO{SKU: " mug-01 ", Name: "Mug", PriceCents: 1299})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.SKU).To(Equal("MUG-01"))
		Expect(p.IsActive).To(BeTrue())
	})

	It("rejects a duplicate sku as a validation error", func() {
		_, err := svc.Create(ctx, actor, product.CreateProductDTO{SKU: "MUG-01", Name: "Mug", PriceCents: 1299})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Create(ctx, actor, product.CreateProductDTO{SKU: "mug-01", Name: "Other", PriceCents: 1})
		Expect(errors.Is(err, internal.ErrSKUTaken)).To(BeTrue())
	})

	It("rejects negative prices", func() {
		_, err := svc.Create(ctx, actor, product.CreateProductDTO{SKU: "X", Name: "X", PriceCents: -1})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))
	})

	It("hides deactivated products from the default listing", func() {
		mug, _ := svc.Create(ctx, actor, product.CreateProductDTO{SKU: "MUG", Name: "Mug", PriceCents: 100})
		_, _ = svc.Create(ctx, actor, product.CreateProductDTO{SKU: "CUP", Name: "Cup", PriceCents: 100})

		_, err := svc.Deactivate(ctx, actor, mug.ID)
		Expect(err).NotTo(HaveOccurred())

		listed, err := svc.List(ctx, product.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(listed.Total).To(Equal(int64(1)))
		Expect(listed.Products[0].SKU).To(Equal("CUP"))

		all, err := svc.List(ctx, product.ListFilter{IncludeInactive: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(all.Total).To(Equal(int64(2)))
	})

	It("updates selected fields only", func() {
		mug, _ := svc.Create(ctx, actor, product.CreateProductDTO{SKU: "MUG", Name: "Mug", Description: "Ceramic", PriceCents: 100})
		price := int64(250)

		updated, err := svc.Update(ctx, actor, mug.ID, product.UpdateProductDTO{PriceCents: &price})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.PriceCents).To(Equal(int64(250)))
		Expect(updated.Description).To(Equal("Ceramic"))
	})

	It("reports unknown products", func() {
		_, err := svc.GetByID(ctx, 42)
		Expect(errors.Is(err, internal.ErrProductNotFound)).To(BeTrue())
	})
})
