package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal"
	productdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/product"
	"github.com/frahmantamala/shop-backoffice/internal/product"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var row productdm.Product
	if err := store.Conn(ctx, r.db).First(&row, id).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return product.FromDataModel(&row), nil
}

func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, int64, error) {
	q := store.Conn(ctx, r.db).Model(&productdm.Product{})
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var rows []productdm.Product
	if err := q.Order("name, id").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	out := make([]*product.Product, len(rows))
	for i := range rows {
		out[i] = product.FromDataModel(&rows[i])
	}
	return out, total, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	row := product.ToDataModel(p)
	if err := store.Conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("create product %s: %w", p.SKU, err)
	}
	p.ID, p.CreatedAt, p.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	res := store.Conn(ctx, r.db).Model(&productdm.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"price_cents": p.PriceCents,
			"is_active":   p.IsActive,
		})
	if res.Error != nil {
		return fmt.Errorf("update product %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrProductNotFound
	}
	return nil
}
