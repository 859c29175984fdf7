package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal"
	orderdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/order"
	productdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/product"
	userdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/shop-backoffice/internal/order"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items; callers wrap it in a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	db := store.Conn(ctx, r.db)

	row := order.ToDataModel(o)
	if err := db.Create(row).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	o.ID, o.CreatedAt, o.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt

	items := make([]*orderdm.OrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = order.ItemToDataModel(o.ID, it)
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return fmt.Errorf("create items of order %d: %w", o.ID, err)
		}
	}
	for i, it := range o.Items {
		it.ID, it.OrderID = items[i].ID, o.ID
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.get(store.Conn(ctx, r.db), id)
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return r.get(store.ForUpdate(store.Conn(ctx, r.db)), id)
}

func (r *OrderRepository) get(db *gorm.DB, id int64) (*order.Order, error) {
	var row orderdm.Order
	if err := db.First(&row, id).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return order.FromDataModel(&row), nil
}

type itemRow struct {
	orderdm.OrderItem
	ProductName string `gorm:"column:product_name"`
}

func (r *OrderRepository) Items(ctx context.Context, orderID int64) ([]*order.Item, error) {
	var rows []itemRow
	err := store.Conn(ctx, r.db).
		Table("order_items AS oi").
		Select("oi.*, p.name AS product_name").
		Joins("LEFT JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list items of order %d: %w", orderID, err)
	}

	out := make([]*order.Item, len(rows))
	for i := range rows {
		out[i] = order.ItemFromDataModel(&rows[i].OrderItem)
		out[i].ProductName = rows[i].ProductName
	}
	return out, nil
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int64, error) {
	q := store.Conn(ctx, r.db).Model(&orderdm.Order{})
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var rows []orderdm.Order
	if err := q.Order("created_at DESC, id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	out := make([]*order.Order, len(rows))
	for i := range rows {
		out[i] = order.FromDataModel(&rows[i])
	}
	return out, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	res := store.Conn(ctx, r.db).Model(&orderdm.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"status":         o.Status,
			"payment_status": o.PaymentStatus,
		})
	if res.Error != nil {
		return fmt.Errorf("update order %d: %w", o.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	return store.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&orderdm.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete items of order %d: %w", id, err)
		}
		res := tx.Delete(&orderdm.Order{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete order %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrOrderNotFound
		}
		return nil
	})
}

func (r *OrderRepository) Prices(ctx context.Context, productIDs []int64) (map[int64]order.ProductPrice, error) {
	var rows []productdm.Product
	if err := store.Conn(ctx, r.db).Where("id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load product prices: %w", err)
	}

	out := make(map[int64]order.ProductPrice, len(rows))
	for _, p := range rows {
		out[p.ID] = order.ProductPrice{ID: p.ID, Name: p.Name, PriceCents: p.PriceCents, IsActive: p.IsActive}
	}
	return out, nil
}

func (r *OrderRepository) EnsureCustomer(ctx context.Context, userID int64) error {
	err := store.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&userdm.Customer{UserID: userID}).Error
	if err != nil {
		return fmt.Errorf("ensure customer %d: %w", userID, err)
	}
	return nil
}
