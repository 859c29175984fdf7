package product

import "time"

type Product struct {
	ID          int64     `gorm:"primaryKey"`
	SKU         string    `gorm:"column:sku;uniqueIndex;size:64;not null"`
	Name        string    `gorm:"column:name;size:200;not null"`
	Description string    `gorm:"column:description"`
	PriceCents  int64     `gorm:"column:price_cents;not null"`
	SupplierID  *int64    `gorm:"column:supplier_id;index"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
