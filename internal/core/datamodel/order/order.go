package order

import "time"

type Order struct {
	ID            int64     `gorm:"primaryKey"`
	CustomerID    int64     `gorm:"column:customer_id;not null;index"`
	Status        string    `gorm:"column:status;size:32;not null;index"`
	PaymentStatus string    `gorm:"column:payment_status;size:32;not null"`
	TotalCents    int64     `gorm:"column:total_cents;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID             int64 `gorm:"primaryKey"`
	OrderID        int64 `gorm:"column:order_id;not null;index"`
	ProductID      int64 `gorm:"column:product_id;not null"`
	Quantity       int   `gorm:"column:quantity;not null"`
	UnitPriceCents int64 `gorm:"column:unit_price_cents;not null"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
