package wishlist

import "time"

type Wishlist struct {
	ID          int64     `gorm:"primaryKey"`
	CustomerID  int64     `gorm:"column:customer_id;not null;index"`
	Name        string    `gorm:"column:name;size:150;not null"`
	Description *string   `gorm:"column:description"`
	IsPublic    bool      `gorm:"column:is_public;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

type WishlistItem struct {
	ID         int64     `gorm:"primaryKey"`
	WishlistID int64     `gorm:"column:wishlist_id;not null;uniqueIndex:wishlist_items_wishlist_product_key"`
	ProductID  int64     `gorm:"column:product_id;not null;index;uniqueIndex:wishlist_items_wishlist_product_key"`
	Notes      string    `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
