package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal"
	productdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/product"
	userdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	wishlistdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/wishlist"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/internal/wishlist"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) EnsureCustomer(ctx context.Context, userID int64) error {
	row := &userdm.Customer{UserID: userID}
	err := store.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("ensure customer %d: %w", userID, err)
	}
	return nil
}

func (r *WishlistRepository) GetCustomer(ctx context.Context, customerID int64) (*wishlist.Customer, error) {
	var row userdm.Customer
	if err := store.Conn(ctx, r.db).Where("user_id = ?", customerID).First(&row).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get customer %d: %w", customerID, err)
	}
	return &wishlist.Customer{UserID: row.UserID, DefaultWishlistID: row.DefaultWishlistID}, nil
}

func (r *WishlistRepository) GetOwner(ctx context.Context, customerID int64) (*wishlist.Owner, error) {
	var row userdm.User
	if err := store.Conn(ctx, r.db).Select("username", "first_name", "last_name").First(&row, customerID).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get owner %d: %w", customerID, err)
	}
	return &wishlist.Owner{Username: row.Username, FirstName: row.FirstName, LastName: row.LastName}, nil
}

func (r *WishlistRepository) ClaimDefault(ctx context.Context, customerID, wishlistID int64, expected *int64) (bool, error) {
	q := store.Conn(ctx, r.db).Model(&userdm.Customer{}).Where("user_id = ?", customerID)
	if expected == nil {
		q = q.Where("default_wishlist_id IS NULL")
	} else {
		q = q.Where("default_wishlist_id = ?", *expected)
	}

	res := q.Update("default_wishlist_id", wishlistID)
	if res.Error != nil {
		return false, fmt.Errorf("claim default wishlist for %d: %w", customerID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *WishlistRepository) ClearDefault(ctx context.Context, customerID, wishlistID int64) error {
	err := store.Conn(ctx, r.db).Model(&userdm.Customer{}).
		Where("user_id = ? AND default_wishlist_id = ?", customerID, wishlistID).
		Update("default_wishlist_id", nil).Error
	if err != nil {
		return fmt.Errorf("clear default wishlist for %d: %w", customerID, err)
	}
	return nil
}

func (r *WishlistRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*wishlist.Wishlist, error) {
	var rows []wishlistdm.Wishlist
	if err := store.Conn(ctx, r.db).Where("customer_id = ?", customerID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list wishlists for %d: %w", customerID, err)
	}

	out := make([]*wishlist.Wishlist, len(rows))
	for i := range rows {
		out[i] = wishlist.FromDataModel(&rows[i])
	}
	return out, nil
}

func (r *WishlistRepository) GetByID(ctx context.Context, id int64) (*wishlist.Wishlist, error) {
	var row wishlistdm.Wishlist
	if err := store.Conn(ctx, r.db).First(&row, id).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrWishlistNotFound
		}
		return nil, fmt.Errorf("get wishlist %d: %w", id, err)
	}
	return wishlist.FromDataModel(&row), nil
}

func (r *WishlistRepository) OldestByCustomer(ctx context.Context, customerID int64) (*wishlist.Wishlist, error) {
	var row wishlistdm.Wishlist
	err := store.Conn(ctx, r.db).Where("customer_id = ?", customerID).Order("created_at, id").First(&row).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrWishlistNotFound
		}
		return nil, fmt.Errorf("oldest wishlist for %d: %w", customerID, err)
	}
	return wishlist.FromDataModel(&row), nil
}

func (r *WishlistRepository) Create(ctx context.Context, w *wishlist.Wishlist) error {
	row := wishlist.ToDataModel(w)
	if err := store.Conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("create wishlist: %w", err)
	}
	w.ID, w.CreatedAt, w.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *WishlistRepository) Update(ctx context.Context, w *wishlist.Wishlist) error {
	res := store.Conn(ctx, r.db).Model(&wishlistdm.Wishlist{}).
		Where("id = ?", w.ID).
		Updates(map[string]interface{}{
			"name":        w.Name,
			"description": w.Description,
			"is_public":   w.IsPublic,
		})
	if res.Error != nil {
		return fmt.Errorf("update wishlist %d: %w", w.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrWishlistNotFound
	}
	return nil
}

func (r *WishlistRepository) Delete(ctx context.Context, id int64) error {
	db := store.Conn(ctx, r.db)
	if err := db.Where("wishlist_id = ?", id).Delete(&wishlistdm.WishlistItem{}).Error; err != nil {
		return fmt.Errorf("delete items of wishlist %d: %w", id, err)
	}
	res := db.Delete(&wishlistdm.Wishlist{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete wishlist %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrWishlistNotFound
	}
	return nil
}

type itemRow struct {
	wishlistdm.WishlistItem
	ProductName string `gorm:"column:product_name"`
	PriceCents  int64  `gorm:"column:price_cents"`
}

func (r *WishlistRepository) ListItems(ctx context.Context, wishlistID int64) ([]*wishlist.Item, error) {
	var rows []itemRow
	err := store.Conn(ctx, r.db).
		Table("wishlist_items AS wi").
		Select("wi.*, p.name AS product_name, p.price_cents AS price_cents").
		Joins("LEFT JOIN products p ON p.id = wi.product_id").
		Where("wi.wishlist_id = ?", wishlistID).
		Order("wi.created_at, wi.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list items of wishlist %d: %w", wishlistID, err)
	}

	out := make([]*wishlist.Item, len(rows))
	for i := range rows {
		item := wishlist.ItemFromDataModel(&rows[i].WishlistItem)
		item.ProductName = rows[i].ProductName
		item.PriceCents = rows[i].PriceCents
		out[i] = item
	}
	return out, nil
}

func (r *WishlistRepository) GetItemForUpdate(ctx context.Context, itemID int64) (*wishlist.Item, error) {
	var row wishlistdm.WishlistItem
	if err := store.ForUpdate(store.Conn(ctx, r.db)).First(&row, itemID).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrItemNotFound
		}
		return nil, fmt.Errorf("get wishlist item %d: %w", itemID, err)
	}
	return wishlist.ItemFromDataModel(&row), nil
}

func (r *WishlistRepository) ItemExists(ctx context.Context, wishlistID, productID int64) (bool, error) {
	var count int64
	err := store.Conn(ctx, r.db).Model(&wishlistdm.WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	return count > 0, nil
}

func (r *WishlistRepository) AddItem(ctx context.Context, item *wishlist.Item) error {
	row := &wishlistdm.WishlistItem{
		WishlistID: item.WishlistID,
		ProductID:  item.ProductID,
		Notes:      item.Notes,
	}
	if err := store.Conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("add product %d to wishlist %d: %w", item.ProductID, item.WishlistID, err)
	}
	item.ID, item.CreatedAt, item.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *WishlistRepository) UpdateItem(ctx context.Context, item *wishlist.Item) error {
	res := store.Conn(ctx, r.db).Model(&wishlistdm.WishlistItem{}).
		Where("id = ?", item.ID).
		Update("notes", item.Notes)
	if res.Error != nil {
		return fmt.Errorf("update wishlist item %d: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrItemNotFound
	}
	return nil
}

func (r *WishlistRepository) DeleteItem(ctx context.Context, itemID int64) error {
	res := store.Conn(ctx, r.db).Delete(&wishlistdm.WishlistItem{}, itemID)
	if res.Error != nil {
		return fmt.Errorf("delete wishlist item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrItemNotFound
	}
	return nil
}

func (r *WishlistRepository) MoveItem(ctx context.Context, itemID, targetWishlistID int64) error {
	res := store.Conn(ctx, r.db).Model(&wishlistdm.WishlistItem{}).
		Where("id = ?", itemID).
		Update("wishlist_id", targetWishlistID)
	if res.Error != nil {
		return fmt.Errorf("move wishlist item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrItemNotFound
	}
	return nil
}

func (r *WishlistRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var count int64
	if err := store.Conn(ctx, r.db).Model(&productdm.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check product %d: %w", productID, err)
	}
	return count > 0, nil
}
