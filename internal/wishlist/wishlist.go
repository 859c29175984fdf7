package wishlist

import (
	"strings"
	"time"

	wishlistDatamodel "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/wishlist"
)

// fallbackName is used when the owner has neither a name nor a username.
const fallbackName = "My Wishlist"

type Wishlist struct {
	ID          int64     `json:"id"`
	CustomerID  int64     `json:"customer_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	IsDefault   bool      `json:"is_default"`
	Items       []*Item   `json:"items,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Item struct {
	ID          int64     `json:"id"`
	WishlistID  int64     `json:"wishlist_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	PriceCents  int64     `json:"price_cents,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Customer is the holder of the default wishlist pointer.
type Customer struct {
	UserID            int64
	DefaultWishlistID *int64
}

// Owner carries the fields a default wishlist name is derived from.
type Owner struct {
	Username  string
	FirstName string
	LastName  string
}

// DefaultName derives "<First Last>'s Wishlist", falling back to the
// username and then to a generic label.
func (o Owner) DefaultName() string {
	if full := strings.TrimSpace(strings.TrimSpace(o.FirstName) + " " + strings.TrimSpace(o.LastName)); full != "" {
		return full + "'s Wishlist"
	}
	if u := strings.TrimSpace(o.Username); u != "" {
		return u + "'s Wishlist"
	}
	return fallbackName
}

func ToDataModel(w *Wishlist) *wishlistDatamodel.Wishlist {
	return &wishlistDatamodel.Wishlist{
		ID:          w.ID,
		CustomerID:  w.CustomerID,
		Name:        w.Name,
		Description: w.Description,
		IsPublic:    w.IsPublic,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func FromDataModel(w *wishlistDatamodel.Wishlist) *Wishlist {
	return &Wishlist{
		ID:          w.ID,
		CustomerID:  w.CustomerID,
		Name:        w.Name,
		Description: w.Description,
		IsPublic:    w.IsPublic,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func ItemFromDataModel(i *wishlistDatamodel.WishlistItem) *Item {
	return &Item{
		ID:         i.ID,
		WishlistID: i.WishlistID,
		ProductID:  i.ProductID,
		Notes:      i.Notes,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}
