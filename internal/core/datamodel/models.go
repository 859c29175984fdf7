package datamodel

import (
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel/order"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel/product"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel/role"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel/wishlist"
)

// All lists every table row type, in dependency order, for AutoMigrate in
// tests and the sqlite development driver.
func All() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Customer{},
		&role.Role{},
		&role.RolePermission{},
		&role.UserRole{},
		&product.Product{},
		&wishlist.Wishlist{},
		&wishlist.WishlistItem{},
		&order.Order{},
		&order.OrderItem{},
	}
}
