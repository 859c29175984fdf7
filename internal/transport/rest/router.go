package rest

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/order"
	"github.com/frahmantamala/shop-backoffice/internal/product"
	"github.com/frahmantamala/shop-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/shop-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	"github.com/frahmantamala/shop-backoffice/internal/wishlist"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups everything the router mounts. A nil handler leaves its
// routes unregistered.
type Handlers struct {
	Auth     *auth.Handler
	RBAC     *auth.RBACAuthorization
	User     *user.Handler
	Product  *product.Handler
	Wishlist *wishlist.Handler
	Order    *order.Handler
}

type Options struct {
	DB             *sql.DB
	DBComponent    string
	AllowedOrigins string
	OpenAPIPath    string
	RequestTimeout time.Duration
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(opts.DB, opts.DBComponent)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware)
	if opts.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	}

	if opts.OpenAPIPath != "" {
		router.Get(swagger.DocPath, swagger.DocHandler(opts.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}
			if h.Product != nil {
				registerProductRoutes(pr, h)
			}
			if h.Wishlist != nil {
				registerWishlistRoutes(pr, h)
			}
			if h.Order != nil {
				registerOrderRoutes(pr, h)
			}
			registerAdminRoutes(pr, h)
		})
	})
}

func registerProductRoutes(r chi.Router, h Handlers) {
	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.Product.ListProducts)
		pr.Get("/{id}", h.Product.GetProduct)

		pr.Group(func(cr chi.Router) {
			cr.Use(h.RBAC.RequirePermissions(auth.PermProductCreate))
			cr.Post("/", h.Product.CreateProduct)
		})

		pr.Group(func(ur chi.Router) {
			ur.Use(h.RBAC.RequirePermissions(auth.PermProductUpdate))
			ur.Patch("/{id}", h.Product.UpdateProduct)
			ur.Post("/{id}/deactivate", h.Product.DeactivateProduct)
		})
	})
}

func registerWishlistRoutes(r chi.Router, h Handlers) {
	r.Route("/wishlists", func(wr chi.Router) {
		// readable by any authenticated principal
		wr.Get("/shared/{id}", h.Wishlist.GetSharedWishlist)

		wr.Group(func(cr chi.Router) {
			cr.Use(h.RBAC.RequireRoles(auth.RoleCustomer))

			cr.Get("/", h.Wishlist.ListWishlists)
			cr.Post("/", h.Wishlist.CreateWishlist)

			cr.Get("/default", h.Wishlist.GetDefaultWishlist)
			cr.Post("/default/items", h.Wishlist.AddItemToDefault)

			cr.Patch("/items/{itemID}", h.Wishlist.UpdateItem)
			cr.Delete("/items/{itemID}", h.Wishlist.RemoveItem)
			cr.Post("/items/{itemID}/move", h.Wishlist.MoveItem)

			cr.Get("/{id}", h.Wishlist.GetWishlist)
			cr.Patch("/{id}", h.Wishlist.UpdateWishlist)
			cr.Delete("/{id}", h.Wishlist.DeleteWishlist)
			cr.Put("/{id}/default", h.Wishlist.SetDefaultWishlist)
			cr.Post("/{id}/items", h.Wishlist.AddItem)
		})
	})
}

func registerOrderRoutes(r chi.Router, h Handlers) {
	r.Route("/orders", func(or chi.Router) {
		or.Use(h.RBAC.RequireRoles(auth.RoleCustomer))

		or.Post("/", h.Order.CreateOrder)
		or.Get("/", h.Order.ListMyOrders)
		or.Get("/{id}", h.Order.GetMyOrder)
		or.Post("/{id}/cancel", h.Order.CancelMyOrder)
	})
}

func registerAdminRoutes(r chi.Router, h Handlers) {
	r.Route("/admin", func(ar chi.Router) {
		if h.User != nil {
			ar.With(h.RBAC.RequirePermissions(auth.PermUserView)).Get("/users", h.User.ListUsers)
			ar.With(h.RBAC.RequirePermissions(auth.PermUserCreate)).Post("/users", h.User.CreateUser)
			ar.With(h.RBAC.RequirePermissions(auth.PermUserView)).Get("/users/{id}", h.User.GetUser)
			ar.With(h.RBAC.RequirePermissions(auth.PermUserUpdate)).Patch("/users/{id}", h.User.UpdateUser)
			ar.With(h.RBAC.RequirePermissions(auth.PermUserDelete)).Delete("/users/{id}", h.User.DeleteUser)
		}

		ar.With(h.RBAC.RequirePermissions(auth.PermRoleView)).Get("/roles", h.Auth.ListRoles)
		ar.Group(func(rr chi.Router) {
			rr.Use(h.RBAC.RequirePermissions(auth.PermRoleAssign))
			rr.Post("/users/{id}/roles", h.Auth.AssignRole)
			rr.Delete("/users/{id}/roles/{role}", h.Auth.RevokeRole)
		})

		if h.Order == nil {
			return
		}

		ar.Group(func(vr chi.Router) {
			vr.Use(h.RBAC.RequirePermissions(auth.PermOrderView))
			vr.Get("/orders", h.Order.ListOrders)
			vr.Get("/orders/summary", h.Order.OrderSummary)
			vr.Get("/orders/{id}", h.Order.GetOrder)
		})

		ar.Group(func(ur chi.Router) {
			ur.Use(h.RBAC.RequirePermissions(auth.PermOrderUpdate))
			ur.Patch("/orders/{id}/status", h.Order.UpdateOrderStatus)
		})

		ar.Group(func(dr chi.Router) {
			dr.Use(h.RBAC.RequirePermissions(auth.PermOrderDelete))
			dr.Delete("/orders/{id}", h.Order.DeleteOrder)
		})
	})
}
