package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/shop-backoffice/internal/auth"
	authpg "github.com/frahmantamala/shop-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel"
	productdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/product"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/order"
	orderpg "github.com/frahmantamala/shop-backoffice/internal/order/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/product"
	productpg "github.com/frahmantamala/shop-backoffice/internal/product/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/internal/transport"
	"github.com/frahmantamala/shop-backoffice/internal/transport/rest"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	userpg "github.com/frahmantamala/shop-backoffice/internal/user/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/wishlist"
	wishlistpg "github.com/frahmantamala/shop-backoffice/internal/wishlist/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Router Suite")
}

var _ = Describe("Router", func() {
	var (
		db       *gorm.DB
		router   *chi.Mux
		tokens   *auth.JWTTokenGenerator
		users    *user.Service
		gate     *auth.Gate
		ctx      context.Context
		customer *user.User
		other    *user.User
		manager  *user.User
		admin    *user.User
		root     *user.User
		mug      int64
	)

	bearer := func(u *user.User) string {
		token, _, err := tokens.GenerateAccessToken(&auth.Principal{ID: u.ID, Username: u.Username, Email: u.Email})
		Expect(err).NotTo(HaveOccurred())
		return "Bearer " + token
	}

	call := func(method, path string, as *user.User, body interface{}) (*httptest.ResponseRecorder, transport.Envelope) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if as != nil {
			req.Header.Set("Authorization", bearer(as))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var env transport.Envelope
		if rec.Body.Len() > 0 {
			Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
		}
		return rec, env
	}

	createUser := func(username string, roles ...string) *user.User {
		u, err := users.Provision(ctx, user.CreateUserDTO{
			Username: username,
			Email:    username + "@shop.test",
			Password: "s3cret-pass",
			Roles:    roles,
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = store.OpenMemory(datamodel.All()...)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tx := store.NewTransactor(db)
		publisher := events.NopPublisher{}

		authRepo := authpg.NewRepository(db)
		Expect(authRepo.EnsureRoles(ctx, auth.DefaultRoles)).To(Succeed())
		gate = auth.NewGate(authRepo, logger)
		tokens = auth.NewJWTTokenGenerator(
			"access-secret-access-secret-0123456789",
			"refresh-secret-refresh-secret-0123456789",
			15*time.Minute, time.Hour)

		users = user.NewService(userpg.NewUserRepository(db), authRepo, gate, tx, publisher, bcrypt.MinCost, logger)
		summaries, err := orderpg.NewSummaryRepository(db)
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:     auth.NewHandler(auth.NewService(authRepo, tokens, tx, publisher, logger), logger),
			RBAC:     auth.NewRBACAuthorization(gate, logger),
			User:     user.NewHandler(users, logger),
			Product:  product.NewHandler(product.NewService(productpg.NewProductRepository(db), tx, logger), logger),
			Wishlist: wishlist.NewHandler(wishlist.NewService(wishlistpg.NewWishlistRepository(db), tx, publisher, logger), logger),
			Order:    order.NewHandler(order.NewService(orderpg.NewOrderRepository(db), summaries, tx, publisher, logger), logger),
		}, rest.Options{
			DB:             sqlDB,
			DBComponent:    "sqlite",
			AllowedOrigins: "*",
		}, logger)

		customer = createUser("jane", auth.RoleCustomer)
		other = createUser("kim", auth.RoleCustomer)
		manager = createUser("mark", auth.RoleManager)
		admin = createUser("adam", auth.RoleAdmin)
		root = createUser("root", auth.RoleSuperAdmin)

		row := &productdm.Product{SKU: "MUG", Name: "Mug", PriceCents: 1200, IsActive: true}
		Expect(db.Create(row).Error).To(Succeed())
		mug = row.ID
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	It("reports database health", func() {
		rec, _ := call(http.MethodGet, "/api/v1/health", nil, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"sqlite"`))
	})

	It("rejects anonymous callers with 401", func() {
		rec, env := call(http.MethodGet, "/api/v1/wishlists", nil, nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(env.Status).To(Equal(transport.StatusError))
	})

	It("logs in with username and password", func() {
		rec, env := call(http.MethodPost, "/api/v1/auth/login", nil, map[string]string{"login": "jane", "password": "s3cret-pass"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Data).To(HaveKey("access_token"))
	})

	It("lets a manager view orders but not delete them", func() {
		rec, _ := call(http.MethodGet, "/api/v1/admin/orders", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, env := call(http.MethodDelete, "/api/v1/admin/orders/1", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(env.Code).To(Equal("INSUFFICIENT_PERMISSION"))
	})

	It("keeps customers out of the admin surface", func() {
		rec, env := call(http.MethodGet, "/api/v1/admin/users", customer, nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(env.Code).To(Equal("INSUFFICIENT_PERMISSION"))
	})

	It("gates user administration by user permissions", func() {
		rec, _ := call(http.MethodGet, "/api/v1/admin/users", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, env := call(http.MethodPost, "/api/v1/admin/users", manager, map[string]interface{}{
			"username": "nina", "email": "nina@shop.test", "password": "s3cret-pass",
		})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(env.Code).To(Equal("INSUFFICIENT_PERMISSION"))

		rec, _ = call(http.MethodPost, "/api/v1/admin/users", admin, map[string]interface{}{
			"username": "nina", "email": "nina@shop.test", "password": "s3cret-pass",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("stops an admin from granting roles", func() {
		adminPrincipal := &auth.Principal{ID: admin.ID, Username: admin.Username}

		rec, env := call(http.MethodPost, "/api/v1/admin/users/"+jsonID(admin.ID)+"/roles", admin, map[string]string{"role": auth.RoleSuperAdmin})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(env.Code).To(Equal("INSUFFICIENT_PERMISSION"))
		Expect(gate.CheckRole(ctx, adminPrincipal, auth.RoleSuperAdmin)).To(MatchError(ContainSubstring("insufficient role")))

		rec, _ = call(http.MethodDelete, "/api/v1/admin/users/"+jsonID(root.ID)+"/roles/"+auth.RoleSuperAdmin, admin, nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		rec, env = call(http.MethodPost, "/api/v1/admin/users", admin, map[string]interface{}{
			"username": "eve", "email": "eve@shop.test", "password": "s3cret-pass",
			"roles": []string{auth.RoleSuperAdmin},
		})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(env.Code).To(Equal("INSUFFICIENT_PERMISSION"))
	})

	It("lets a superadmin grant roles", func() {
		rec, _ := call(http.MethodPost, "/api/v1/admin/users/"+jsonID(manager.ID)+"/roles", root, map[string]string{"role": auth.RoleAdmin})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(gate.CheckRole(ctx, &auth.Principal{ID: manager.ID}, auth.RoleAdmin)).To(Succeed())
	})

	It("answers 401 once the account is deactivated", func() {
		rec, _ := call(http.MethodGet, "/api/v1/wishlists", customer, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		inactive := false
		_, err := users.Update(ctx, &auth.Principal{ID: root.ID}, customer.ID, user.UpdateUserDTO{IsActive: &inactive})
		Expect(err).NotTo(HaveOccurred())

		rec, _ = call(http.MethodGet, "/api/v1/wishlists", customer, nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("keeps staff without the customer role out of wishlists", func() {
		rec, _ := call(http.MethodGet, "/api/v1/wishlists/default", manager, nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("answers 404 for another customer's wishlist and serves it once shared", func() {
		rec, env := call(http.MethodPost, "/api/v1/wishlists", other, map[string]interface{}{"name": "Kim's picks"})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		id := int64(env.Data.(map[string]interface{})["id"].(float64))
		path := "/api/v1/wishlists/" + jsonID(id)

		rec, _ = call(http.MethodGet, path, customer, nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))

		rec, _ = call(http.MethodGet, "/api/v1/wishlists/shared/"+jsonID(id), manager, nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))

		rec, _ = call(http.MethodPatch, path, other, map[string]interface{}{"is_public": true})
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, _ = call(http.MethodGet, "/api/v1/wishlists/shared/"+jsonID(id), manager, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("adds to the default wishlist and refuses duplicates with 400", func() {
		body := map[string]interface{}{"product_id": mug}
		rec, _ := call(http.MethodPost, "/api/v1/wishlists/default/items", customer, body)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec, env := call(http.MethodPost, "/api/v1/wishlists/default/items", customer, body)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Code).To(Equal("DUPLICATE_WISHLIST_ITEM"))
	})

	It("places an order and lets the manager advance it", func() {
		rec, env := call(http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
			"items": []map[string]interface{}{{"product_id": mug, "quantity": 2}},
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		id := int64(env.Data.(map[string]interface{})["id"].(float64))

		rec, _ = call(http.MethodPatch, "/api/v1/admin/orders/"+jsonID(id)+"/status", manager, map[string]interface{}{"status": "processing"})
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec, _ = call(http.MethodGet, "/api/v1/orders/"+jsonID(id), other, nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
