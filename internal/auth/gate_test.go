package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Gate", func() {
	var (
		repo *mockRepository
		gate *Gate
		ctx  context.Context
	)

	customer := &Principal{ID: 1, Username: "jane"}
	manager := &Principal{ID: 2, Username: "mark"}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		gate = NewGate(repo, testLogger())
	})

	ginkgo.DescribeTable("CheckRole grants iff the assigned roles intersect the accepted set",
		func(p *Principal, accepted []string, want error) {
			err := gate.CheckRole(ctx, p, accepted...)
			if want == nil {
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				return
			}
			gomega.Expect(errors.Is(err, want)).To(gomega.BeTrue(), "got %v", err)
		},
		ginkgo.Entry("single matching role", customer, []string{RoleCustomer}, nil),
		ginkgo.Entry("one of several accepted", manager, []string{RoleAdmin, RoleManager}, nil),
		ginkgo.Entry("no overlap", customer, []string{RoleAdmin, RoleSuperAdmin}, internal.ErrInsufficientRole),
		ginkgo.Entry("empty accepted set", customer, []string{}, internal.ErrInsufficientRole),
		ginkgo.Entry("anonymous", (*Principal)(nil), []string{RoleCustomer}, internal.ErrUnauthenticated),
		ginkgo.Entry("principal missing from store", &Principal{ID: 404}, []string{RoleCustomer}, internal.ErrUnauthenticated),
	)

	ginkgo.DescribeTable("CheckPermission grants iff the union of role permissions intersects the accepted set",
		func(p *Principal, accepted []string, want error) {
			err := gate.CheckPermission(ctx, p, accepted...)
			if want == nil {
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				return
			}
			gomega.Expect(errors.Is(err, want)).To(gomega.BeTrue(), "got %v", err)
		},
		ginkgo.Entry("manager may view orders", manager, []string{PermOrderView}, nil),
		ginkgo.Entry("manager may not delete orders", manager, []string{PermOrderDelete}, internal.ErrInsufficientPermission),
		ginkgo.Entry("any accepted permission suffices", manager, []string{PermOrderDelete, PermOrderUpdate}, nil),
		ginkgo.Entry("customer wishlist access", customer, []string{PermWishlistManage}, nil),
		ginkgo.Entry("no implication from own to all", customer, []string{PermOrderView}, internal.ErrInsufficientPermission),
		ginkgo.Entry("anonymous", (*Principal)(nil), []string{PermOrderView}, internal.ErrUnauthenticated),
	)

	ginkgo.It("unions permissions across several roles", func() {
		repo.assignments[1] = []string{RoleCustomer, RoleSupplier}
		gomega.Expect(gate.CheckPermission(ctx, customer, PermProductCreate)).To(gomega.Succeed())
		gomega.Expect(gate.CheckPermission(ctx, customer, PermWishlistManage)).To(gomega.Succeed())
	})

	ginkgo.It("maps store failures to an internal error", func() {
		repo.lookupErr = errors.New("connection reset")

		err := gate.CheckRole(ctx, customer, RoleCustomer)
		appErr, ok := internal.IsAppError(err)
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInternal))
		gomega.Expect(appErr.StatusCode).To(gomega.Equal(500))
	})

	ginkgo.It("reads the store on every call", func() {
		for i := 0; i < 3; i++ {
			gomega.Expect(gate.CheckRole(ctx, customer, RoleCustomer)).To(gomega.Succeed())
		}
		gomega.Expect(repo.lookups).To(gomega.Equal(3))

		repo.assignments[1] = nil
		gomega.Expect(gate.CheckRole(ctx, customer, RoleCustomer)).To(gomega.MatchError(internal.ErrInsufficientRole))
	})

	ginkgo.It("returns the de-duplicated permission union", func() {
		repo.assignments[2] = []string{RoleManager, RoleSupplier}
		roles, perms, err := gate.Permissions(ctx, manager)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(roles).To(gomega.HaveLen(2))
		gomega.Expect(perms).To(gomega.ConsistOf(PermOrderView, PermOrderUpdate, PermProductView, PermUserView, PermProductCreate, PermProductUpdate))
	})
})

var _ = ginkgo.Describe("HTTP middleware", func() {
	var (
		repo    *mockRepository
		handler *Handler
		rbac    *RBACAuthorization
		tokens  *JWTTokenGenerator
	)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	bearer := func(p *Principal) string {
		token, _, err := tokens.GenerateAccessToken(p)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return "Bearer " + token
	}

	serve := func(h http.Handler, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders/9", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		tokens = NewJWTTokenGenerator("access-secret-access-secret-access", "refresh-secret-refresh-secret-ref", time.Minute, time.Hour)
		svc := NewService(repo, tokens, passthroughTx{}, nil, testLogger())
		handler = NewHandler(svc, testLogger())
		rbac = NewRBACAuthorization(NewGate(repo, testLogger()), testLogger())
	})

	ginkgo.It("answers 401 without a bearer token", func() {
		rec := serve(handler.AuthMiddleware(rbac.RequirePermissions(PermOrderDelete)(ok)), "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"status":"error"`))
	})

	ginkgo.It("answers 401 for a garbage token", func() {
		rec := serve(handler.AuthMiddleware(ok), "Bearer garbage")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("answers 403 when the permission is missing", func() {
		h := handler.AuthMiddleware(rbac.RequirePermissions(PermOrderDelete)(ok))
		rec := serve(h, bearer(&Principal{ID: 2, Username: "mark"}))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("INSUFFICIENT_PERMISSION"))
	})

	ginkgo.It("passes when the role matches", func() {
		h := handler.AuthMiddleware(rbac.RequireRoles(RoleManager, RoleAdmin)(ok))
		rec := serve(h, bearer(&Principal{ID: 2, Username: "mark"}))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("answers 401 when the token names a deleted user", func() {
		h := handler.AuthMiddleware(rbac.RequireRoles(RoleCustomer)(ok))
		rec := serve(h, bearer(&Principal{ID: 404, Username: "ghost"}))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("answers 401 when the gate runs without AuthMiddleware", func() {
		rec := serve(rbac.RequireRoles(RoleCustomer)(ok), "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})
