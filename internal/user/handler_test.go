package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	created user.CreateUserDTO
	actor   *auth.Principal
	err     error
}

func (s *stubService) GetProfile(ctx context.Context, p *auth.Principal) (*user.Profile, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	return &user.Profile{User: &user.User{ID: p.ID, Username: p.Username, Roles: []string{"customer"}}, Permissions: []string{"wishlist:manage"}}, nil
}

func (s *stubService) List(ctx context.Context, filter user.ListFilter) (*user.ListResult, error) {
	return &user.ListResult{Users: []*user.User{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *stubService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &user.User{ID: id, Username: "jane"}, nil
}

func (s *stubService) Create(ctx context.Context, actor *auth.Principal, dto user.CreateUserDTO) (*user.User, error) {
	s.created, s.actor = dto, actor
	if s.err != nil {
		return nil, s.err
	}
	return &user.User{ID: 5, Username: dto.Username, PasswordHash: "secret-hash"}, nil
}

func (s *stubService) Update(ctx context.Context, actor *auth.Principal, id int64, dto user.UpdateUserDTO) (*user.User, error) {
	return &user.User{ID: id}, s.err
}

func (s *stubService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	return s.err
}

var _ = Describe("Handler", func() {
	var (
		svc    *stubService
		router *chi.Mux
	)

	BeforeEach(func() {
		svc = &stubService{}
		h := user.NewHandler(svc, nil)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := auth.ContextWithPrincipal(r.Context(), &auth.Principal{ID: 1, Username: "root"})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/users/me", h.GetCurrentUser)
		router.Get("/admin/users/{id}", h.GetUser)
		router.Post("/admin/users", h.CreateUser)
		router.Delete("/admin/users/{id}", h.DeleteUser)
	})

	do := func(method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var env map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
		return rec, env
	}

	It("wraps the profile in a success envelope", func() {
		rec, env := do(http.MethodGet, "/users/me", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env["status"]).To(Equal("success"))
		Expect(env["data"]).To(HaveKeyWithValue("permissions", ConsistOf("wishlist:manage")))
	})

	It("creates users and never echoes the password hash", func() {
		rec, env := do(http.MethodPost, "/admin/users", `{"username":"kim","email":"kim@shop.test","password":"s3cret-pass"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(env["status"]).To(Equal("success"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("secret-hash"))
		Expect(svc.created.Username).To(Equal("kim"))
		Expect(svc.actor.ID).To(Equal(int64(1)))
	})

	It("rejects unknown body fields", func() {
		rec, env := do(http.MethodPost, "/admin/users", `{"username":"kim","admin":true}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(env["status"]).To(Equal("error"))
	})

	It("rejects non-numeric ids", func() {
		rec, _ := do(http.MethodGet, "/admin/users/abc", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps validation errors to 400 with the message", func() {
		svc.err = internal.ErrEmailTaken
		rec, env := do(http.MethodPost, "/admin/users", `{"username":"kim","email":"kim@shop.test","password":"s3cret-pass"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(env["message"]).To(Equal("email is already in use"))
	})

	It("hides internal error details", func() {
		svc.err = internal.NewInternalError("failed to get user", context.DeadlineExceeded)
		rec, env := do(http.MethodGet, "/admin/users/3", "")
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(env["message"]).To(Equal("internal server error"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("deadline"))
	})

	It("maps not found to 404", func() {
		svc.err = internal.ErrUserNotFound
		rec, _ := do(http.MethodDelete, "/admin/users/3", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
