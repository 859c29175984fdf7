package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	authpg "github.com/frahmantamala/shop-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel"
	userdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	"github.com/frahmantamala/shop-backoffice/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Module Suite")
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.types = append(p.types, e.EventType())
	return nil
}

var _ = Describe("Service", func() {
	var (
		db        *gorm.DB
		svc       *user.Service
		publisher *recordingPublisher
		ctx       context.Context
		admin     *auth.Principal
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = store.OpenMemory(datamodel.All()...)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		authRepo := authpg.NewRepository(db)
		Expect(authRepo.EnsureRoles(ctx, auth.DefaultRoles)).To(Succeed())

		publisher = &recordingPublisher{}
		svc = user.NewService(
			postgres.NewUserRepository(db),
			authRepo,
			auth.NewGate(authRepo, logger),
			store.NewTransactor(db),
			publisher,
			bcrypt.MinCost,
			logger,
		)
		root, err := svc.Provision(ctx, user.CreateUserDTO{
			Username: "root",
			Email:    "root@shop.test",
			Password: "s3cret-pass",
			Roles:    []string{auth.RoleSuperAdmin},
		})
		Expect(err).NotTo(HaveOccurred())
		admin = &auth.Principal{ID: root.ID, Username: root.Username}
		publisher.types = nil
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	create := func(username, email string, roles ...string) *user.User {
		u, err := svc.Create(ctx, admin, user.CreateUserDTO{
			Username:  username,
			Email:     email,
			Password:  "s3cret-pass",
			FirstName: "Jane",
			LastName:  "Doe",
			Roles:     roles,
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	Describe("Create", func() {
		It("hashes the password, adds a customer row and defaults to the customer role", func() {
			u := create("jane", "Jane@Shop.test")

			Expect(u.ID).To(BeNumerically(">", 0))
			Expect(u.Email).To(Equal("jane@shop.test"))
			Expect(u.Roles).To(Equal([]string{auth.RoleCustomer}))
			Expect(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass"))).To(Succeed())

			var customers int64
			Expect(db.Model(&userdm.Customer{}).Where("user_id = ?", u.ID).Count(&customers).Error).To(Succeed())
			Expect(customers).To(Equal(int64(1)))

			stored, err := svc.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Roles).To(Equal([]string{auth.RoleCustomer}))
			Expect(publisher.types).To(Equal([]string{events.EventTypeUserCreated}))
		})

		It("assigns the requested roles instead of the default", func() {
			u := create("mark", "mark@shop.test", auth.RoleManager, auth.RoleSupplier)
			stored, err := svc.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Roles).To(ConsistOf(auth.RoleManager, auth.RoleSupplier))
		})

		It("re-checks email and username uniqueness", func() {
			create("jane", "jane@shop.test")

			_, err := svc.Create(ctx, admin, user.CreateUserDTO{Username: "jane2", Email: "JANE@shop.test", Password: "s3cret-pass"})
			Expect(errors.Is(err, internal.ErrEmailTaken)).To(BeTrue())

			_, err = svc.Create(ctx, admin, user.CreateUserDTO{Username: "jane", Email: "other@shop.test", Password: "s3cret-pass"})
			Expect(errors.Is(err, internal.ErrUsernameTaken)).To(BeTrue())
		})

		It("rejects an unknown role as bad input and rolls the user back", func() {
			_, err := svc.Create(ctx, admin, user.CreateUserDTO{Username: "kim", Email: "kim@shop.test", Password: "s3cret-pass", Roles: []string{"wizard"}})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors[0].Field).To(Equal("roles"))
			Expect(details.Errors[0].Message).To(ContainSubstring("wizard"))

			var count int64
			Expect(db.Model(&userdm.User{}).Where("username = ?", "kim").Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})

		It("requires role:assign to request roles", func() {
			staff := create("adam", "adam@shop.test", auth.RoleAdmin)
			actor := &auth.Principal{ID: staff.ID, Username: staff.Username}

			_, err := svc.Create(ctx, actor, user.CreateUserDTO{
				Username: "eve", Email: "eve@shop.test", Password: "s3cret-pass",
				Roles: []string{auth.RoleSuperAdmin},
			})
			Expect(errors.Is(err, internal.ErrInsufficientPermission)).To(BeTrue())

			var count int64
			Expect(db.Model(&userdm.User{}).Where("username = ?", "eve").Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())

			u, err := svc.Create(ctx, actor, user.CreateUserDTO{Username: "eve", Email: "eve@shop.test", Password: "s3cret-pass"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Roles).To(Equal([]string{auth.RoleCustomer}))
		})

		It("validates required fields", func() {
			_, err := svc.Create(ctx, admin, user.CreateUserDTO{Username: "jo", Email: "not-an-email", Password: "short"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("username"))
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("email"))
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("password"))
		})
	})

	Describe("Update", func() {
		It("applies partial changes and can deactivate", func() {
			u := create("jane", "jane@shop.test")
			inactive := false
			first := "Janet"

			updated, err := svc.Update(ctx, admin, u.ID, user.UpdateUserDTO{FirstName: &first, IsActive: &inactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.FirstName).To(Equal("Janet"))
			Expect(updated.LastName).To(Equal("Doe"))
			Expect(updated.IsActive).To(BeFalse())

			stored, err := svc.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsActive).To(BeFalse())
		})

		It("rejects taking another user's email", func() {
			create("jane", "jane@shop.test")
			mark := create("mark", "mark@shop.test")
			email := "jane@shop.test"

			_, err := svc.Update(ctx, admin, mark.ID, user.UpdateUserDTO{Email: &email})
			Expect(errors.Is(err, internal.ErrEmailTaken)).To(BeTrue())
		})

		It("allows keeping the same email", func() {
			jane := create("jane", "jane@shop.test")
			email := "jane@shop.test"
			_, err := svc.Update(ctx, admin, jane.ID, user.UpdateUserDTO{Email: &email})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports unknown users", func() {
			first := "x"
			_, err := svc.Update(ctx, admin, 999, user.UpdateUserDTO{FirstName: &first})
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the user and its role assignments", func() {
			u := create("jane", "jane@shop.test")
			Expect(svc.Delete(ctx, admin, u.ID)).To(Succeed())

			_, err := svc.GetByID(ctx, u.ID)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())

			var assignments int64
			Expect(db.Table("user_roles").Where("user_id = ?", u.ID).Count(&assignments).Error).To(Succeed())
			Expect(assignments).To(BeZero())
			Expect(publisher.types).To(ContainElement(events.EventTypeUserDeleted))
		})

		It("refuses to delete the acting user", func() {
			u := create("jane", "jane@shop.test")
			err := svc.Delete(ctx, &auth.Principal{ID: u.ID}, u.ID)
			Expect(errors.Is(err, internal.ErrCannotDeleteSelf)).To(BeTrue())
		})

		It("reports unknown users", func() {
			err := svc.Delete(ctx, admin, 999)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("List and profile", func() {
		It("filters by search and pages results", func() {
			create("jane", "jane@shop.test")
			create("mark", "mark@shop.test")
			create("janet", "janet@shop.test")

			result, err := svc.List(ctx, user.ListFilter{Search: "jan", Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))
			Expect(result.Users).To(HaveLen(1))
			Expect(result.Users[0].Username).To(Equal("jane"))
		})

		It("returns roles and the permission union for the current user", func() {
			u := create("mark", "mark@shop.test", auth.RoleManager)

			profile, err := svc.GetProfile(ctx, &auth.Principal{ID: u.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Roles).To(Equal([]string{auth.RoleManager}))
			Expect(profile.Permissions).To(ContainElement(auth.PermOrderView))
			Expect(profile.Permissions).NotTo(ContainElement(auth.PermOrderDelete))
		})
	})
})
