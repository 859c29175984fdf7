package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	authpg "github.com/frahmantamala/shop-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/product"
	productpg "github.com/frahmantamala/shop-backoffice/internal/product/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	userpg "github.com/frahmantamala/shop-backoffice/internal/user/postgres"
	"github.com/frahmantamala/shop-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	seedAdminEmail    string
	seedAdminUsername string
	seedAdminPassword string
	seedDemoProducts  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, permissions and the superadmin account",
	Long:  `Idempotently seed the default roles with their permissions, a superadmin user and optionally demo products.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()
		ctx := context.Background()

		db, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		authRepo := authpg.NewRepository(db)
		if err := authRepo.EnsureRoles(ctx, auth.DefaultRoles); err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		lg.Info("seeded roles", "count", len(auth.DefaultRoles))

		tx := store.NewTransactor(db)
		userRepo := userpg.NewUserRepository(db)
		users := user.NewService(userRepo, authRepo, auth.NewGate(authRepo, lg), tx, events.NopPublisher{}, cfg.Security.BCryptCost, lg)

		exists, err := userRepo.ExistsByEmail(ctx, seedAdminEmail, 0)
		if err != nil {
			return fmt.Errorf("lookup superadmin: %w", err)
		}
		if exists {
			lg.Info("superadmin already exists; skipping", "email", seedAdminEmail)
		} else {
			u, err := users.Provision(ctx, user.CreateUserDTO{
				Username: seedAdminUsername,
				Email:    seedAdminEmail,
				Password: seedAdminPassword,
				Roles:    []string{auth.RoleSuperAdmin},
			})
			if err != nil {
				return fmt.Errorf("seed superadmin: %w", err)
			}
			lg.Info("seeded superadmin", "user_id", u.ID, "email", u.Email)
		}

		if seedDemoProducts {
			return seedProducts(ctx, product.NewService(productpg.NewProductRepository(db), tx, lg))
		}
		return nil
	},
}

// seedActor attributes seeded rows in logs.
var seedActor = &auth.Principal{Username: "seed"}

var demoProducts = []product.CreateProductDTO{
	{SKU: "MUG-001", Name: "Stoneware Mug", Description: "350 ml, dishwasher safe", PriceCents: 1499},
	{SKU: "LAMP-001", Name: "Desk Lamp", Description: "Warm white LED", PriceCents: 4599},
	{SKU: "BAG-001", Name: "Canvas Tote", Description: "Heavy cotton", PriceCents: 2199},
}

func seedProducts(ctx context.Context, svc *product.Service) error {
	lg := logger.LoggerWrapper()
	for _, dto := range demoProducts {
		p, err := svc.Create(ctx, seedActor, dto)
		if errors.Is(err, internal.ErrSKUTaken) {
			lg.Info("demo product already exists; skipping", "sku", dto.SKU)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed product %s: %w", dto.SKU, err)
		}
		lg.Info("seeded product", "product_id", p.ID, "sku", p.SKU)
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@shop.local", "superadmin email")
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "superadmin", "superadmin username")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "change-me-now", "superadmin password")
	seedCmd.Flags().BoolVar(&seedDemoProducts, "demo", false, "also seed demo products")
}
