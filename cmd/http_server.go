package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	authpg "github.com/frahmantamala/shop-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/order"
	orderpg "github.com/frahmantamala/shop-backoffice/internal/order/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/product"
	productpg "github.com/frahmantamala/shop-backoffice/internal/product/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/internal/transport/rest"
	"github.com/frahmantamala/shop-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	userpg "github.com/frahmantamala/shop-backoffice/internal/user/postgres"
	"github.com/frahmantamala/shop-backoffice/internal/wishlist"
	wishlistpg "github.com/frahmantamala/shop-backoffice/internal/wishlist/postgres"
	"github.com/frahmantamala/shop-backoffice/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	EventBus *events.EventBus
	Kafka    *events.KafkaForwarder
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("server stopped")
}

// close drains in-flight event handlers before releasing the sinks they write to.
func (d *Dependencies) close() {
	d.EventBus.Wait()
	if d.Kafka != nil {
		if err := d.Kafka.Close(); err != nil {
			d.Logger.Error("kafka writer close error", "error", err)
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("database close error", "error", err)
		}
	}
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	if cfg.Server.OpenAPIPath != "" {
		if _, err := swagger.Load(context.Background(), cfg.Server.OpenAPIPath); err != nil {
			return err
		}
	}

	tx := store.NewTransactor(deps.DB)
	publisher := deps.EventBus

	authRepo := authpg.NewRepository(deps.DB)
	gate := auth.NewGate(authRepo, lg)
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokens, tx, publisher, lg)

	userService := user.NewService(userpg.NewUserRepository(deps.DB), authRepo, gate, tx, publisher, cfg.Security.BCryptCost, lg)
	productService := product.NewService(productpg.NewProductRepository(deps.DB), tx, lg)
	wishlistService := wishlist.NewService(wishlistpg.NewWishlistRepository(deps.DB), tx, publisher, lg)

	summaries, err := orderpg.NewSummaryRepository(deps.DB)
	if err != nil {
		return err
	}
	orderService := order.NewService(orderpg.NewOrderRepository(deps.DB), summaries, tx, publisher, lg)

	sqlDB, err := deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:     auth.NewHandler(authService, lg),
		RBAC:     auth.NewRBACAuthorization(gate, lg),
		User:     user.NewHandler(userService, lg),
		Product:  product.NewHandler(productService, lg),
		Wishlist: wishlist.NewHandler(wishlistService, lg),
		Order:    order.NewHandler(orderService, lg),
	}, rest.Options{
		DB:             sqlDB,
		DBComponent:    cfg.Database.Driver,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
		RequestTimeout: cfg.Server.WriteTimeout,
	}, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := store.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	deps := &Dependencies{
		Config:   config,
		DB:       db,
		EventBus: bus,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}

	if k := config.Events.Kafka; k.Enabled {
		deps.Kafka = events.NewKafkaForwarder(k.Brokers, k.Topic, lg)
		deps.Kafka.Attach(bus, events.AllEventTypes...)
		lg.Info("forwarding domain events to kafka", "brokers", k.Brokers, "topic", k.Topic)
	}

	return deps, nil
}
