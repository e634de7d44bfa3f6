// Package app wires configuration, storage, services and HTTP handlers into
// a ready-to-serve fiber application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/redisstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const sessionCookieName = "storefront_session"

// Options carries optional collaborators.
type Options struct {
	// Publisher receives order events. Nil disables them.
	Publisher services.OrderPublisher
	// SessionStorage overrides the storage chosen by the config.
	SessionStorage fiber.Storage
	// AccessLog receives the request log. Defaults to os.Stdout.
	AccessLog io.Writer
}

// App is the assembled application.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Products *services.ProductService
	Checkout *services.CheckoutService
	Registry *prometheus.Registry

	cfg     *config.Config
	db      *gorm.DB
	log     zerolog.Logger
	closers []func() error
}

type repositorySet struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	orders   repositories.OrderRepository
}

// New builds the application described by cfg.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	a := &App{cfg: cfg, log: log}

	repos, err := a.openRepositories(cfg.Database)
	if err != nil {
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.Registry)

	a.Auth = services.NewAuthService(repos.users, cfg.Auth, m, log)
	a.Products = services.NewProductService(repos.products)
	a.Checkout = services.NewCheckoutService(repos.orders, opts.Publisher, m, log)

	storage := opts.SessionStorage
	if storage == nil && cfg.Session.Store == config.SessionStoreRedis {
		rs, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect session store: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		storage = rs
	}

	store := session.New(session.Config{
		Expiration:     cfg.Session.Expiration,
		Storage:        storage,
		KeyLookup:      "cookie:" + sessionCookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieSameSite: "Lax",
	})
	store.RegisterType([]uint{})

	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	a.Fiber = fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: handlers.NewErrorHandler(log),
	})
	a.Fiber.Use(recover.New())
	a.Fiber.Use(fiberlogger.New(fiberlogger.Config{Output: accessLog}))
	a.Fiber.Use(middleware.Session(store))
	a.Fiber.Use(middleware.Identify(a.Auth))

	a.registerRoutes()
	return a, nil
}

func (a *App) openRepositories(cfg config.DatabaseConfig) (*repositorySet, error) {
	if cfg.Driver == config.DriverMemory {
		products := repositories.NewMemoryProductRepository()
		return &repositorySet{
			products: products,
			users:    repositories.NewMemoryUserRepository(),
			orders:   repositories.NewMemoryOrderRepository(products),
		}, nil
	}

	db, err := database.Open(cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() error { return database.Close(db) })

	return &repositorySet{
		products: repositories.NewGORMProductRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
	}, nil
}

func (a *App) registerRoutes() {
	productHandler := handlers.NewProductHandler(a.Products, a.Auth)
	authHandler := handlers.NewAuthHandler(a.Auth)
	cartHandler := handlers.NewCartHandler(a.Products, a.Checkout, a.log)
	adminHandler := handlers.NewAdminHandler(a.Products)

	a.Fiber.Get("/", productHandler.HandleHome)
	a.Fiber.Get("/health", a.handleHealth)
	a.Fiber.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	apiV1 := a.Fiber.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1, middleware.RequireLogin(a.Auth))
	adminHandler.RegisterRoutes(apiV1.Group("/admin", middleware.RequireAdmin(a.Auth)))
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		status["database"] = "connected"
	}
	return c.JSON(status)
}

// Bootstrap creates the first administrator from the configured credential.
// When no password is configured a random one is generated and logged once.
func (a *App) Bootstrap(ctx context.Context) error {
	created, password, err := a.Auth.EnsureAdmin(ctx, a.cfg.Auth.AdminUsername, a.cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	if a.cfg.Auth.AdminPassword == "" {
		a.log.Warn().
			Str("username", a.cfg.Auth.AdminUsername).
			Str("password", password).
			Msg("admin account created with a generated password; set ADMIN_PASSWORD or change it")
	} else {
		a.log.Info().Str("username", a.cfg.Auth.AdminUsername).Msg("admin account created")
	}
	return nil
}

// Close releases storage connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
