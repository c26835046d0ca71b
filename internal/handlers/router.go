package handlers

import (
	"time"

	"shopfront/internal/middleware"
	"shopfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// AppOptions configures NewApp.
type AppOptions struct {
	// JWTSecret protects catalog writes when set.
	JWTSecret string
	// RequestLog enables fiber's access log.
	RequestLog bool
	Logger     *zap.Logger
}

// NewApp builds the Fiber app serving the catalog and the cart under /api/v1.
func NewApp(catalog *services.CatalogService, cart *services.CartService, opts AppOptions) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{AppName: "shopfront"})
	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"products": len(catalog.Products()),
		})
	})

	var writeGuards []fiber.Handler
	if opts.JWTSecret != "" {
		writeGuards = append(writeGuards, middleware.AdminRequired(opts.JWTSecret, opts.Logger))
	}

	apiV1 := app.Group("/api/v1")
	NewProductHandler(catalog, opts.Logger).RegisterRoutes(apiV1, writeGuards...)
	NewCartHandler(cart, catalog).RegisterRoutes(apiV1)

	return app
}
