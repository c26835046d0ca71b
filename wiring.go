package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shopfront/internal/config"
	"shopfront/internal/models"
	"shopfront/internal/repositories"
	"shopfront/internal/services"
	"shopfront/pkg/rabbitmq"
)

// closers collects cleanup functions, run in reverse order.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newProductRepository picks the remote API or, offline, a seeded in-memory catalog.
func newProductRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) repositories.ProductRepository {
	if !cfg.Offline {
		return repositories.NewHTTPProductRepository(cfg.ProductsAPIURL, cfg.HTTPTimeout)
	}
	repo := repositories.NewMockProductRepository()
	seedProducts(ctx, repo, log)
	return repo
}

// seedProducts populates the offline catalog with some initial data.
func seedProducts(ctx context.Context, repo repositories.ProductRepository, log *zap.Logger) {
	products := []models.ProductInput{
		{Title: "Laptop", Description: "High performance laptop", Price: 1200, CategoryID: 2, Images: []string{"https://i.imgur.com/laptop.jpeg"}},
		{Title: "Keyboard", Description: "Mechanical keyboard", Price: 75, CategoryID: 2, Images: []string{"https://i.imgur.com/keyboard.jpeg"}},
		{Title: "Mouse", Description: "Ergonomic wireless mouse", Price: 25, CategoryID: 2, Images: []string{"https://i.imgur.com/mouse.jpeg"}},
	}
	for _, p := range products {
		created, err := repo.Create(ctx, p)
		if err != nil {
			log.Warn("Error seeding product", zap.String("title", p.Title), zap.Error(err))
			continue
		}
		log.Debug("Seeded product", zap.String("title", created.Title), zap.Int("id", created.ID))
	}
}

// newCartSlot opens the persistence backend selected by CART_PERSISTENCE.
// A nil slot means persistence is disabled.
func newCartSlot(ctx context.Context, cfg *config.Config) (repositories.SlotStore, closers, error) {
	switch cfg.CartPersistence {
	case config.PersistenceNone:
		return nil, nil, nil

	case config.PersistenceMemory:
		return repositories.NewMemorySlot(), nil, nil

	case config.PersistenceSQLite, config.PersistencePostgres:
		dialector := sqlite.Open(cfg.SQLitePath)
		if cfg.CartPersistence == config.PersistencePostgres {
			dialector = postgres.Open(cfg.DatabaseDSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		if err := db.WithContext(ctx).AutoMigrate(&models.StorageSlot{}); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repositories.NewGORMSlot(db, cfg.CartSlot), closers{sqlDB.Close}, nil

	case config.PersistenceRedis:
		client, err := repositories.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewRedisSlot(client, "shopfront", cfg.CartSlot), closers{client.Close}, nil
	}
	return nil, nil, fmt.Errorf("unknown cart persistence %q", cfg.CartPersistence)
}

// newPublisher connects to RabbitMQ when RABBITMQ_URL is set. A broker that is
// down only disables events.
func newPublisher(cfg *config.Config, log *zap.Logger) (services.EventPublisher, closers) {
	if cfg.RabbitMQURL == "" {
		return nil, nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
	if err != nil {
		log.Warn("Catalog events disabled", zap.Error(err))
		return nil, nil
	}
	return client, closers{client.Close}
}

// buildServices wires the catalog and cart services from cfg.
func buildServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*services.CatalogService, *services.CartService, closers, error) {
	var cleanup closers

	slot, slotClosers, err := newCartSlot(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup = append(cleanup, slotClosers...)

	publisher, mqClosers := newPublisher(cfg, log)
	cleanup = append(cleanup, mqClosers...)

	catalog := services.NewCatalogService(newProductRepository(ctx, cfg, log), publisher, log)
	cart := services.NewCartService(slot, log)
	if err := cart.Initialize(ctx); err != nil {
		log.Warn("Starting with an empty cart", zap.Error(err))
	}
	return catalog, cart, cleanup, nil
}
