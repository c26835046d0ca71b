package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopfront/internal/config"
	"shopfront/internal/models"
)

func testConfig(t *testing.T, persistence string) *config.Config {
	t.Helper()
	return &config.Config{
		CartPersistence: persistence,
		CartSlot:        "cart",
		SQLitePath:      filepath.Join(t.TempDir(), "shopfront.db"),
		Offline:         true,
		LogLevel:        "info",
	}
}

func TestNewCartSlot_None(t *testing.T) {
	slot, cleanup, err := newCartSlot(context.Background(), testConfig(t, config.PersistenceNone))
	require.NoError(t, err)
	assert.Nil(t, slot)
	assert.NoError(t, cleanup.Close())
}

func TestNewCartSlot_UnknownBackend(t *testing.T) {
	_, _, err := newCartSlot(context.Background(), testConfig(t, "floppy"))
	assert.Error(t, err)
}

// The cart survives a restart for every durable backend.
func TestBuildServices_CartSurvivesRestart(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	for _, backend := range []string{config.PersistenceSQLite, config.PersistenceRedis} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)
			cfg.RedisURL = "redis://" + mr.Addr() + "/0"
			cfg.CartSlot = "cart-" + backend

			catalog, cart, cleanup, err := buildServices(ctx, cfg, zap.NewNop())
			require.NoError(t, err)
			require.NoError(t, catalog.FetchAll(ctx))

			products := catalog.Products()
			require.Len(t, products, 3)
			cart.AddToCart(ctx, products[0])
			cart.AddToCart(ctx, products[0])
			cart.AddToCart(ctx, products[1])
			require.NoError(t, cleanup.Close())

			_, restored, cleanup, err := buildServices(ctx, cfg, zap.NewNop())
			require.NoError(t, err)
			defer cleanup.Close()

			assert.Equal(t, 3, restored.TotalUnits())
			entries := restored.Entries()
			require.Len(t, entries, 2)
			assert.Equal(t, products[0].ID, entries[0].Product.ID)
			assert.Equal(t, 2, entries[0].Quantity)
			assert.Equal(t, products[1].Title, entries[1].Product.Title)
			assert.Equal(t, 1, entries[1].Quantity)
		})
	}
}

func TestSeedProducts(t *testing.T) {
	repo := newProductRepository(context.Background(), testConfig(t, config.PersistenceNone), zap.NewNop())
	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, p := range all {
		assert.NoError(t, models.ValidateInput(models.ProductInput{
			Title: p.Title, Price: p.Price, Description: p.Description, CategoryID: p.CategoryID, Images: p.Images,
		}))
	}
}

func TestProductsCommandOffline(t *testing.T) {
	t.Setenv("OFFLINE", "true")
	t.Setenv("CART_PERSISTENCE", "none")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"products"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "TITLE")
	assert.Contains(t, out.String(), "Laptop")
	assert.Contains(t, out.String(), "1200.00")
}
