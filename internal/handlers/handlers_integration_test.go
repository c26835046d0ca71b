package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"shopfront/internal/handlers"
	"shopfront/internal/models"
	"shopfront/internal/repositories"
	"shopfront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductsAPI serves a products collection the way the public API does.
type fakeProductsAPI struct {
	mu     sync.Mutex
	repo   *repositories.MockProductRepository
	failed bool
}

func (f *fakeProductsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	failing := f.failed
	f.mu.Unlock()
	if failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"message":"maintenance"}`)
		return
	}

	ctx := r.Context()
	var id int
	hasID := false
	if n, err := parseID(r.URL.Path); err == nil {
		id, hasID = n, true
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && !hasID:
		products, _ := f.repo.GetAll(ctx)
		json.NewEncoder(w).Encode(products)
	case r.Method == http.MethodPost && !hasID:
		var in models.ProductInput
		json.NewDecoder(r.Body).Decode(&in)
		created, _ := f.repo.Create(ctx, in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	case r.Method == http.MethodPut && hasID:
		var patch models.ProductPatch
		json.NewDecoder(r.Body).Decode(&patch)
		patch.ID = id
		updated, err := f.repo.Update(ctx, patch)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"not found"}`)
			return
		}
		json.NewEncoder(w).Encode(updated)
	case r.Method == http.MethodDelete && hasID:
		io.WriteString(w, "true")
		f.repo.Delete(ctx, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseID(path string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(path, "/products/"))
}

type testEnv struct {
	app     *fiber.App
	api     *fakeProductsAPI
	catalog *services.CatalogService
	cart    *services.CartService
}

// setupApp wires the real HTTP repository against a fake products API.
func setupApp(t *testing.T, opts handlers.AppOptions) *testEnv {
	t.Helper()

	api := &fakeProductsAPI{repo: repositories.NewMockProductRepository()}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	seedProductsForTest(t, api.repo)

	repo := repositories.NewHTTPProductRepository(srv.URL, 2*time.Second)
	catalog := services.NewCatalogService(repo, nil, nil)
	cart := services.NewCartService(repositories.NewMemorySlot(), nil)
	require.NoError(t, cart.Initialize(context.Background()))
	require.NoError(t, catalog.FetchAll(context.Background()))

	return &testEnv{
		app:     handlers.NewApp(catalog, cart, opts),
		api:     api,
		catalog: catalog,
		cart:    cart,
	}
}

// seedProductsForTest populates the fake API.
func seedProductsForTest(t *testing.T, repo *repositories.MockProductRepository) {
	inputs := []models.ProductInput{
		{Title: "Test Laptop", Price: 1000, Description: "For testing purposes", CategoryID: 1, Images: []string{"https://img.test/laptop.png"}},
		{Title: "Test Monitor", Price: 200, Description: "Another test item", CategoryID: 1, Images: []string{"https://img.test/monitor.png"}},
	}
	for _, in := range inputs {
		_, err := repo.Create(context.Background(), in)
		require.NoError(t, err)
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers ...string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{})
	resp, body := doJSON(t, env.app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(2), body["products"])
}

func TestProductsCRUD(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{})

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 2)
	assert.Equal(t, false, body["isLoading"])

	// Create
	resp, body = doJSON(t, env.app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"title": "Lamp", "price": 20, "description": "Desk lamp", "categoryId": 1, "images": []string{"https://x/a.png"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(3), body["id"])
	assert.Equal(t, 3, env.catalog.Products()[0].ID)

	// Edit
	resp, body = doJSON(t, env.app, http.MethodPatch, "/api/v1/products/3", map[string]interface{}{"price": 25})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(25), body["price"])
	assert.Equal(t, "Lamp", body["title"])

	resp, body = doJSON(t, env.app, http.MethodGet, "/api/v1/products/3", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(25), body["price"])

	// Delete
	resp, _ = doJSON(t, env.app, http.MethodDelete, "/api/v1/products/3", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := env.catalog.Product(3)
	assert.False(t, ok)

	resp, _ = doJSON(t, env.app, http.MethodGet, "/api/v1/products/3", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProductValidation(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{})

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"title": "", "price": 20, "description": "Desk lamp", "categoryId": 1, "images": []string{"https://x/a.png"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, map[string]interface{}{"title": "Title is required"}, body["errors"])

	all, err := env.api.repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2, "no product may reach the API")
}

func TestEditUnknownAndBadID(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{})

	resp, _ := doJSON(t, env.app, http.MethodPatch, "/api/v1/products/99", map[string]interface{}{"price": 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, env.app, http.MethodPatch, "/api/v1/products/abc", map[string]interface{}{"price": 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoteFailureKeepsCatalog(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{})
	before := env.catalog.Products()

	env.api.mu.Lock()
	env.api.failed = true
	env.api.mu.Unlock()

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/v1/products/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "maintenance")

	resp, _ = doJSON(t, env.app, http.MethodDelete, "/api/v1/products/1", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	assert.Equal(t, before, env.catalog.Products())
}

func TestCartFlow(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{})

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doJSON(t, env.app, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 1})
	_, body = doJSON(t, env.app, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 2})

	assert.Equal(t, float64(3), body["totalUnits"])
	assert.Equal(t, float64(2200), body["totalPrice"])
	assert.Len(t, body["items"], 2)

	_, body = doJSON(t, env.app, http.MethodDelete, "/api/v1/cart/items/1", nil)
	assert.Equal(t, float64(2), body["totalUnits"])

	_, body = doJSON(t, env.app, http.MethodDelete, "/api/v1/cart/items/2/all", nil)
	assert.Equal(t, float64(1), body["totalUnits"])

	_, body = doJSON(t, env.app, http.MethodDelete, "/api/v1/cart/items/42", nil)
	assert.Equal(t, float64(1), body["totalUnits"])

	_, body = doJSON(t, env.app, http.MethodDelete, "/api/v1/cart", nil)
	assert.Equal(t, float64(0), body["totalUnits"])
	assert.Empty(t, body["items"])

	resp, _ = doJSON(t, env.app, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 77})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogWritesRequireAdminToken(t *testing.T) {
	env := setupApp(t, handlers.AppOptions{JWTSecret: "test_jwt_secret"})
	payload := map[string]interface{}{
		"title": "Lamp", "price": 20, "description": "Desk lamp", "categoryId": 1, "images": []string{"https://x/a.png"},
	}

	resp, _ := doJSON(t, env.app, http.MethodPost, "/api/v1/products", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Reads stay public.
	resp, _ = doJSON(t, env.app, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test_jwt_secret"))
	require.NoError(t, err)

	resp, _ = doJSON(t, env.app, http.MethodPost, "/api/v1/products", payload, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
