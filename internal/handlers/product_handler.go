package handlers

import (
	"fmt"

	"shopfront/internal/models"
	"shopfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler exposes the catalog over HTTP.
type ProductHandler struct {
	service *services.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.CatalogService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes. writeGuards run before every
// route that changes the catalog.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, writeGuards ...fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/refresh", h.HandleRefresh)
	productRoutes.Post("/", guarded(writeGuards, h.HandleCreateProduct)...)
	productRoutes.Patch("/:id", guarded(writeGuards, h.HandleEditProduct)...)
	productRoutes.Delete("/:id", guarded(writeGuards, h.HandleDeleteProduct)...)
}

func guarded(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, handler)
}

// HandleGetProducts returns the catalog as currently known.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"products":  h.service.Products(),
		"isLoading": h.service.IsLoading(),
	})
}

// HandleGetProductByID returns a single catalog entry.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return invalidID(c, fmt.Errorf("invalid id %q", c.Params("id")))
	}
	product, ok := h.service.Product(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %d not found", id),
		})
	}
	return c.JSON(product)
}

// HandleRefresh reloads the catalog from the products API.
func (h *ProductHandler) HandleRefresh(c *fiber.Ctx) error {
	if err := h.service.FetchAll(c.UserContext()); err != nil {
		return respondError(c, "Could not load products", err)
	}
	return h.HandleGetProducts(c)
}

// HandleCreateProduct creates a product through the products API.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		h.logger.Debug("Error parsing request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	created, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleEditProduct applies a partial update to a product.
func (h *ProductHandler) HandleEditProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return invalidID(c, fmt.Errorf("invalid id %q", c.Params("id")))
	}

	var patch models.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		h.logger.Debug("Error parsing request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	patch.ID = id

	updated, err := h.service.Edit(c.UserContext(), patch)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return invalidID(c, fmt.Errorf("invalid id %q", c.Params("id")))
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
