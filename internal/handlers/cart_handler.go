package handlers

import (
	"fmt"

	"shopfront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler exposes the cart over HTTP.
type CartHandler struct {
	cart    *services.CartService
	catalog *services.CatalogService
}

// NewCartHandler creates a new CartHandler. Products are looked up in catalog when added.
func NewCartHandler(cart *services.CartService, catalog *services.CatalogService) *CartHandler {
	return &CartHandler{
		cart:    cart,
		catalog: catalog,
	}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Delete("/items/:id", h.HandleRemoveOneUnit)
	cartRoutes.Delete("/items/:id/all", h.HandleRemoveAllOfProduct)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// HandleGetCart returns the cart with its totals.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return c.JSON(h.cart.Summary())
}

// HandleAddItem adds one unit of a catalog product.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req struct {
		ProductID int `json:"productId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %d not found", req.ProductID),
		})
	}
	h.cart.AddToCart(c.UserContext(), product)
	return h.HandleGetCart(c)
}

// HandleRemoveOneUnit removes one unit of a product.
func (h *CartHandler) HandleRemoveOneUnit(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return invalidID(c, err)
	}
	h.cart.RemoveOneUnit(c.UserContext(), id)
	return h.HandleGetCart(c)
}

// HandleRemoveAllOfProduct removes a product whatever its quantity.
func (h *CartHandler) HandleRemoveAllOfProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return invalidID(c, err)
	}
	h.cart.RemoveAllOfProduct(c.UserContext(), id)
	return h.HandleGetCart(c)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	h.cart.ClearCart(c.UserContext())
	return h.HandleGetCart(c)
}
