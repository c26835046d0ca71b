package handlers

import (
	"errors"

	"shopfront/internal/models"
	"shopfront/internal/repositories"
	"shopfront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, message string, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	}

	status := fiber.StatusInternalServerError
	var remoteErr *repositories.RemoteError
	switch {
	case errors.Is(err, services.ErrUnknownProduct), errors.Is(err, repositories.ErrProductNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &remoteErr):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func invalidID(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Product ID must be a positive integer",
		"error":   err.Error(),
	})
}
