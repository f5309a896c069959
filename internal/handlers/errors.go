package handlers

import (
	"errors"
	"log"

	"puspita/internal/repositories"
	"puspita/internal/services"
	"puspita/pkg/cloudinary"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP responses. Validation and
// transition failures carry their detail so the caller can see exactly
// what was rejected.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	var transitionErr *services.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	case errors.As(err, &transitionErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Invalid order status transition",
			"from":    transitionErr.From,
			"to":      transitionErr.To,
		})
	case errors.Is(err, services.ErrAuthRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Login required",
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Not allowed",
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.Is(err, cloudinary.ErrUpload):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Upload failed",
			"error":   err.Error(),
		})
	default:
		log.Printf("Unhandled error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal error",
			"error":   err.Error(),
		})
	}
}

// currentUserID returns the user id stored by the auth middleware.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
