package handler

import (
	"errors"

	"go-stock-reconciler/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// getUserID returns the caller set by RequireAuth.
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "system"
	}
	return userID
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		stockErr *service.InsufficientStockError
		calcErr  *service.CalculationError
	)
	switch {
	case errors.As(err, &stockErr):
		return c.Status(409).JSON(fiber.Map{
			"error":     err.Error(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
			"shortfall": stockErr.Shortfall,
		})
	case errors.As(err, &calcErr):
		return c.Status(500).JSON(fiber.Map{"error": "could not compute stock", "source": calcErr.Source})
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrAssignmentNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientCustody),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateSKU):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvoiceAllocationExhausted):
		return c.Status(503).JSON(fiber.Map{"error": "could not allocate an invoice number, retry later"})
	}
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}
