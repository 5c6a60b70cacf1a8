package handler

import (
	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	calculator   service.StockCalculator
	synchronizer service.StockSynchronizer
	validator    service.StockValidator
	breakdown    service.StockBreakdownReporter
}

func NewStockHandler(
	calculator service.StockCalculator,
	synchronizer service.StockSynchronizer,
	validator service.StockValidator,
	breakdown service.StockBreakdownReporter,
) *StockHandler {
	return &StockHandler{
		calculator:   calculator,
		synchronizer: synchronizer,
		validator:    validator,
		breakdown:    breakdown,
	}
}

// GetStock calculates stock from the transaction logs without writing it.
// GET /api/v1/stock/:id
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	stock, err := h.calculator.Calculate(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": productID, "current_stock": stock})
}

// POST /api/v1/stock/:id/sync
func (h *StockHandler) SyncProduct(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	result, err := h.synchronizer.Sync(c.UserContext(), productID, model.TriggerManual)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// POST /api/v1/stock/sync
func (h *StockHandler) SyncAll(c *fiber.Ctx) error {
	summary, err := h.synchronizer.SyncAll(c.UserContext(), model.TriggerBatch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

type validateBody struct {
	Quantity   int        `json:"quantity"`
	Operation  string     `json:"operation"`
	EmployeeID *uuid.UUID `json:"employee_id"`
}

// POST /api/v1/stock/:id/validate
func (h *StockHandler) Validate(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var body validateBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.validator.Validate(c.UserContext(), service.ValidateRequest{
		ProductID:  productID,
		Quantity:   body.Quantity,
		Operation:  body.Operation,
		EmployeeID: body.EmployeeID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GET /api/v1/stock/:id/breakdown
func (h *StockHandler) GetBreakdown(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	breakdown, err := h.breakdown.Breakdown(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(breakdown)
}

// GetDrift lists recent corrections, optionally for one product.
// GET /api/v1/stock/drift?product_id=&limit=
func (h *StockHandler) GetDrift(c *fiber.Ctx) error {
	var productID *uuid.UUID
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
		}
		productID = &id
	}

	drifts, err := h.synchronizer.RecentDrift(c.UserContext(), productID, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(drifts)
}
