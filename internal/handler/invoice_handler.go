package handler

import (
	"time"

	"go-stock-reconciler/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InvoiceHandler struct {
	allocator service.InvoiceAllocator
}

func NewInvoiceHandler(allocator service.InvoiceAllocator) *InvoiceHandler {
	return &InvoiceHandler{allocator: allocator}
}

type allocateBody struct {
	Prefix string `json:"prefix"`
	Year   int    `json:"year"`
}

// Allocate claims the next invoice number for a prefix. Year defaults to the
// current year.
// POST /api/v1/invoices/allocate
func (h *InvoiceHandler) Allocate(c *fiber.Ctx) error {
	var body allocateBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if body.Year == 0 {
		body.Year = time.Now().Year()
	}

	number, err := h.allocator.Allocate(c.UserContext(), body.Prefix, body.Year)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"invoice_number": number})
}
