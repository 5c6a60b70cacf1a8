package handler

import (
	"go-stock-reconciler/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AssignmentHandler struct {
	service service.AssignmentService
}

func NewAssignmentHandler(s service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: s}
}

// POST /api/v1/assignments
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	var req service.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	assignment, err := h.service.Assign(c.UserContext(), req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock assigned", "data": assignment})
}

// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	assignment, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(assignment)
}

// PUT /api/v1/assignments/:id/receive
func (h *AssignmentHandler) Receive(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	assignment, err := h.service.Receive(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Assignment received", "data": assignment})
}

type depleteBody struct {
	Quantity int `json:"quantity"`
}

// PUT /api/v1/assignments/:id/deplete
func (h *AssignmentHandler) Deplete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	var body depleteBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	assignment, err := h.service.Deplete(c.UserContext(), id, body.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Assignment depleted", "data": assignment})
}

// PUT /api/v1/assignments/:id/return
func (h *AssignmentHandler) Return(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	assignment, err := h.service.Return(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Assignment returned", "data": assignment})
}
