package handler

import (
	"go-stock-reconciler/internal/middleware"
	"go-stock-reconciler/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Stock      *StockHandler
	Invoice    *InvoiceHandler
	Sale       *SaleHandler
	Assignment *AssignmentHandler
	Product    *ProductHandler
}

func RegisterRoutes(app *fiber.App, h Handlers, tokens *jwt.Manager) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	protected := api.Group("", middleware.RequireAuth(tokens))

	// Stock Routes. /stock/drift must come before /stock/:id.
	protected.Get("/stock/drift", middleware.RequireAnyPrivilege("stock:view", "stock:sync"), h.Stock.GetDrift)
	protected.Post("/stock/sync", middleware.RequirePrivilege("stock:sync"), h.Stock.SyncAll)
	protected.Get("/stock/:id", middleware.RequirePrivilege("stock:view"), h.Stock.GetStock)
	protected.Get("/stock/:id/breakdown", middleware.RequirePrivilege("stock:view"), h.Stock.GetBreakdown)
	protected.Post("/stock/:id/validate", middleware.RequirePrivilege("stock:view"), h.Stock.Validate)
	protected.Post("/stock/:id/sync", middleware.RequirePrivilege("stock:sync"), h.Stock.SyncProduct)

	protected.Post("/invoices/allocate", middleware.RequirePrivilege("invoice:allocate"), h.Invoice.Allocate)

	protected.Post("/sales/direct", middleware.RequirePrivilege("sale:create"), h.Sale.CreateDirectSale)
	protected.Post("/sales/employee", middleware.RequirePrivilege("sale:create"), h.Sale.CreateEmployeeSale)

	// Assignment Routes
	assignments := protected.Group("/assignments", middleware.RequirePrivilege("assignment:manage"))
	assignments.Post("", h.Assignment.Assign)
	assignments.Get("/:id", h.Assignment.GetAssignment)
	assignments.Put("/:id/receive", h.Assignment.Receive)
	assignments.Put("/:id/deplete", h.Assignment.Deplete)
	assignments.Put("/:id/return", h.Assignment.Return)

	// Product Routes
	protected.Get("/products", middleware.RequirePrivilege("product:view"), h.Product.GetProducts)
	protected.Get("/products/:id", middleware.RequirePrivilege("product:view"), h.Product.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), h.Product.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), h.Product.UpdateProduct)
}
