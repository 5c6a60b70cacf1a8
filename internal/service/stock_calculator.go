package service

import (
	"context"
	"errors"

	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("go-stock-reconciler/internal/service")

// StockTerms are the per-source totals that make up a product's stock.
type StockTerms struct {
	Received        int `json:"received_total"`
	DirectSold      int `json:"direct_sale_total"`
	EmployeeSold    int `json:"employee_sale_total"`
	CylinderReturns int `json:"cylinder_return_total"`
	CylinderOutflow int `json:"cylinder_outflow_total"`
}

// Stock applies the stock formula to the terms, floored at zero.
func (t StockTerms) Stock() int {
	stock := t.Received + t.CylinderReturns - t.DirectSold - t.EmployeeSold - t.CylinderOutflow
	if stock < 0 {
		return 0
	}
	return stock
}

// StockCalculator derives current stock from the transaction logs. It only
// reads, so the same inputs always give the same answer.
type StockCalculator interface {
	Calculate(ctx context.Context, productID uuid.UUID) (int, error)
	Terms(ctx context.Context, productID uuid.UUID) (*StockTerms, error)
}

type stockCalculator struct {
	productRepo  repository.ProductRepository
	receiptRepo  repository.ReceiptRepository
	saleRepo     repository.SaleRepository
	cylinderRepo repository.CylinderRepository
}

func NewStockCalculator(
	productRepo repository.ProductRepository,
	receiptRepo repository.ReceiptRepository,
	saleRepo repository.SaleRepository,
	cylinderRepo repository.CylinderRepository,
) StockCalculator {
	return &stockCalculator{
		productRepo:  productRepo,
		receiptRepo:  receiptRepo,
		saleRepo:     saleRepo,
		cylinderRepo: cylinderRepo,
	}
}

func (c *stockCalculator) Calculate(ctx context.Context, productID uuid.UUID) (int, error) {
	ctx, span := tracer.Start(ctx, "StockCalculator.Calculate",
		trace.WithAttributes(attribute.String("product.id", productID.String())))
	defer span.End()

	terms, err := c.Terms(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	stock := terms.Stock()
	span.SetAttributes(attribute.Int("stock.calculated", stock))
	return stock, nil
}

func (c *stockCalculator) Terms(ctx context.Context, productID uuid.UUID) (*StockTerms, error) {
	if _, err := c.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, &CalculationError{ProductID: productID, Source: "products", Err: err}
	}

	var (
		terms StockTerms
		err   error
	)
	if terms.Received, err = c.receiptRepo.SumReceivedByProduct(ctx, productID); err != nil {
		return nil, &CalculationError{ProductID: productID, Source: "purchase receipts", Err: err}
	}
	if terms.DirectSold, err = c.saleRepo.SumDirectSoldByProduct(ctx, productID); err != nil {
		return nil, &CalculationError{ProductID: productID, Source: "direct sales", Err: err}
	}
	if terms.EmployeeSold, err = c.saleRepo.SumEmployeeSoldByProduct(ctx, productID); err != nil {
		return nil, &CalculationError{ProductID: productID, Source: "employee sales", Err: err}
	}
	cylinders, err := c.cylinderRepo.SumByProduct(ctx, productID)
	if err != nil {
		return nil, &CalculationError{ProductID: productID, Source: "cylinder transactions", Err: err}
	}
	terms.CylinderReturns = cylinders.Returns
	terms.CylinderOutflow = cylinders.Outflow

	return &terms, nil
}
