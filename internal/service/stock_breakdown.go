package service

import (
	"context"
	"errors"

	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBreakdown is the audit view of a product's stock.
// AssignmentOutstanding is informational; it is not part of the formula.
type StockBreakdown struct {
	ProductID uuid.UUID `json:"product_id"`
	StockTerms
	AssignmentOutstanding int             `json:"assignment_outstanding_total"`
	StoredStock           int             `json:"stored_stock"`
	CalculatedStock       int             `json:"calculated_stock"`
	Difference            int             `json:"difference"`
	IsConsistent          bool            `json:"is_consistent"`
	StockValue            decimal.Decimal `json:"stock_value"`
}

type StockBreakdownReporter interface {
	Breakdown(ctx context.Context, productID uuid.UUID) (*StockBreakdown, error)
}

type stockBreakdownReporter struct {
	calculator     StockCalculator
	productRepo    repository.ProductRepository
	assignmentRepo repository.AssignmentRepository
}

func NewStockBreakdownReporter(
	calculator StockCalculator,
	productRepo repository.ProductRepository,
	assignmentRepo repository.AssignmentRepository,
) StockBreakdownReporter {
	return &stockBreakdownReporter{
		calculator:     calculator,
		productRepo:    productRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (r *stockBreakdownReporter) Breakdown(ctx context.Context, productID uuid.UUID) (*StockBreakdown, error) {
	product, err := r.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	terms, err := r.calculator.Terms(ctx, productID)
	if err != nil {
		return nil, err
	}
	outstanding, err := r.assignmentRepo.SumOutstandingByProduct(ctx, productID)
	if err != nil {
		return nil, &CalculationError{ProductID: productID, Source: "stock assignments", Err: err}
	}

	calculated := terms.Stock()
	return &StockBreakdown{
		ProductID:             productID,
		StockTerms:            *terms,
		AssignmentOutstanding: outstanding,
		StoredStock:           product.CurrentStock,
		CalculatedStock:       calculated,
		Difference:            calculated - product.CurrentStock,
		IsConsistent:          calculated == product.CurrentStock,
		StockValue:            product.CostPrice.Mul(decimal.NewFromInt(int64(calculated))),
	}, nil
}
