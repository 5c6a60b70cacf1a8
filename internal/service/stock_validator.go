package service

import (
	"context"
	"errors"

	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
)

type ValidateRequest struct {
	ProductID uuid.UUID
	Quantity  int
	Operation string
	// EmployeeID switches validation to the employee's received custody
	// instead of central stock.
	EmployeeID *uuid.UUID
}

type Validation struct {
	Valid     bool   `json:"valid"`
	Available int    `json:"available"`
	Shortfall int    `json:"shortfall"`
	Operation string `json:"operation"`
}

// StockValidator answers whether an operation can be satisfied right now.
//
// The answer is a snapshot: central stock is not reserved between Validate
// and the caller's commit, so two concurrent sales may both pass. Employee
// custody does not have this gap because depletion is a conditional
// decrement inside the sale transaction.
type StockValidator interface {
	Validate(ctx context.Context, req ValidateRequest) (*Validation, error)
	// Require is Validate that turns a failed check into *InsufficientStockError.
	Require(ctx context.Context, req ValidateRequest) (*Validation, error)
}

type stockValidator struct {
	calculator     StockCalculator
	productRepo    repository.ProductRepository
	assignmentRepo repository.AssignmentRepository
}

func NewStockValidator(
	calculator StockCalculator,
	productRepo repository.ProductRepository,
	assignmentRepo repository.AssignmentRepository,
) StockValidator {
	return &stockValidator{
		calculator:     calculator,
		productRepo:    productRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (v *stockValidator) Validate(ctx context.Context, req ValidateRequest) (*Validation, error) {
	if req.Quantity <= 0 {
		return nil, validationError("Quantity", "gt")
	}

	var (
		available int
		err       error
	)
	if req.EmployeeID != nil {
		available, err = v.employeeHeld(ctx, *req.EmployeeID, req.ProductID)
	} else {
		available, err = v.calculator.Calculate(ctx, req.ProductID)
	}
	if err != nil {
		return nil, err
	}

	shortfall := req.Quantity - available
	if shortfall < 0 {
		shortfall = 0
	}
	return &Validation{
		Valid:     available >= req.Quantity,
		Available: available,
		Shortfall: shortfall,
		Operation: req.Operation,
	}, nil
}

func (v *stockValidator) Require(ctx context.Context, req ValidateRequest) (*Validation, error) {
	res, err := v.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return res, &InsufficientStockError{
			ProductID: req.ProductID,
			Operation: req.Operation,
			Requested: req.Quantity,
			Available: res.Available,
			Shortfall: res.Shortfall,
		}
	}
	return res, nil
}

func (v *stockValidator) employeeHeld(ctx context.Context, employeeID, productID uuid.UUID) (int, error) {
	if _, err := v.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	held, err := v.assignmentRepo.SumHeldByEmployee(ctx, employeeID, productID)
	if err != nil {
		return 0, &CalculationError{ProductID: productID, Source: "stock assignments", Err: err}
	}
	return held, nil
}
