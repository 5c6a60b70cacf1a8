package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound            = errors.New("product not found")
	ErrAssignmentNotFound         = errors.New("assignment not found")
	ErrInvalidTransition          = errors.New("invalid assignment status transition")
	ErrInsufficientCustody        = errors.New("quantity exceeds what the assignment still holds")
	ErrInvoiceAllocationExhausted = errors.New("invoice number allocation exhausted")
	ErrValidation                 = errors.New("validation failed")
	ErrDuplicateSKU               = errors.New("SKU already exists")
)

// CalculationError means one of the transaction sources could not be read.
// Stock is never guessed when this happens.
type CalculationError struct {
	ProductID uuid.UUID
	Source    string
	Err       error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculate stock for %s: read %s: %v", e.ProductID, e.Source, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// InsufficientStockError is the business-rule rejection produced by Require.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Operation string
	Requested int
	Available int
	Shortfall int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s on product %s: requested %d, available %d, short by %d",
		e.Operation, e.ProductID, e.Requested, e.Available, e.Shortfall)
}

// validationError wraps ErrValidation with the first failing field.
func validationError(field, tag string) error {
	return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, field, tag)
}
