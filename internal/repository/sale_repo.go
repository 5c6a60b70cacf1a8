package repository

import (
	"context"

	"go-stock-reconciler/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Depletion takes Quantity units out of one stock assignment.
type Depletion struct {
	AssignmentID uuid.UUID
	Quantity     int
}

type SaleRepository interface {
	SumDirectSoldByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	SumEmployeeSoldByProduct(ctx context.Context, productID uuid.UUID) (int, error)

	// CreateDirectSale claims the invoice number and inserts the sale in one
	// transaction. A taken number yields ErrDuplicateInvoice.
	CreateDirectSale(ctx context.Context, sale *model.DirectSale, claim *model.IssuedInvoice) error

	// CreateEmployeeSale additionally depletes the employee's assignments in
	// the same transaction; a depletion that would go negative rolls
	// everything back with ErrInsufficientCustody.
	CreateEmployeeSale(ctx context.Context, sale *model.EmployeeSale, claim *model.IssuedInvoice, depletions []Depletion) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) SumDirectSoldByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.DirectSaleItem{}).
		Joins("JOIN direct_sales ON direct_sales.id = direct_sale_items.direct_sale_id AND direct_sales.deleted_at IS NULL").
		Where("direct_sale_items.product_id = ?", productID).
		Select("COALESCE(SUM(direct_sale_items.quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *saleRepo) SumEmployeeSoldByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.EmployeeSaleItem{}).
		Joins("JOIN employee_sales ON employee_sales.id = employee_sale_items.employee_sale_id AND employee_sales.deleted_at IS NULL").
		Where("employee_sale_items.product_id = ?", productID).
		Select("COALESCE(SUM(employee_sale_items.quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *saleRepo) CreateDirectSale(ctx context.Context, sale *model.DirectSale, claim *model.IssuedInvoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimInvoice(tx, claim); err != nil {
			return err
		}
		return createSale(tx, sale)
	})
}

func (r *saleRepo) CreateEmployeeSale(ctx context.Context, sale *model.EmployeeSale, claim *model.IssuedInvoice, depletions []Depletion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimInvoice(tx, claim); err != nil {
			return err
		}
		for _, d := range depletions {
			if err := depleteAssignment(tx, d.AssignmentID, d.Quantity); err != nil {
				return err
			}
		}
		return createSale(tx, sale)
	})
}

func createSale(tx *gorm.DB, sale interface{}) error {
	if err := tx.Create(sale).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvoice
		}
		return err
	}
	return nil
}
