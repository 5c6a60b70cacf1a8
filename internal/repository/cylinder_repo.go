package repository

import (
	"context"

	"go-stock-reconciler/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CylinderTotals splits cylinder movements into units coming back and units
// going out.
type CylinderTotals struct {
	Returns int
	Outflow int
}

type CylinderRepository interface {
	SumByProduct(ctx context.Context, productID uuid.UUID) (CylinderTotals, error)
}

type cylinderRepo struct {
	db *gorm.DB
}

func NewCylinderRepo(db *gorm.DB) CylinderRepository {
	return &cylinderRepo{db}
}

func (r *cylinderRepo) SumByProduct(ctx context.Context, productID uuid.UUID) (CylinderTotals, error) {
	var totals CylinderTotals
	row := r.db.WithContext(ctx).Model(&model.CylinderTransaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type IN ? THEN quantity ELSE 0 END), 0)
		`, model.CylinderReturn, []model.CylinderTxType{model.CylinderDeposit, model.CylinderRefill}).
		Where("product_id = ?", productID).
		Row()
	if err := row.Scan(&totals.Returns, &totals.Outflow); err != nil {
		return CylinderTotals{}, err
	}
	return totals, nil
}
