package repository

import (
	"context"

	"go-stock-reconciler/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DriftRepository interface {
	Create(ctx context.Context, drift *model.StockDrift) error
	FindRecent(ctx context.Context, productID *uuid.UUID, limit int) ([]model.StockDrift, error)
}

type driftRepo struct {
	db *gorm.DB
}

func NewDriftRepo(db *gorm.DB) DriftRepository {
	return &driftRepo{db}
}

func (r *driftRepo) Create(ctx context.Context, drift *model.StockDrift) error {
	return r.db.WithContext(ctx).Create(drift).Error
}

func (r *driftRepo) FindRecent(ctx context.Context, productID *uuid.UUID, limit int) ([]model.StockDrift, error) {
	var drifts []model.StockDrift
	query := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Limit(limit)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	err := query.Find(&drifts).Error
	return drifts, err
}
