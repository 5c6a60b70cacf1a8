package repository

import (
	"context"

	"go-stock-reconciler/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceiptRepository reads goods received. Receipts are written by the
// purchasing workflow, never by this service.
type ReceiptRepository interface {
	SumReceivedByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type receiptRepo struct {
	db *gorm.DB
}

func NewReceiptRepo(db *gorm.DB) ReceiptRepository {
	return &receiptRepo{db}
}

func (r *receiptRepo) SumReceivedByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.PurchaseReceipt{}).
		Where("product_id = ? AND status = ?", productID, model.ReceiptReceived).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}
