package repository

import (
	"context"

	"go-stock-reconciler/internal/model"

	"gorm.io/gorm"
)

type InvoiceRepository interface {
	// MaxSequence returns the highest issued sequence for a prefix and year,
	// or zero when none has been issued.
	MaxSequence(ctx context.Context, prefix string, year int) (int, error)
	Claim(ctx context.Context, claim *model.IssuedInvoice) error
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) MaxSequence(ctx context.Context, prefix string, year int) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Unscoped().Model(&model.IssuedInvoice{}).
		Where("prefix = ? AND year = ?", prefix, year).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&seq).Error
	return seq, err
}

func (r *invoiceRepo) Claim(ctx context.Context, claim *model.IssuedInvoice) error {
	return claimInvoice(r.db.WithContext(ctx), claim)
}

func claimInvoice(tx *gorm.DB, claim *model.IssuedInvoice) error {
	if err := tx.Create(claim).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvoice
		}
		return err
	}
	return nil
}
