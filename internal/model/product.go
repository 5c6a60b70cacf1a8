package model

import "github.com/shopspring/decimal"

// Product is a catalog entry. CurrentStock is a materialized value refreshed
// only by stock synchronization; admin edits never write it.
type Product struct {
	BaseModel
	SKU        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required,max=50"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Category   string          `gorm:"type:varchar(100);index" json:"category" validate:"max=100"`
	Unit       string          `gorm:"type:varchar(20)" json:"unit" validate:"max=20"`
	CostPrice  decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"cost_price"`
	FloorPrice decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"floor_price"`

	CurrentStock int `gorm:"not null;default:0" json:"current_stock"`
}
