package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DirectSale is a sale made from central stock.
type DirectSale struct {
	BaseModel
	InvoiceNumber string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"invoice_number"`
	CustomerName  string           `gorm:"type:varchar(255)" json:"customer_name"`
	SoldAt        time.Time        `gorm:"not null;index" json:"sold_at"`
	Items         []DirectSaleItem `gorm:"foreignKey:DirectSaleID" json:"items"`
}

type DirectSaleItem struct {
	BaseModel
	DirectSaleID uuid.UUID       `gorm:"type:uuid;not null;index" json:"direct_sale_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"unit_price"`
}

// EmployeeSale is a sale an employee makes from stock held in custody.
type EmployeeSale struct {
	BaseModel
	InvoiceNumber string             `gorm:"type:varchar(64);uniqueIndex;not null" json:"invoice_number"`
	EmployeeID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"employee_id"`
	CustomerName  string             `gorm:"type:varchar(255)" json:"customer_name"`
	SoldAt        time.Time          `gorm:"not null;index" json:"sold_at"`
	Items         []EmployeeSaleItem `gorm:"foreignKey:EmployeeSaleID" json:"items"`
}

type EmployeeSaleItem struct {
	BaseModel
	EmployeeSaleID uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_sale_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"unit_price"`
}
