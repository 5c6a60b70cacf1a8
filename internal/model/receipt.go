package model

import (
	"time"

	"github.com/google/uuid"
)

type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptReceived ReceiptStatus = "received"
)

// PurchaseReceipt records goods ordered from a supplier. Only received rows
// count toward stock.
type PurchaseReceipt struct {
	BaseModel
	ProductID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity     int           `gorm:"not null" json:"quantity"`
	Status       ReceiptStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	SupplierName string        `gorm:"type:varchar(255)" json:"supplier_name"`
	ReceivedAt   *time.Time    `json:"received_at,omitempty"`
}
