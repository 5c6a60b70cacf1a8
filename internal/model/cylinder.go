package model

import "github.com/google/uuid"

type CylinderTxType string

const (
	CylinderDeposit CylinderTxType = "deposit"
	CylinderRefill  CylinderTxType = "refill"
	CylinderReturn  CylinderTxType = "return"
)

// CylinderTransaction tracks cylinders leaving (deposit, refill) or coming
// back (return). ProductID is optional.
type CylinderTransaction struct {
	BaseModel
	ProductID    *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Type         CylinderTxType `gorm:"type:varchar(20);not null" json:"type"`
	Quantity     int            `gorm:"not null" json:"quantity"`
	CustomerName string         `gorm:"type:varchar(255)" json:"customer_name"`
}
