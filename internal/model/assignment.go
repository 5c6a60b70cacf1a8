package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentAssigned AssignmentStatus = "assigned"
	AssignmentReceived AssignmentStatus = "received"
	AssignmentReturned AssignmentStatus = "returned"
)

// StockAssignment is custody of stock handed to an employee.
// RemainingQuantity only ever decreases and never goes below zero.
type StockAssignment struct {
	BaseModel
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_assignment_holder,priority:2" json:"product_id"`
	EmployeeID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_assignment_holder,priority:1" json:"employee_id"`
	Quantity          int              `gorm:"not null" json:"quantity"`
	RemainingQuantity int              `gorm:"not null;check:remaining_quantity >= 0" json:"remaining_quantity"`
	Status            AssignmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReceivedAt        *time.Time       `json:"received_at,omitempty"`
	ReturnedAt        *time.Time       `json:"returned_at,omitempty"`
}
