package model

import (
	"time"

	"github.com/google/uuid"
)

type SyncTrigger string

const (
	TriggerManual     SyncTrigger = "manual"
	TriggerBatch      SyncTrigger = "batch"
	TriggerSale       SyncTrigger = "sale"
	TriggerAssignment SyncTrigger = "assignment"
	TriggerSchedule   SyncTrigger = "schedule"
)

// StockDrift is written whenever a sync finds the stored stock differs from
// the recalculated value.
type StockDrift struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	ProductID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"product_id"`
	Previous   int         `gorm:"not null" json:"previous"`
	Calculated int         `gorm:"not null" json:"calculated"`
	Difference int         `gorm:"not null" json:"difference"`
	Trigger    SyncTrigger `gorm:"type:varchar(20);not null" json:"trigger"`
	CreatedAt  time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}
