package model

// IssuedInvoice is one claimed invoice number. The unique index on Number is
// what makes allocation safe under concurrent writers.
type IssuedInvoice struct {
	BaseModel
	Number   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"number"`
	Prefix   string `gorm:"type:varchar(10);not null;index:idx_invoice_series,priority:1" json:"prefix"`
	Year     int    `gorm:"not null;index:idx_invoice_series,priority:2" json:"year"`
	Sequence int    `gorm:"not null;index:idx_invoice_series,priority:3" json:"sequence"`
}
