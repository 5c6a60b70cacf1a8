package model

import "gorm.io/gorm"

// AutoMigrate creates or updates every table this service reads or writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Product{},
		&PurchaseReceipt{},
		&DirectSale{}, &DirectSaleItem{},
		&EmployeeSale{}, &EmployeeSaleItem{},
		&StockAssignment{},
		&CylinderTransaction{},
		&IssuedInvoice{},
		&StockDrift{},
	)
}
