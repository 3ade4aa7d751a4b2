package models

import (
	"gorm.io/gorm"
)

// MigrateTable keeps the schema in sync. Order matters for foreign keys.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Tenant{},
		&Branch{},
		&Warehouse{},
		&CostCenter{},
		&Role{},
		&Account{},
		&Product{},
		&Customer{},
		&Supplier{},
		&SalesOrder{},
		&SalesInvoice{},
		&SalesInvoiceDetail{},
		&Bill{},
		&BillDetail{},
		&Payment{},
		&InventoryWriteOff{},
		&InventoryWriteOffDetail{},
		&SalesReturn{},
		&SalesReturnDetail{},
		&PurchaseReturn{},
		&PurchaseReturnDetail{},
		&JournalEntry{},
		&JournalLine{},
		&FIFOLot{},
		&FIFOConsumption{},
		&COGSTransaction{},
		&InventoryTransaction{},
		&CustomerCredit{},
		&VendorCredit{},
	)
}
