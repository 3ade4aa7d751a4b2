package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryTransaction is the signed quantity ledger. The running sum per
// (product, scope) yields on-hand quantity and must reconcile with FIFO lot
// remainders.
type InventoryTransaction struct {
	ID          int    `gorm:"primary_key" json:"id"`
	TenantId    string `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId    int    `gorm:"index" json:"branch_id"`
	WarehouseId int    `gorm:"index;not null" json:"warehouse_id"`
	ProductId   int    `gorm:"index;not null" json:"product_id"`

	// Qty is signed: positive for receipts, negative for issues.
	Qty decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`

	ReferenceType     ReferenceType `gorm:"index;size:32;not null" json:"reference_type"`
	ReferenceId       int           `gorm:"index;not null" json:"reference_id"`
	ReferenceDetailId int           `json:"reference_detail_id"`

	TransactionDate time.Time `gorm:"index;not null" json:"transaction_date"`
	Description     string    `gorm:"size:255" json:"description"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// OnHandQty sums the live (not soft-deleted) transactions for a product in a
// warehouse.
func OnHandQty(tx *gorm.DB, tenantId string, warehouseId, productId int) (decimal.Decimal, error) {
	var rows []*InventoryTransaction
	err := tx.
		Where("tenant_id = ? AND warehouse_id = ? AND product_id = ?", tenantId, warehouseId, productId).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Qty)
	}
	return total, nil
}

// HasInventoryTransactions reports whether a document already produced
// inventory movement. Used as the consumption idempotency check.
func HasInventoryTransactions(tx *gorm.DB, tenantId string, refType ReferenceType, refId int) (bool, error) {
	var count int64
	err := tx.Model(&InventoryTransaction{}).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantId, refType, refId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
