package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesReturn struct {
	ID             int             `gorm:"primary_key" json:"id"`
	TenantId       string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId       int             `gorm:"index" json:"branch_id"`
	WarehouseId    int             `gorm:"index" json:"warehouse_id"`
	CostCenterId   *int            `json:"cost_center_id"`
	InvoiceId      int             `gorm:"index;not null" json:"invoice_id"`
	CustomerId     int             `gorm:"index;not null" json:"customer_id"`
	ReturnNumber   string          `gorm:"size:100" json:"return_number"`
	ReturnDate     time.Time       `gorm:"not null" json:"return_date"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(20,6)" json:"sub_total"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount"`
	SettledAmount  decimal.Decimal `gorm:"type:decimal(20,6)" json:"settled_amount"`
	CreditedAmount decimal.Decimal `gorm:"type:decimal(20,6)" json:"credited_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Details []SalesReturnDetail `gorm:"foreignKey:SalesReturnId" json:"details"`
}

// DamagedQty of a line never goes back on the shelf: restocked quantity is
// Qty minus DamagedQty.
type SalesReturnDetail struct {
	ID              int             `gorm:"primary_key" json:"id"`
	SalesReturnId   int             `gorm:"index;not null" json:"sales_return_id"`
	InvoiceDetailId int             `gorm:"index;not null" json:"invoice_detail_id"`
	ProductId       int             `gorm:"index;not null" json:"product_id"`
	Qty             decimal.Decimal `gorm:"type:decimal(20,6)" json:"qty"`
	DamagedQty      decimal.Decimal `gorm:"type:decimal(20,6)" json:"damaged_qty"`
}

type PurchaseReturn struct {
	ID               int             `gorm:"primary_key" json:"id"`
	TenantId         string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId         int             `gorm:"index" json:"branch_id"`
	WarehouseId      int             `gorm:"index" json:"warehouse_id"`
	CostCenterId     *int            `json:"cost_center_id"`
	BillId           int             `gorm:"index;not null" json:"bill_id"`
	SupplierId       int             `gorm:"index;not null" json:"supplier_id"`
	ReturnNumber     string          `gorm:"size:100" json:"return_number"`
	ReturnDate       time.Time       `gorm:"not null" json:"return_date"`
	SubTotal         decimal.Decimal `gorm:"type:decimal(20,6)" json:"sub_total"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount"`
	SettlementMethod string          `gorm:"size:50;not null" json:"settlement_method"`
	SettleAccountId  *int            `json:"settle_account_id"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Details []PurchaseReturnDetail `gorm:"foreignKey:PurchaseReturnId" json:"details"`
}

type PurchaseReturnDetail struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseReturnId int             `gorm:"index;not null" json:"purchase_return_id"`
	BillDetailId     int             `gorm:"index;not null" json:"bill_detail_id"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Qty              decimal.Decimal `gorm:"type:decimal(20,6)" json:"qty"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_cost"`
}

func GetSalesReturn(tx *gorm.DB, tenantId string, returnId int) (SalesReturn, error) {
	var salesReturn SalesReturn
	err := tx.Preload("Details").
		Where("tenant_id = ? AND id = ?", tenantId, returnId).
		First(&salesReturn).Error
	return salesReturn, err
}

func GetPurchaseReturn(tx *gorm.DB, tenantId string, returnId int) (PurchaseReturn, error) {
	var purchaseReturn PurchaseReturn
	err := tx.Preload("Details").
		Where("tenant_id = ? AND id = ?", tenantId, returnId).
		First(&purchaseReturn).Error
	return purchaseReturn, err
}
