package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Bill struct {
	ID             int             `gorm:"primary_key" json:"id"`
	TenantId       string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId       int             `gorm:"index" json:"branch_id"`
	WarehouseId    int             `gorm:"index" json:"warehouse_id"`
	CostCenterId   *int            `json:"cost_center_id"`
	SupplierId     int             `gorm:"index;not null" json:"supplier_id"`
	BillNumber     string          `gorm:"size:100" json:"bill_number"`
	BillDate       time.Time       `gorm:"not null" json:"bill_date"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(20,6)" json:"sub_total"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(20,6)" json:"paid_amount"`
	ReturnedAmount decimal.Decimal `gorm:"type:decimal(20,6)" json:"returned_amount"`
	Status         string          `gorm:"size:50;default:confirmed" json:"status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Details []BillDetail `gorm:"foreignKey:BillId" json:"details"`
}

type BillDetail struct {
	ID        int             `gorm:"primary_key" json:"id"`
	BillId    int             `gorm:"index;not null" json:"bill_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,6)" json:"qty"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_cost"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,6)" json:"amount"`
}

func GetBill(tx *gorm.DB, tenantId string, billId int) (Bill, error) {
	var bill Bill
	err := tx.Preload("Details").
		Where("tenant_id = ? AND id = ?", tenantId, billId).
		First(&bill).Error
	return bill, err
}

func RecomputeBillStatus(bill *Bill) string {
	remaining := bill.TotalAmount.Sub(bill.ReturnedAmount)
	switch {
	case bill.ReturnedAmount.GreaterThanOrEqual(bill.TotalAmount) && bill.TotalAmount.IsPositive():
		return string(BillStatusFullyReturned)
	case bill.PaidAmount.GreaterThanOrEqual(remaining) && remaining.IsPositive():
		return string(BillStatusPaid)
	case bill.ReturnedAmount.IsPositive():
		return string(BillStatusPartiallyReturned)
	case bill.PaidAmount.IsPositive():
		return string(BillStatusPartiallyPaid)
	default:
		return string(BillStatusConfirmed)
	}
}

func SaveBillStatus(tx *gorm.DB, bill *Bill) error {
	bill.Status = RecomputeBillStatus(bill)
	return tx.Model(&Bill{}).
		Where("id = ?", bill.ID).
		Updates(map[string]interface{}{
			"paid_amount":     bill.PaidAmount,
			"returned_amount": bill.ReturnedAmount,
			"status":          bill.Status,
		}).Error
}
