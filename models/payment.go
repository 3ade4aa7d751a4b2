package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment covers both directions: CustomerId set means money received,
// SupplierId set means money paid out. Exactly one of the two must be set.
type Payment struct {
	ID               int             `gorm:"primary_key" json:"id"`
	TenantId         string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId         int             `gorm:"index" json:"branch_id"`
	CostCenterId     *int            `json:"cost_center_id"`
	CustomerId       *int            `gorm:"index" json:"customer_id"`
	SupplierId       *int            `gorm:"index" json:"supplier_id"`
	InvoiceId        *int            `gorm:"index" json:"invoice_id"`
	BillId           *int            `gorm:"index" json:"bill_id"`
	DepositAccountId int             `gorm:"not null" json:"deposit_account_id"`
	PaymentNumber    string          `gorm:"size:100" json:"payment_number"`
	PaymentDate      time.Time       `gorm:"not null" json:"payment_date"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,6)" json:"amount"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func GetPayment(tx *gorm.DB, tenantId string, paymentId int) (Payment, error) {
	var payment Payment
	err := tx.Where("tenant_id = ? AND id = ?", tenantId, paymentId).
		First(&payment).Error
	return payment, err
}
