package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerCredit is created only when a sales return's value exceeds the
// customer's outstanding balance on the originating invoice.
type CustomerCredit struct {
	ID         int    `gorm:"primary_key" json:"id"`
	TenantId   string `gorm:"index;size:36;not null" json:"tenant_id"`
	CustomerId int    `gorm:"index;not null" json:"customer_id"`

	ReferenceType ReferenceType `gorm:"size:32;not null" json:"reference_type"`
	ReferenceId   int           `gorm:"index;not null" json:"reference_id"`

	Amount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	UsedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"used_amount"`
	Status     CreditStatus    `gorm:"size:20;not null;default:'open'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// VendorCredit mirrors CustomerCredit on the payable side.
type VendorCredit struct {
	ID         int    `gorm:"primary_key" json:"id"`
	TenantId   string `gorm:"index;size:36;not null" json:"tenant_id"`
	SupplierId int    `gorm:"index;not null" json:"supplier_id"`

	ReferenceType ReferenceType `gorm:"size:32;not null" json:"reference_type"`
	ReferenceId   int           `gorm:"index;not null" json:"reference_id"`

	Amount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	UsedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"used_amount"`
	Status     CreditStatus    `gorm:"size:20;not null;default:'open'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
