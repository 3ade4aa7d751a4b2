package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesInvoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	TenantId      string          `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId      int             `gorm:"index" json:"branch_id"`
	WarehouseId   int             `gorm:"index" json:"warehouse_id"`
	CostCenterId  *int            `json:"cost_center_id"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id"`
	SalesOrderId  *int            `gorm:"index" json:"sales_order_id"`
	InvoiceNumber string          `gorm:"size:100" json:"invoice_number"`
	InvoiceDate   time.Time       `gorm:"not null" json:"invoice_date"`
	SubTotal      decimal.Decimal `gorm:"type:decimal(20,6)" json:"sub_total"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	ShippingFee   decimal.Decimal `gorm:"type:decimal(20,6)" json:"shipping_fee"`
	OtherCharges  decimal.Decimal `gorm:"type:decimal(20,6)" json:"other_charges"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,6)" json:"paid_amount"`
	ReturnedAmount decimal.Decimal `gorm:"type:decimal(20,6)" json:"returned_amount"`
	Status        string          `gorm:"size:50;default:confirmed" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Details []SalesInvoiceDetail `gorm:"foreignKey:InvoiceId" json:"details"`
}

type SalesInvoiceDetail struct {
	ID        int             `gorm:"primary_key" json:"id"`
	InvoiceId int             `gorm:"index;not null" json:"invoice_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,6)" json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_price"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,6)" json:"amount"`
}

type SalesOrder struct {
	ID          int       `gorm:"primary_key" json:"id"`
	TenantId    string    `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId    int       `gorm:"index" json:"branch_id"`
	CustomerId  int       `gorm:"index;not null" json:"customer_id"`
	OrderNumber string    `gorm:"size:100" json:"order_number"`
	OrderDate   time.Time `json:"order_date"`
	Status      string    `gorm:"size:50;default:confirmed" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetSalesInvoice(tx *gorm.DB, tenantId string, invoiceId int) (SalesInvoice, error) {
	var invoice SalesInvoice
	err := tx.Preload("Details").
		Where("tenant_id = ? AND id = ?", tenantId, invoiceId).
		First(&invoice).Error
	return invoice, err
}

// RecomputeInvoiceStatus derives the invoice status from its paid and
// returned amounts. Returns take precedence: a fully returned invoice stays
// fully_returned regardless of payments.
func RecomputeInvoiceStatus(invoice *SalesInvoice) string {
	remaining := invoice.TotalAmount.Sub(invoice.ReturnedAmount)
	switch {
	case invoice.ReturnedAmount.GreaterThanOrEqual(invoice.TotalAmount) && invoice.TotalAmount.IsPositive():
		return string(InvoiceStatusFullyReturned)
	case invoice.PaidAmount.GreaterThanOrEqual(remaining) && remaining.IsPositive():
		return string(InvoiceStatusPaid)
	case invoice.ReturnedAmount.IsPositive():
		return string(InvoiceStatusPartiallyReturned)
	case invoice.PaidAmount.IsPositive():
		return string(InvoiceStatusPartiallyPaid)
	default:
		return string(InvoiceStatusConfirmed)
	}
}

func SaveInvoiceStatus(tx *gorm.DB, invoice *SalesInvoice) error {
	invoice.Status = RecomputeInvoiceStatus(invoice)
	return tx.Model(&SalesInvoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"paid_amount":     invoice.PaidAmount,
			"returned_amount": invoice.ReturnedAmount,
			"status":          invoice.Status,
		}).Error
}
