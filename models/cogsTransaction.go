package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// COGSTransaction is the authoritative, append-only record of realized cost
// of goods sold. Rows are always populated from FIFO consumption history,
// never from a product's mutable list-cost field. A return is a new row
// referencing the return document, not a mutation of the original.
type COGSTransaction struct {
	ID           int    `gorm:"primary_key" json:"id"`
	TenantId     string `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId     int    `gorm:"index;not null" json:"branch_id"`
	CostCenterId int    `gorm:"index;not null" json:"cost_center_id"`
	WarehouseId  int    `gorm:"index;not null" json:"warehouse_id"`
	ProductId    int    `gorm:"index;not null" json:"product_id"`

	SourceType CogsSourceType `gorm:"index;size:20;not null" json:"source_type"`
	SourceId   int            `gorm:"index;not null" json:"source_id"`

	Qty             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	TransactionDate time.Time       `gorm:"index;not null" json:"transaction_date"`

	FifoConsumptionId *int `json:"fifo_consumption_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
