package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FIFOLot is a dated batch of inventory at a specific unit cost. Lots are
// consumed oldest-first and never deleted; they are the audit trail cost
// figures are derived from.
type FIFOLot struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TenantId    string          `gorm:"index;size:36;not null" json:"tenant_id"`
	WarehouseId int             `gorm:"index;not null" json:"warehouse_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	LotDate     time.Time       `gorm:"index;not null" json:"lot_date"`
	LotType     LotType         `gorm:"size:20;not null" json:"lot_type"`
	OriginalQty decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"original_qty"`
	// RemainingQty is the only mutable field: 0 <= remaining <= original.
	RemainingQty decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"remaining_qty"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`

	SourceType     ReferenceType `gorm:"size:32" json:"source_type"`
	SourceId       int           `gorm:"index" json:"source_id"`
	SourceDetailId int           `json:"source_detail_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FIFOConsumption links a consuming document to the lot it drew from. The
// unit cost is copied from the lot at consumption time so reversals restore
// the exact original cost, never a recomputed one.
//
// Reversal rows carry a negative Qty and keep the ORIGINAL document's
// reference, so the running sum per (reference, line) is always how much of
// that line's consumption is still reversible. The document that triggered
// the reversal lives in the ReversedBy columns.
type FIFOConsumption struct {
	ID       int    `gorm:"primary_key" json:"id"`
	TenantId string `gorm:"index;size:36;not null" json:"tenant_id"`
	LotId    int    `gorm:"index;not null" json:"lot_id"`

	ReferenceType     ReferenceType `gorm:"index;size:32;not null" json:"reference_type"`
	ReferenceId       int           `gorm:"index;not null" json:"reference_id"`
	ReferenceDetailId int           `json:"reference_detail_id"`

	ReversedByType     ReferenceType `gorm:"size:32" json:"reversed_by_type"`
	ReversedById       int           `gorm:"index" json:"reversed_by_id"`
	ReversedByDetailId int           `json:"reversed_by_detail_id"`

	Qty             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	ConsumptionDate time.Time       `gorm:"index;not null" json:"consumption_date"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OpenLotsFIFO returns the product's lots with remaining stock, in strict
// consumption order: lot date ascending, then creation order ascending.
// The tie-break is an explicit sort key, not a storage-engine default.
func OpenLotsFIFO(tx *gorm.DB, tenantId string, warehouseId, productId int) ([]*FIFOLot, error) {
	var lots []*FIFOLot
	err := tx.
		Where("tenant_id = ? AND warehouse_id = ? AND product_id = ? AND remaining_qty > 0",
			tenantId, warehouseId, productId).
		Order("lot_date ASC, id ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

// ConsumptionsForReference lists consumption rows recorded for a document,
// oldest first, optionally narrowed to one document line.
func ConsumptionsForReference(tx *gorm.DB, tenantId string, refType ReferenceType, refId int, refDetailId int) ([]*FIFOConsumption, error) {
	q := tx.Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantId, refType, refId)
	if refDetailId > 0 {
		q = q.Where("reference_detail_id = ?", refDetailId)
	}
	var rows []*FIFOConsumption
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
