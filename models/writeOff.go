package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryWriteOff removes damaged or lost stock. Only approved write offs
// post; cost is whatever FIFO says at posting time, never an estimate.
type InventoryWriteOff struct {
	ID           int       `gorm:"primary_key" json:"id"`
	TenantId     string    `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId     int       `gorm:"index" json:"branch_id"`
	WarehouseId  int       `gorm:"index" json:"warehouse_id"`
	CostCenterId *int      `json:"cost_center_id"`
	WriteOffDate time.Time `gorm:"not null" json:"write_off_date"`
	Reason       string    `gorm:"size:500" json:"reason"`
	Status       string    `gorm:"size:50;default:pending" json:"status"`
	ApprovedBy   string    `gorm:"size:36" json:"approved_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Details []InventoryWriteOffDetail `gorm:"foreignKey:WriteOffId" json:"details"`
}

type InventoryWriteOffDetail struct {
	ID         int             `gorm:"primary_key" json:"id"`
	WriteOffId int             `gorm:"index;not null" json:"write_off_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	Qty        decimal.Decimal `gorm:"type:decimal(20,6)" json:"qty"`
}

func GetInventoryWriteOff(tx *gorm.DB, tenantId string, writeOffId int) (InventoryWriteOff, error) {
	var writeOff InventoryWriteOff
	err := tx.Preload("Details").
		Where("tenant_id = ? AND id = ?", tenantId, writeOffId).
		First(&writeOff).Error
	return writeOff, err
}
