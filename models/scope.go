package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/zentabooks/erpcore_backend/utils"
)

type Branch struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;size:36;not null" json:"tenant_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Warehouse struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId  int       `gorm:"index;not null" json:"branch_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type CostCenter struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;size:36;not null" json:"tenant_id"`
	BranchId  int       `gorm:"index" json:"branch_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Role carries the governance scope an actor posts under.
type Role struct {
	ID           int            `gorm:"primary_key" json:"id"`
	TenantId     string         `gorm:"index;size:36;not null" json:"tenant_id"`
	UserId       int            `gorm:"index;not null" json:"user_id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	ScopeLevel   RoleScopeLevel `gorm:"size:20;not null" json:"scope_level"`
	BranchId     int            `json:"branch_id"`
	WarehouseId  int            `json:"warehouse_id"`
	CostCenterId int            `json:"cost_center_id"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// GovernanceScope is the (tenant, branch, cost-center, warehouse) visibility
// and write scope derived from the actor's role. Every read is narrowed by it
// and every write validated against it.
type GovernanceScope struct {
	TenantId      string
	AllBranches   bool
	BranchIds     []int
	WarehouseIds  []int
	CostCenterIds []int
}

// CanWrite reports whether a write targeting the given scope triple is inside
// the actor's scope. Zero ids mean "not applicable" for that dimension.
func (s *GovernanceScope) CanWrite(branchId, warehouseId, costCenterId int) bool {
	if s.AllBranches {
		return true
	}
	if branchId > 0 && !slices.Contains(s.BranchIds, branchId) {
		return false
	}
	if warehouseId > 0 && !slices.Contains(s.WarehouseIds, warehouseId) {
		return false
	}
	if costCenterId > 0 && len(s.CostCenterIds) > 0 && !slices.Contains(s.CostCenterIds, costCenterId) {
		return false
	}
	return true
}

// ValidateWrite converts an out-of-scope write into a governance violation
// error; writes are rejected, never silently narrowed.
func (s *GovernanceScope) ValidateWrite(branchId, warehouseId, costCenterId int) error {
	if s.CanWrite(branchId, warehouseId, costCenterId) {
		return nil
	}
	return &utils.GovernanceError{
		TenantId: s.TenantId,
		Detail: fmt.Sprintf("write to branch=%d warehouse=%d cost_center=%d is outside the actor's scope",
			branchId, warehouseId, costCenterId),
	}
}
