package workflow

import (
	"errors"

	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// ResolveGovernanceScope expands an actor's role into the concrete id sets
// reads are narrowed by and writes validated against.
//
//	company: every branch, warehouse and cost center in the tenant
//	branch:  one branch plus its warehouses and cost centers
//	single:  exactly the role's branch, warehouse and cost center
func ResolveGovernanceScope(tx *gorm.DB, tenantId string, userId int) (*models.GovernanceScope, error) {
	var role models.Role
	err := tx.Where("tenant_id = ? AND user_id = ?", tenantId, userId).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.GovernanceError{
				TenantId: tenantId,
				Detail:   "actor has no role in this tenant",
			}
		}
		return nil, err
	}

	scope := models.GovernanceScope{TenantId: tenantId}
	switch role.ScopeLevel {
	case models.RoleScopeCompany:
		scope.AllBranches = true
		return &scope, nil
	case models.RoleScopeBranch:
		if role.BranchId == 0 {
			return nil, &utils.GovernanceError{
				TenantId: tenantId,
				Detail:   "branch-scoped role has no branch assigned",
			}
		}
		scope.BranchIds = []int{role.BranchId}
		var warehouses []*models.Warehouse
		if err := tx.Where("tenant_id = ? AND branch_id = ?", tenantId, role.BranchId).Find(&warehouses).Error; err != nil {
			return nil, err
		}
		for _, w := range warehouses {
			scope.WarehouseIds = append(scope.WarehouseIds, w.ID)
		}
		var costCenters []*models.CostCenter
		if err := tx.Where("tenant_id = ? AND branch_id = ?", tenantId, role.BranchId).Find(&costCenters).Error; err != nil {
			return nil, err
		}
		for _, cc := range costCenters {
			scope.CostCenterIds = append(scope.CostCenterIds, cc.ID)
		}
		return &scope, nil
	case models.RoleScopeSingle:
		if role.BranchId == 0 || role.WarehouseId == 0 {
			return nil, &utils.GovernanceError{
				TenantId: tenantId,
				Detail:   "single-scoped role needs a branch and warehouse assignment",
			}
		}
		scope.BranchIds = []int{role.BranchId}
		scope.WarehouseIds = []int{role.WarehouseId}
		if role.CostCenterId > 0 {
			scope.CostCenterIds = []int{role.CostCenterId}
		}
		return &scope, nil
	default:
		return nil, &utils.GovernanceError{
			TenantId: tenantId,
			Detail:   "unknown role scope level " + string(role.ScopeLevel),
		}
	}
}

// ApplyReadScope narrows a query to the scope's branches. Company scope
// passes through untouched.
func ApplyReadScope(q *gorm.DB, scope *models.GovernanceScope) *gorm.DB {
	q = q.Where("tenant_id = ?", scope.TenantId)
	if scope.AllBranches {
		return q
	}
	return q.Where("branch_id IN ?", scope.BranchIds)
}

// ApplyWarehouseReadScope narrows a query by warehouse, for tables that
// carry no branch column (lots live in warehouses, not branches).
func ApplyWarehouseReadScope(q *gorm.DB, scope *models.GovernanceScope) *gorm.DB {
	q = q.Where("tenant_id = ?", scope.TenantId)
	if scope.AllBranches {
		return q
	}
	return q.Where("warehouse_id IN ?", scope.WarehouseIds)
}
