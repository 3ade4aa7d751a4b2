package workflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// RecordCOGS appends one cost ledger row. Rows are append-only: corrections
// are new rows (negative for returns), never edits.
//
// Every row must carry the full organizational scope and a cross-consistent
// cost (qty * unitCost within tolerance of totalCost).
func RecordCOGS(tx *gorm.DB, logger *logrus.Logger, row *models.COGSTransaction) error {
	if row.TenantId == "" || row.BranchId == 0 || row.WarehouseId == 0 {
		return &utils.ValidationError{
			Invariant: "cost ledger scope",
			Detail:    "tenant, branch and warehouse are all required on a cost ledger row",
		}
	}
	if row.ProductId == 0 {
		return &utils.ValidationError{
			Invariant: "cost ledger product",
			Detail:    "product is required on a cost ledger row",
		}
	}
	if row.Qty.IsZero() {
		return &utils.ValidationError{
			Invariant: "cost ledger quantity",
			Detail:    "quantity must be non-zero",
		}
	}
	if expected := row.Qty.Mul(row.UnitCost); !utils.WithinTolerance(expected, row.TotalCost) {
		return &utils.ValidationError{
			Invariant: "cost ledger amount",
			Detail: fmt.Sprintf("total cost %s does not match qty %s * unit cost %s",
				row.TotalCost.String(), row.Qty.String(), row.UnitCost.String()),
		}
	}
	if err := tx.Create(row).Error; err != nil {
		config.LogError(logger, "cogsLedger.go", "RecordCOGS", "create cost row", row, err)
		return err
	}
	return nil
}

// COGSTotal sums recorded cost between two dates (inclusive), optionally
// narrowed by branch, warehouse, cost center or product (zero means "all").
// A non-nil scope additionally narrows the read to the actor's branches;
// nil means an unscoped service read.
func COGSTotal(tx *gorm.DB, tenantId string, scope *models.GovernanceScope, from, to time.Time,
	branchId, warehouseId, costCenterId, productId int) (decimal.Decimal, error) {

	q := tx.Model(&models.COGSTransaction{}).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to)
	if scope != nil {
		q = ApplyReadScope(q, scope)
	} else {
		q = q.Where("tenant_id = ?", tenantId)
	}
	if branchId > 0 {
		q = q.Where("branch_id = ?", branchId)
	}
	if warehouseId > 0 {
		q = q.Where("warehouse_id = ?", warehouseId)
	}
	if costCenterId > 0 {
		q = q.Where("cost_center_id = ?", costCenterId)
	}
	if productId > 0 {
		q = q.Where("product_id = ?", productId)
	}

	var rows []*models.COGSTransaction
	if err := q.Find(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalCost)
	}
	return total, nil
}
