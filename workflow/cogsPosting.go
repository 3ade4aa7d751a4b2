package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// PrepareInvoiceCogsPosting builds the cost-side posting for an invoice:
// plan a FIFO consumption per inventory-tracked line, then
//
//	Dr  cost of goods sold    total FIFO cost
//	Cr  inventory             total FIFO cost
//
// An invoice with no tracked lines, or whose resolved FIFO cost is zero,
// abstains from the journal rather than posting a zero entry. The zero-cost
// abstention still carries the FIFO plans: the goods shipped, so the stock
// decrement and consumption trail are written even though no money moves.
//
// If the invoice already produced inventory movement (a retry after a
// zero-cost commit, or a rebuilt posting), the preparer does not consume
// again: it rebuilds the journal from the cost rows recorded the first time.
func PrepareInvoiceCogsPosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, invoiceId int) (*PrepareResult, error) {
	invoice, err := models.GetSalesInvoice(tx, tenantId, invoiceId)
	if err != nil {
		config.LogError(logger, "cogsPosting.go", "PrepareInvoiceCogsPosting", "load invoice", invoiceId, err)
		return nil, err
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	cogsId, err := accounts.Get(RoleCogs)
	if err != nil {
		return nil, err
	}
	inventoryId, err := accounts.Get(RoleInventory)
	if err != nil {
		return nil, err
	}

	costCenterId := utils.DereferencePtr(invoice.CostCenterId)

	consumed, err := models.HasInventoryTransactions(tx, tenantId, models.ReferenceTypeInvoice, invoice.ID)
	if err != nil {
		return nil, err
	}
	if consumed {
		return reuseRecordedCogs(tx, &invoice, cogsId, inventoryId, costCenterId)
	}

	totalCost := decimal.Zero
	var plans []FIFOPlan
	for _, detail := range invoice.Details {
		tracked, err := isTrackedProduct(tx, tenantId, detail.ProductId)
		if err != nil {
			return nil, err
		}
		if !tracked {
			continue
		}
		plan, err := PlanFIFOConsumption(tx, tenantId, invoice.WarehouseId, detail.ProductId,
			detail.Qty, models.ReferenceTypeInvoice, invoice.ID, detail.ID, invoice.InvoiceDate)
		if err != nil {
			return nil, err
		}
		if err := plan.RequireFullStock(); err != nil {
			return nil, err
		}
		plan.BranchId = invoice.BranchId
		plan.EmitCOGS = true
		plan.CogsSource = models.CogsSourceInvoice
		plans = append(plans, *plan)
		totalCost = totalCost.Add(plan.TotalCost)
	}

	if len(plans) == 0 {
		return &PrepareResult{
			Skipped:    true,
			SkipReason: fmt.Sprintf("invoice %d has no inventory-tracked lines", invoice.ID),
		}, nil
	}
	if totalCost.IsZero() {
		return &PrepareResult{
			Skipped:    true,
			SkipReason: fmt.Sprintf("invoice %d resolved to zero cost, journal abstained", invoice.ID),
			Payload: &PostingPayload{
				TenantId:      tenantId,
				ReferenceType: models.ReferenceTypeInvoiceCogs,
				ReferenceId:   invoice.ID,
				LockType:      models.SalesPeriodLock,
				EntryDate:     invoice.InvoiceDate,
				BranchId:      invoice.BranchId,
				WarehouseId:   invoice.WarehouseId,
				CostCenterId:  costCenterId,
				FIFOPlans:     plans,
			},
		}, nil
	}

	draft := JournalDraft{
		ReferenceType: models.ReferenceTypeInvoiceCogs,
		ReferenceId:   invoice.ID,
		EntryDate:     invoice.InvoiceDate,
		Description:   "Cost of goods sold for invoice " + invoice.InvoiceNumber,
		BranchId:      invoice.BranchId,
		CostCenterId:  costCenterId,
		Lines: []models.JournalLine{
			{AccountId: cogsId, Debit: totalCost, BranchId: invoice.BranchId, CostCenterId: costCenterId},
			{AccountId: inventoryId, Credit: totalCost, BranchId: invoice.BranchId, CostCenterId: costCenterId},
		},
	}

	return &PrepareResult{
		Payload: &PostingPayload{
			TenantId:      tenantId,
			ReferenceType: models.ReferenceTypeInvoiceCogs,
			ReferenceId:   invoice.ID,
			LockType:      models.SalesPeriodLock,
			EntryDate:     invoice.InvoiceDate,
			BranchId:      invoice.BranchId,
			WarehouseId:   invoice.WarehouseId,
			CostCenterId:  costCenterId,
			Journal:       &draft,
			FIFOPlans:     plans,
		},
	}, nil
}

// reuseRecordedCogs rebuilds the cost journal from the rows an earlier
// consumption recorded, without touching the lots again.
func reuseRecordedCogs(tx *gorm.DB, invoice *models.SalesInvoice, cogsId, inventoryId, costCenterId int) (*PrepareResult, error) {
	var rows []*models.COGSTransaction
	err := tx.Where("tenant_id = ? AND source_type = ? AND source_id = ?",
		invoice.TenantId, models.CogsSourceInvoice, invoice.ID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalCost)
	}
	if total.IsZero() {
		return &PrepareResult{
			Skipped:    true,
			SkipReason: fmt.Sprintf("invoice %d already consumed at zero cost", invoice.ID),
		}, nil
	}

	draft := JournalDraft{
		ReferenceType: models.ReferenceTypeInvoiceCogs,
		ReferenceId:   invoice.ID,
		EntryDate:     invoice.InvoiceDate,
		Description:   "Cost of goods sold for invoice " + invoice.InvoiceNumber,
		BranchId:      invoice.BranchId,
		CostCenterId:  costCenterId,
		Lines: []models.JournalLine{
			{AccountId: cogsId, Debit: total, BranchId: invoice.BranchId, CostCenterId: costCenterId},
			{AccountId: inventoryId, Credit: total, BranchId: invoice.BranchId, CostCenterId: costCenterId},
		},
	}
	return &PrepareResult{
		Payload: &PostingPayload{
			TenantId:      invoice.TenantId,
			ReferenceType: models.ReferenceTypeInvoiceCogs,
			ReferenceId:   invoice.ID,
			LockType:      models.SalesPeriodLock,
			EntryDate:     invoice.InvoiceDate,
			BranchId:      invoice.BranchId,
			WarehouseId:   invoice.WarehouseId,
			CostCenterId:  costCenterId,
			Journal:       &draft,
		},
	}, nil
}

func isTrackedProduct(tx *gorm.DB, tenantId string, productId int) (bool, error) {
	var product models.Product
	if err := tx.Where("tenant_id = ? AND id = ?", tenantId, productId).First(&product).Error; err != nil {
		return false, err
	}
	return utils.DereferencePtr(product.TrackInventory, true), nil
}
