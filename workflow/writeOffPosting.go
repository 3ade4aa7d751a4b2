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

// PrepareWriteOffPosting posts an approved inventory write off at whatever
// FIFO says the stock is worth right now:
//
//	Dr  write off expense   FIFO cost
//	Cr  inventory           FIFO cost
//
// A write off whose entire resolved cost is zero abstains from the journal:
// no entry, just the stock decrement and cost trail carried by the FIFO
// plans. Pending and approved write offs both post; rejected ones cannot.
func PrepareWriteOffPosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, writeOffId int) (*PrepareResult, error) {
	writeOff, err := models.GetInventoryWriteOff(tx, tenantId, writeOffId)
	if err != nil {
		config.LogError(logger, "writeOffPosting.go", "PrepareWriteOffPosting", "load write off", writeOffId, err)
		return nil, err
	}
	if writeOff.Status != string(models.WriteOffStatusPending) && writeOff.Status != string(models.WriteOffStatusApproved) {
		return nil, &utils.ValidationError{
			Invariant: "write off status",
			Detail:    fmt.Sprintf("write off %d is %s, only pending or approved write offs post", writeOffId, writeOff.Status),
		}
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	expenseId, err := accounts.Get(RoleWriteOffExpense)
	if err != nil {
		return nil, err
	}
	inventoryId, err := accounts.Get(RoleInventory)
	if err != nil {
		return nil, err
	}

	costCenterId := utils.DereferencePtr(writeOff.CostCenterId)
	totalCost := decimal.Zero
	var plans []FIFOPlan
	for _, detail := range writeOff.Details {
		plan, err := PlanFIFOConsumption(tx, tenantId, writeOff.WarehouseId, detail.ProductId,
			detail.Qty, models.ReferenceTypeWriteOff, writeOff.ID, detail.ID, writeOff.WriteOffDate)
		if err != nil {
			return nil, err
		}
		if err := plan.RequireFullStock(); err != nil {
			return nil, err
		}
		plan.BranchId = writeOff.BranchId
		plan.EmitCOGS = true
		plan.CogsSource = models.CogsSourceWriteOff
		plans = append(plans, *plan)
		totalCost = totalCost.Add(plan.TotalCost)
	}

	if totalCost.IsZero() {
		return &PrepareResult{
			Skipped:    true,
			SkipReason: fmt.Sprintf("write off %d resolved to zero cost, journal abstained", writeOff.ID),
			Payload: &PostingPayload{
				TenantId:      tenantId,
				ReferenceType: models.ReferenceTypeWriteOff,
				ReferenceId:   writeOff.ID,
				LockType:      models.AccountantPeriodLock,
				EntryDate:     writeOff.WriteOffDate,
				BranchId:      writeOff.BranchId,
				WarehouseId:   writeOff.WarehouseId,
				CostCenterId:  costCenterId,
				FIFOPlans:     plans,
			},
		}, nil
	}

	draft := JournalDraft{
		ReferenceType: models.ReferenceTypeWriteOff,
		ReferenceId:   writeOff.ID,
		EntryDate:     writeOff.WriteOffDate,
		Description:   "Inventory write off: " + writeOff.Reason,
		BranchId:      writeOff.BranchId,
		CostCenterId:  costCenterId,
		Lines: []models.JournalLine{
			{AccountId: expenseId, Debit: totalCost, BranchId: writeOff.BranchId, CostCenterId: costCenterId},
			{AccountId: inventoryId, Credit: totalCost, BranchId: writeOff.BranchId, CostCenterId: costCenterId},
		},
	}

	return &PrepareResult{
		Payload: &PostingPayload{
			TenantId:      tenantId,
			ReferenceType: models.ReferenceTypeWriteOff,
			ReferenceId:   writeOff.ID,
			LockType:      models.AccountantPeriodLock,
			EntryDate:     writeOff.WriteOffDate,
			BranchId:      writeOff.BranchId,
			WarehouseId:   writeOff.WarehouseId,
			CostCenterId:  costCenterId,
			Journal:       &draft,
			FIFOPlans:     plans,
		},
	}, nil
}
